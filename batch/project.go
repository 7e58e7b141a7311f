package batch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/signadot/xmlreconcile/rewrite"
	"github.com/signadot/xmlreconcile/rule"

	"github.com/goccy/go-yaml"
)

// ProjectFile is looked up in the working directory.
const ProjectFile = "xrc.yaml"

// DefaultTargets are the documents of an unpacked solution export.
var DefaultTargets = []string{
	"solution/Other/Customizations.xml",
	"solution/Tables/*/Entity.xml",
}

// Project holds the defaults of a working directory. Relative targets and
// rule table paths are relative to Root.
type Project struct {
	Root         string                    `yaml:"-"`
	Targets      []string                  `yaml:"targets,omitempty"`
	Rules        string                    `yaml:"rules,omitempty"`
	BackupSuffix *string                   `yaml:"backupSuffix,omitempty"`
	Overrides    map[string]map[string]any `yaml:"overrides,omitempty"`
}

// LoadProject reads dir/xrc.yaml. A missing file gives the default project.
func LoadProject(dir string) (*Project, error) {
	p, err := OpenProject(filepath.Join(dir, ProjectFile))
	if errors.Is(err, fs.ErrNotExist) {
		return &Project{Root: dir}, nil
	}
	return p, err
}

// OpenProject reads a project file at path.
func OpenProject(path string) (*Project, error) {
	d, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p := &Project{}
	if err := yaml.UnmarshalWithOptions(d, p, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("could not decode %s: %w", path, err)
	}
	p.Root = filepath.Dir(path)
	return p, nil
}

// Table resolves the rule selector, sel if given or else the project's.
// The project overrides refine the project's own selector only.
func (p *Project) Table(sel string) (*rule.Table, error) {
	own := sel == "" || sel == p.Rules
	if sel == "" {
		sel = p.Rules
	}
	var refs []string
	for _, ref := range strings.Split(sel, ",") {
		ref = strings.TrimSpace(ref)
		if ref == "" {
			continue
		}
		if rule.Lookup(ref) == nil && !filepath.IsAbs(ref) && isPath(ref) {
			ref = filepath.Join(p.Root, ref)
		}
		refs = append(refs, ref)
	}
	t, err := rule.Resolve(strings.Join(refs, ","))
	if err != nil {
		return nil, err
	}
	if !own || len(p.Overrides) == 0 {
		return t, nil
	}
	return t.WithOverrides(p.Overrides)
}

func isPath(ref string) bool {
	switch filepath.Ext(ref) {
	case ".yaml", ".yml":
		return true
	}
	return strings.ContainsRune(ref, filepath.Separator)
}

// Backup returns the backup suffix to use.
func (p *Project) Backup() string {
	if p.BackupSuffix != nil && *p.BackupSuffix != "" {
		return *p.BackupSuffix
	}
	return rewrite.DefaultBackupSuffix
}

// Expand turns targets, or the project or default targets when empty, into
// document paths. Patterns that match nothing are dropped; plain paths are
// kept so that a missing document is reported.
func (p *Project) Expand(targets []string) ([]string, error) {
	if len(targets) == 0 {
		targets = p.Targets
	}
	if len(targets) == 0 {
		targets = DefaultTargets
	}
	var res []string
	seen := map[string]bool{}
	for _, t := range targets {
		if !filepath.IsAbs(t) && p.Root != "" {
			t = filepath.Join(p.Root, t)
		}
		matches := []string{t}
		if hasMeta(t) {
			var err error
			if matches, err = filepath.Glob(t); err != nil {
				return nil, fmt.Errorf("bad target pattern %q: %w", t, err)
			}
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				res = append(res, m)
			}
		}
	}
	return res, nil
}

func hasMeta(p string) bool {
	return strings.ContainsAny(p, `*?[\`)
}
