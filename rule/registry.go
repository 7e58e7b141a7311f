package rule

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/signadot/xmlreconcile/debug"
)

// DefaultSet is resolved when no selector is given.
const DefaultSet = "dataverse"

var (
	mu sync.RWMutex
	d  = map[string]*Table{}
)

func Register(t *Table) error {
	key := t.Name
	if key == "" || strings.ContainsAny(key, ",/") {
		return fmt.Errorf("%w: table name %q must be non-empty without ',' or '/'", ErrBadRule, key)
	}
	mu.Lock()
	defer mu.Unlock()
	if _, present := d[key]; present {
		return fmt.Errorf("%s: %w", key, ErrTableExists)
	}
	d[key] = t
	return nil
}

func Lookup(name string) *Table {
	mu.RLock()
	defer mu.RUnlock()
	return d[name]
}

func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	res := make([]string, 0, len(d))
	for k := range d {
		res = append(res, k)
	}
	slices.Sort(res)
	return res
}

// Resolve builds a compiled table from a comma separated list of registered
// table names or YAML file paths. Layers compose left to right, so rules and
// overrides of later layers take precedence.
func Resolve(selector string) (*Table, error) {
	var refs []string
	for _, ref := range strings.Split(selector, ",") {
		if ref = strings.TrimSpace(ref); ref != "" {
			refs = append(refs, ref)
		}
	}
	if len(refs) == 0 {
		refs = []string{DefaultSet}
	}
	r := &resolver{visiting: map[string]bool{}}
	var res *Table
	for _, ref := range refs {
		t, err := r.flatten(ref, "", res)
		if err != nil {
			return nil, err
		}
		res = t
	}
	res.Name = strings.Join(refs, ",")
	if err := res.Compile(); err != nil {
		return nil, err
	}
	if debug.Rules() {
		debug.Logf("resolved %s: %d rules over %s\n", res.Name, len(res.Rules), res.Select)
	}
	return res, nil
}

type resolver struct {
	visiting map[string]bool
}

func (r *resolver) load(ref, dir string) (*Table, string, error) {
	if t := Lookup(ref); t != nil {
		return t, "", nil
	}
	if !isPath(ref) {
		return nil, "", fmt.Errorf("%w: %q", ErrNoSuchTable, ref)
	}
	if dir != "" && !filepath.IsAbs(ref) {
		ref = filepath.Join(dir, ref)
	}
	t, err := Load(ref)
	if err != nil {
		return nil, "", err
	}
	return t, filepath.Dir(ref), nil
}

func isPath(ref string) bool {
	switch filepath.Ext(ref) {
	case ".yaml", ".yml":
		return true
	}
	return strings.ContainsRune(ref, filepath.Separator)
}

// flatten returns an uncompiled copy of ref with the rules of base and of
// its extends chain inlined ahead of its own, and its overrides applied to
// all of them.
func (r *resolver) flatten(ref, dir string, base *Table) (*Table, error) {
	t, tDir, err := r.load(ref, dir)
	if err != nil {
		return nil, err
	}
	key := tDir + "\x00" + t.Name
	if r.visiting[key] {
		return nil, fmt.Errorf("%w: extends cycle through %q", ErrBadRule, t.Name)
	}
	r.visiting[key] = true
	defer delete(r.visiting, key)

	res := &Table{Name: t.Name, Description: t.Description, Select: t.Select}
	if base != nil {
		if res.Select, err = agreeSelect(base.Select, res.Select); err != nil {
			return nil, fmt.Errorf("%s: %w", t.Name, err)
		}
		res.Rules = base.Rules
		res.Drop = base.Drop
	}
	for _, p := range t.Extends {
		pt, err := r.flatten(p, tDir, nil)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", t.Name, err)
		}
		if res.Select, err = agreeSelect(res.Select, pt.Select); err != nil {
			return nil, fmt.Errorf("%s: %w", t.Name, err)
		}
		res.Rules = append(res.Rules, pt.Rules...)
		res.Drop = anyDrop(res.Drop, pt.Drop)
	}
	res.Rules = append(res.Rules, cloneRules(t.Rules)...)
	res.Drop = anyDrop(res.Drop, t.Drop)
	if len(t.Overrides) != 0 {
		if res.Rules, err = applyOverrides(res.Rules, t.Overrides); err != nil {
			return nil, fmt.Errorf("%s: %w", t.Name, err)
		}
	}
	return res, nil
}
