package rule

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr/vm"
	"github.com/signadot/xmlreconcile/locate"
)

// Table is an ordered rule list for the fragments picked by Select. Rules
// run in order, and later rules see what earlier ones inserted. Fragments
// for which Drop holds are removed from their document instead.
type Table struct {
	Name        string                    `yaml:"name" json:"name"`
	Description string                    `yaml:"description,omitempty" json:"description,omitempty"`
	Extends     []string                  `yaml:"extends,omitempty" json:"extends,omitempty"`
	Select      *locate.Selector          `yaml:"select,omitempty" json:"select,omitempty"`
	Rules       []*Rule                   `yaml:"rules,omitempty" json:"rules,omitempty"`
	Overrides   map[string]map[string]any `yaml:"overrides,omitempty" json:"overrides,omitempty"`
	Drop        string                    `yaml:"drop,omitempty" json:"drop,omitempty"`

	drop     *vm.Program
	compiled bool
}

func (t *Table) String() string {
	return t.Name
}

// Compiled reports whether Compile succeeded on t.
func (t *Table) Compiled() bool {
	return t.compiled
}

// Compile applies the table's own overrides and compiles every rule. Tables
// that extend others must go through Resolve.
func (t *Table) Compile() error {
	if t.compiled {
		return nil
	}
	if len(t.Extends) != 0 {
		return fmt.Errorf("%w: table %q extends %v: use Resolve", ErrBadRule, t.Name, t.Extends)
	}
	if t.Select == nil {
		return fmt.Errorf("%w: table %q has no select", ErrBadRule, t.Name)
	}
	if err := t.Select.Check(); err != nil {
		return fmt.Errorf("table %q: %w", t.Name, err)
	}
	if len(t.Overrides) != 0 {
		rules, err := applyOverrides(t.Rules, t.Overrides)
		if err != nil {
			return fmt.Errorf("table %q: %w", t.Name, err)
		}
		t.Rules = rules
		t.Overrides = nil
	}
	for _, r := range t.Rules {
		if err := r.compile(); err != nil {
			return fmt.Errorf("table %q: %w", t.Name, err)
		}
	}
	if t.Drop != "" {
		p, err := compileCond(t.Drop)
		if err != nil {
			return fmt.Errorf("%w: table %q: drop: %w", ErrBadRule, t.Name, err)
		}
		t.drop = p
	}
	t.compiled = true
	return nil
}

// Drops reports whether a fragment with env is to be removed.
func (t *Table) Drops(env Env) (bool, error) {
	if t.drop == nil {
		return false, nil
	}
	res, err := vm.Run(t.drop, map[string]any(env))
	if err != nil {
		return false, fmt.Errorf("%w: %s: drop: %w", ErrEval, t.Name, err)
	}
	b, ok := res.(bool)
	if !ok {
		return false, fmt.Errorf("%w: %s: drop gave %T, want bool", ErrEval, t.Name, res)
	}
	return b, nil
}

// anyDrop joins drop conditions of composed tables.
func anyDrop(conds ...string) string {
	var parts []string
	for _, c := range conds {
		if c = strings.TrimSpace(c); c != "" {
			parts = append(parts, c)
		}
	}
	if len(parts) < 2 {
		return strings.Join(parts, "")
	}
	return "(" + strings.Join(parts, ") || (") + ")"
}

func cloneRules(rules []*Rule) []*Rule {
	res := make([]*Rule, len(rules))
	for i, r := range rules {
		res[i] = r.clone()
	}
	return res
}

func agreeSelect(a, b *locate.Selector) (*locate.Selector, error) {
	if a == nil {
		return b, nil
	}
	if b == nil || *a == *b {
		return a, nil
	}
	return nil, fmt.Errorf("%w: conflicting selectors %s and %s", ErrBadRule, a, b)
}

// WithOverrides returns a compiled copy of t with overrides merged into its
// rules.
func (t *Table) WithOverrides(overrides map[string]map[string]any) (*Table, error) {
	rules, err := applyOverrides(t.Rules, overrides)
	if err != nil {
		return nil, fmt.Errorf("table %q: %w", t.Name, err)
	}
	res := &Table{Name: t.Name, Description: t.Description, Select: t.Select, Rules: rules, Drop: t.Drop}
	if err := res.Compile(); err != nil {
		return nil, err
	}
	return res, nil
}
