// Package rule holds declarative rule tables: which child elements a
// fragment must carry, which values they must hold and where missing ones
// are inserted.
package rule

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr/vm"
)

type Kind string

const (
	// Require inserts the element when it is absent and never touches it
	// when present.
	Require Kind = "require"
	// Set rewrites the value of an element that is present.
	Set Kind = "set"
	// Remove deletes an element that is present.
	Remove Kind = "remove"
)

func (k Kind) valid() bool {
	switch k {
	case Require, Set, Remove:
		return true
	}
	return false
}

// Anchor names where a missing element goes: just after or just before an
// existing sibling, or after the last child.
type Anchor struct {
	After  string `yaml:"after,omitempty" json:"after,omitempty"`
	Before string `yaml:"before,omitempty" json:"before,omitempty"`
	Last   bool   `yaml:"last,omitempty" json:"last,omitempty"`
}

func (a Anchor) String() string {
	switch {
	case a.After != "":
		return "after " + a.After
	case a.Before != "":
		return "before " + a.Before
	case a.Last:
		return "last"
	}
	return "<empty anchor>"
}

func (a Anchor) check() error {
	n := 0
	if a.After != "" {
		n++
	}
	if a.Before != "" {
		n++
	}
	if a.Last {
		n++
	}
	if n != 1 {
		return fmt.Errorf("anchor needs exactly one of after, before, last")
	}
	return nil
}

type Rule struct {
	// Name identifies the rule for overrides; it defaults to Element.
	Name    string `yaml:"name,omitempty" json:"name,omitempty"`
	Element string `yaml:"element" json:"element"`
	Kind    Kind   `yaml:"kind,omitempty" json:"kind,omitempty"`
	// When is an optional boolean expression; the rule is skipped when it
	// evaluates to false.
	When string `yaml:"when,omitempty" json:"when,omitempty"`
	// Value is the static value. Expr, when set, is evaluated first and
	// Value is used only if Expr yields nil.
	Value   *string  `yaml:"value,omitempty" json:"value,omitempty"`
	Expr    string   `yaml:"expr,omitempty" json:"expr,omitempty"`
	Anchors []Anchor `yaml:"anchors,omitempty" json:"anchors,omitempty"`

	when *vm.Program
	expr *vm.Program
}

func (r *Rule) Key() string {
	if r.Name != "" {
		return r.Name
	}
	return r.Element
}

func (r *Rule) String() string {
	if r.Name != "" && r.Name != r.Element {
		return fmt.Sprintf("%s(%s %s)", r.Name, r.kind(), r.Element)
	}
	return fmt.Sprintf("%s %s", r.kind(), r.Element)
}

func (r *Rule) kind() Kind {
	if r.Kind == "" {
		return Require
	}
	return r.Kind
}

func (r *Rule) clone() *Rule {
	res := *r
	res.Anchors = append([]Anchor(nil), r.Anchors...)
	if r.Value != nil {
		v := *r.Value
		res.Value = &v
	}
	return &res
}

func (r *Rule) compile() error {
	if r.Kind == "" {
		r.Kind = Require
	}
	if strings.TrimSpace(r.Element) == "" {
		return fmt.Errorf("%w: rule %q has no element", ErrBadRule, r.Key())
	}
	if !r.Kind.valid() {
		return fmt.Errorf("%w: %s: unknown kind %q", ErrBadRule, r.Key(), r.Kind)
	}
	switch r.Kind {
	case Require:
		if r.Value == nil && r.Expr == "" {
			return fmt.Errorf("%w: %s: require needs value or expr", ErrBadRule, r.Key())
		}
		if len(r.Anchors) == 0 {
			return fmt.Errorf("%w: %s: require needs at least one anchor", ErrBadRule, r.Key())
		}
	case Set:
		if r.Value == nil && r.Expr == "" {
			return fmt.Errorf("%w: %s: set needs value or expr", ErrBadRule, r.Key())
		}
	}
	for _, a := range r.Anchors {
		if err := a.check(); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrBadRule, r.Key(), err)
		}
		if a.After == r.Element || a.Before == r.Element {
			return fmt.Errorf("%w: %s: anchored on itself", ErrBadRule, r.Key())
		}
	}
	var err error
	if r.When != "" {
		r.when, err = compileCond(r.When)
		if err != nil {
			return fmt.Errorf("%w: %s: when: %w", ErrBadRule, r.Key(), err)
		}
	}
	if r.Expr != "" {
		r.expr, err = compileValue(r.Expr)
		if err != nil {
			return fmt.Errorf("%w: %s: expr: %w", ErrBadRule, r.Key(), err)
		}
	}
	return nil
}

// Applies evaluates the rule condition against env.
func (r *Rule) Applies(env Env) (bool, error) {
	if r.when == nil {
		return true, nil
	}
	res, err := vm.Run(r.when, map[string]any(env))
	if err != nil {
		return false, fmt.Errorf("%w: %s: when: %w", ErrEval, r.Key(), err)
	}
	b, ok := res.(bool)
	if !ok {
		return false, fmt.Errorf("%w: %s: when gave %T, want bool", ErrEval, r.Key(), res)
	}
	return b, nil
}

// Resolve computes the value the element should hold. ok is false when
// neither the expression nor a static value produce one.
func (r *Rule) Resolve(env Env) (v string, ok bool, err error) {
	if r.expr != nil {
		res, err := vm.Run(r.expr, map[string]any(env))
		if err != nil {
			return "", false, fmt.Errorf("%w: %s: expr: %w", ErrEval, r.Key(), err)
		}
		if v, ok := scalar(res); ok {
			return v, true, nil
		}
	}
	if r.Value != nil {
		return *r.Value, true, nil
	}
	return "", false, nil
}
