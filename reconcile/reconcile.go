// Package reconcile applies a rule table to one located fragment.
//
// Within a pass, edits are planned against the fragment's children and
// emitted in a single forward sweep. Bytes no rule touches are copied
// verbatim.
package reconcile

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"github.com/signadot/xmlreconcile/debug"
	"github.com/signadot/xmlreconcile/locate"
	"github.com/signadot/xmlreconcile/rule"
)

// MaxPasses bounds the passes Reconcile makes over one fragment.
const MaxPasses = 8

// Result is the outcome of reconciling one fragment. Text equals the
// fragment text when there are no changes, and is empty when the fragment
// is dropped.
type Result struct {
	Fragment   locate.Fragment
	Text       []byte
	Changes    []Change
	Unresolved []*UnresolvedRule
	Dropped    bool
}

func (r *Result) Modified() bool {
	return r.Dropped || len(r.Changes) != 0
}

// node is an element inserted during this pass.
type node struct {
	name  string
	value string
	in    *list
}

type list struct {
	nodes []*node
}

func (l *list) insert(i int, n *node) {
	n.in = l
	l.nodes = slices.Insert(l.nodes, i, n)
}

func (l *list) index(n *node) int {
	return slices.Index(l.nodes, n)
}

// slot holds the planned edits around one original child.
type slot struct {
	before  list
	after   list
	value   *string
	removed bool
}

type pass struct {
	id       string
	text     []byte
	tree     *locate.Tree
	slots    []slot
	tail     list
	inserted map[string]*node
	env      rule.Env
	changes  []Change
	warnings []*UnresolvedRule
}

// Reconcile applies t to frag until the text no longer changes. Each pass
// runs every rule in order; later passes let conditions see elements that
// later rules inserted. Changes are the net difference between frag and the
// final text, so an element added and removed again is not reported. Rules
// that cannot be resolved are reported in the result and skipped. A
// *FragmentError is returned when the fragment is structurally unsound or
// the rules keep changing it.
func Reconcile(frag locate.Fragment, t *rule.Table) (*Result, error) {
	if !t.Compiled() {
		if err := t.Compile(); err != nil {
			return nil, err
		}
	}
	res := &Result{Fragment: frag, Text: frag.Text}
	first, err := newPass(frag.ID, frag.Text, t)
	if err != nil {
		return nil, err
	}
	drop, err := t.Drops(first.env)
	if err != nil {
		res.Unresolved = []*UnresolvedRule{{Fragment: frag.ID, Rule: "drop", Reason: err.Error()}}
		return res, nil
	}
	if drop {
		res.Dropped = true
		res.Text = nil
		res.Changes = []Change{{Fragment: frag.ID, Op: OpDrop}}
		return res, nil
	}
	var log []Change
	p := first
	for i := 1; ; i++ {
		p.run(t)
		if len(p.changes) == 0 {
			break
		}
		next := p.emit()
		if err := p.verify(next); err != nil {
			return nil, err
		}
		if bytes.Equal(next, p.text) {
			break
		}
		if i == MaxPasses {
			return nil, &FragmentError{Fragment: frag.ID, Err: fmt.Errorf("%w after %d passes", ErrNoFixedPoint, MaxPasses)}
		}
		log = append(log, p.changes...)
		if p, err = newPass(frag.ID, next, t); err != nil {
			return nil, err
		}
	}
	res.Unresolved = p.warnings
	res.Changes = netChanges(frag.ID, first.tree, p.tree, log)
	if len(res.Changes) != 0 {
		res.Text = p.text
	}
	return res, nil
}

func newPass(id string, text []byte, t *rule.Table) (*pass, error) {
	tree, err := locate.Children(text)
	if err != nil {
		return nil, &FragmentError{Fragment: id, Err: fmt.Errorf("%w: %w", ErrStructuralCorruption, err)}
	}
	if err := check(id, tree, t); err != nil {
		return nil, err
	}
	return &pass{
		id:       id,
		text:     text,
		tree:     tree,
		slots:    make([]slot, len(tree.Children)),
		inserted: map[string]*node{},
		env:      rule.NewEnv(tree.Values(), id, locate.AttrMap(tree.Attrs)),
	}, nil
}

func (p *pass) run(t *rule.Table) {
	for _, r := range t.Rules {
		p.apply(r)
	}
}

// netChanges compares the children of from and to for every element the
// passes touched, in the order they were first touched.
func netChanges(id string, from, to *locate.Tree, log []Change) []Change {
	var res []Change
	seen := map[string]bool{}
	for i := range log {
		name := log[i].Element
		if seen[name] {
			continue
		}
		seen[name] = true
		a, b := child(from, name), child(to, name)
		switch {
		case a == nil && b == nil:
		case a == nil:
			v := b.Value()
			res = append(res, Change{Fragment: id, Element: name, Op: OpAdd, New: &v})
		case b == nil:
			v := a.Value()
			res = append(res, Change{Fragment: id, Element: name, Op: OpRemove, Old: &v})
		case a.Value() != b.Value() || a.SelfClosing != b.SelfClosing:
			old, v := a.Value(), b.Value()
			res = append(res, Change{Fragment: id, Element: name, Op: OpSet, Old: &old, New: &v})
		}
	}
	return res
}

func child(t *locate.Tree, name string) *locate.Child {
	if i := t.Index(name); i != -1 {
		return &t.Children[i]
	}
	return nil
}

func (p *pass) unresolved(r *rule.Rule, format string, args ...any) {
	u := &UnresolvedRule{Fragment: p.id, Rule: r.Key(), Reason: fmt.Sprintf(format, args...)}
	if debug.Reconcile() {
		debug.Logf("%s\n", u)
	}
	p.warnings = append(p.warnings, u)
}

func (p *pass) change(c Change) {
	c.Fragment = p.id
	if debug.Reconcile() {
		debug.Logf("%s %s\n", c.Op, c.String())
	}
	p.changes = append(p.changes, c)
}

// child returns the index of the live original child named name, or -1.
func (p *pass) child(name string) int {
	i := p.tree.Index(name)
	if i == -1 || p.slots[i].removed {
		return -1
	}
	return i
}

func (p *pass) present(name string) bool {
	return p.child(name) != -1 || p.inserted[name] != nil
}

func (p *pass) apply(r *rule.Rule) {
	ok, err := r.Applies(p.env)
	if err != nil {
		p.unresolved(r, "%v", err)
		return
	}
	if !ok {
		return
	}
	switch r.Kind {
	case rule.Require:
		p.require(r)
	case rule.Set:
		p.set(r)
	case rule.Remove:
		p.remove(r)
	}
}

func (p *pass) require(r *rule.Rule) {
	if p.present(r.Element) {
		return
	}
	v, ok, err := r.Resolve(p.env)
	if err != nil {
		p.unresolved(r, "%v", err)
		return
	}
	if !ok {
		p.unresolved(r, "no value for %s", r.Element)
		return
	}
	n := &node{name: r.Element, value: v}
	for _, a := range r.Anchors {
		if p.place(n, a) {
			p.inserted[n.name] = n
			p.env[n.name] = v
			p.change(Change{Element: n.name, Op: OpAdd, New: &v})
			return
		}
	}
	p.unresolved(r, "no anchor for %s present", r.Element)
}

// place links n into the list its anchor owns, reporting false when the
// anchor is absent.
func (p *pass) place(n *node, a rule.Anchor) bool {
	switch {
	case a.After != "":
		if m := p.inserted[a.After]; m != nil {
			m.in.insert(m.in.index(m)+1, n)
			return true
		}
		if i := p.child(a.After); i != -1 {
			l := &p.slots[i].after
			l.insert(len(l.nodes), n)
			return true
		}
	case a.Before != "":
		if m := p.inserted[a.Before]; m != nil {
			m.in.insert(m.in.index(m), n)
			return true
		}
		if i := p.child(a.Before); i != -1 {
			l := &p.slots[i].before
			l.insert(len(l.nodes), n)
			return true
		}
	case a.Last:
		if k := len(p.tree.Children); k != 0 {
			l := &p.slots[k-1].after
			l.insert(len(l.nodes), n)
			return true
		}
		if p.tree.CloseStart != -1 {
			p.tail.insert(len(p.tail.nodes), n)
			return true
		}
	}
	return false
}

func (p *pass) set(r *rule.Rule) {
	if !p.present(r.Element) {
		return
	}
	v, ok, err := r.Resolve(p.env)
	if err != nil {
		p.unresolved(r, "%v", err)
		return
	}
	if !ok {
		p.unresolved(r, "no value for %s", r.Element)
		return
	}
	if n := p.inserted[r.Element]; n != nil {
		if n.value == v {
			return
		}
		old := n.value
		n.value = v
		p.env[n.name] = v
		p.change(Change{Element: n.name, Op: OpSet, Old: &old, New: &v})
		return
	}
	i := p.child(r.Element)
	c := &p.tree.Children[i]
	if c.Elements != 0 {
		p.unresolved(r, "%s is not a leaf", r.Element)
		return
	}
	old := c.Value()
	if cur := p.slots[i].value; cur != nil {
		old = *cur
	}
	if old == v && (!c.SelfClosing || p.slots[i].value != nil) {
		return
	}
	p.slots[i].value = &v
	p.env[c.Name] = v
	p.change(Change{Element: c.Name, Op: OpSet, Old: &old, New: &v})
}

func (p *pass) remove(r *rule.Rule) {
	if n := p.inserted[r.Element]; n != nil {
		i := n.in.index(n)
		n.in.nodes = slices.Delete(n.in.nodes, i, i+1)
		delete(p.inserted, r.Element)
		delete(p.env, r.Element)
		old := n.value
		p.change(Change{Element: n.name, Op: OpRemove, Old: &old})
		return
	}
	i := p.child(r.Element)
	if i == -1 {
		return
	}
	c := &p.tree.Children[i]
	old := c.Value()
	if cur := p.slots[i].value; cur != nil {
		old = *cur
	}
	p.slots[i].removed = true
	delete(p.env, c.Name)
	p.change(Change{Element: c.Name, Op: OpRemove, Old: &old})
}

var escaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func (n *node) render(buf *bytes.Buffer) {
	fmt.Fprintf(buf, "<%s>%s</%s>", n.name, escaper.Replace(n.value), n.name)
}

func (p *pass) emit() []byte {
	text := p.text
	buf := &bytes.Buffer{}
	buf.Grow(len(text) + 64*len(p.changes))
	pos := 0
	for i := range p.tree.Children {
		c := &p.tree.Children[i]
		s := &p.slots[i]
		leadStart := c.Start - len(c.Lead)
		buf.Write(text[pos:leadStart])
		for _, n := range s.before.nodes {
			buf.WriteString(c.Lead)
			n.render(buf)
		}
		if !s.removed {
			buf.Write(text[leadStart:c.Start])
			if s.value != nil {
				writeValue(buf, text, c, *s.value)
			} else {
				buf.Write(text[c.Start:c.End])
			}
		}
		for _, n := range s.after.nodes {
			buf.WriteString(c.Lead)
			n.render(buf)
		}
		pos = c.End
	}
	if len(p.tail.nodes) != 0 {
		buf.Write(text[pos:p.tree.CloseStart])
		for _, n := range p.tail.nodes {
			n.render(buf)
		}
		pos = p.tree.CloseStart
	}
	buf.Write(text[pos:])
	return buf.Bytes()
}

// writeValue writes c with its content replaced by v, keeping the start tag
// as written.
func writeValue(buf *bytes.Buffer, text []byte, c *locate.Child, v string) {
	if !c.SelfClosing {
		buf.Write(text[c.Start:c.ContentStart])
		buf.WriteString(escaper.Replace(v))
		buf.Write(text[c.ContentEnd:c.End])
		return
	}
	tag := bytes.TrimRight(text[c.Start:c.End-2], " \t\r\n")
	buf.Write(tag)
	buf.WriteByte('>')
	buf.WriteString(escaper.Replace(v))
	fmt.Fprintf(buf, "</%s>", rawName(tag))
}

// rawName is the qualified name of a start tag, prefix included.
func rawName(tag []byte) string {
	name := tag[1:]
	if i := bytes.IndexAny(name, " \t\r\n/>"); i != -1 {
		name = name[:i]
	}
	return string(name)
}

// verify re-parses the corrected text and checks the root and every inserted
// element.
func (p *pass) verify(text []byte) error {
	tree, err := locate.Children(text)
	if err != nil {
		return corrupt(p.id, "corrected text does not parse: %v", err)
	}
	if tree.Name != p.tree.Name {
		return corrupt(p.id, "corrected root is %s, want %s", tree.Name, p.tree.Name)
	}
	for name := range p.inserted {
		if n := tree.Count(name); n != 1 {
			return corrupt(p.id, "inserted %s appears %d times as a direct child", name, n)
		}
	}
	return nil
}
