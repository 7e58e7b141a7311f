package locate

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

// Child is a direct child element of a fragment. Offsets are relative to
// the fragment text.
type Child struct {
	Name  string
	Attrs []xml.Attr
	// Start is the offset of '<', End is just past the end tag.
	Start int
	End   int
	// Content is [ContentStart, ContentEnd); empty for self closing tags.
	ContentStart int
	ContentEnd   int
	// Lead is the whitespace immediately before Start.
	Lead        string
	Text        string
	SelfClosing bool
	Elements    int
}

// Value is the trimmed character data directly inside c.
func (c *Child) Value() string {
	return strings.TrimSpace(c.Text)
}

// Mixed reports whether c holds both text and elements, which is never the
// case for a well formed leaf value.
func (c *Child) Mixed() bool {
	return c.Elements > 0 && strings.TrimSpace(c.Text) != ""
}

// Tree is the shallow structure of a fragment: its root and the root's
// direct children.
type Tree struct {
	Name  string
	Attrs []xml.Attr
	// CloseStart is the offset of the root end tag, -1 if the root is self
	// closing.
	CloseStart int
	Children   []Child
}

// Index returns the index of the first child named name, or -1.
func (t *Tree) Index(name string) int {
	for i := range t.Children {
		if t.Children[i].Name == name {
			return i
		}
	}
	return -1
}

// Count returns how many direct children are named name.
func (t *Tree) Count(name string) int {
	n := 0
	for i := range t.Children {
		if t.Children[i].Name == name {
			n++
		}
	}
	return n
}

// Values maps each leaf child name to its value. The first occurrence wins.
func (t *Tree) Values() map[string]any {
	res := make(map[string]any, len(t.Children))
	for i := range t.Children {
		c := &t.Children[i]
		if c.Elements != 0 {
			continue
		}
		if _, present := res[c.Name]; present {
			continue
		}
		res[c.Name] = c.Value()
	}
	return res
}

// Children parses one fragment into a Tree.
func Children(text []byte) (*Tree, error) {
	dec := newDecoder(text)
	tree := &Tree{CloseStart: -1}
	depth := 0
	var cur *Child
	for {
		off := int(dec.InputOffset())
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, syntaxError(dec, 0, err, nil)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			switch depth {
			case 1:
				if tree.Name != "" {
					return nil, syntaxError(dec, 0, errMultipleRoots, nil)
				}
				t = t.Copy()
				tree.Name = t.Name.Local
				tree.Attrs = t.Attr
			case 2:
				tree.Children = append(tree.Children, Child{
					Name:         t.Name.Local,
					Attrs:        t.Copy().Attr,
					Start:        off,
					ContentStart: int(dec.InputOffset()),
					Lead:         leadingSpace(text, off),
				})
				cur = &tree.Children[len(tree.Children)-1]
			case 3:
				cur.Elements++
			}
		case xml.EndElement:
			end := int(dec.InputOffset())
			switch depth {
			case 1:
				if end != off {
					tree.CloseStart = off
				}
			case 2:
				if end == off {
					cur.SelfClosing = true
					cur.ContentEnd = cur.ContentStart
				} else {
					cur.ContentEnd = off
				}
				cur.End = end
				cur = nil
			}
			depth--
		case xml.CharData:
			if depth == 2 {
				cur.Text += string(t)
			}
		}
	}
	if tree.Name == "" {
		return nil, syntaxError(dec, 0, errNoRoot, nil)
	}
	return tree, nil
}

func leadingSpace(text []byte, off int) string {
	i := off
	for i > 0 {
		switch text[i-1] {
		case ' ', '\t', '\r', '\n':
			i--
			continue
		}
		break
	}
	return string(text[i:off])
}
