package locate

import (
	"encoding/xml"
	"fmt"
	"path"
)

// Selector picks fragments by element name and, optionally, by a glob over
// the value of an identifying attribute.
type Selector struct {
	Element string `yaml:"element" json:"element"`
	IDAttr  string `yaml:"idAttr,omitempty" json:"idAttr,omitempty"`
	Match   string `yaml:"match,omitempty" json:"match,omitempty"`
}

func (s Selector) String() string {
	if s.IDAttr == "" {
		return "<" + s.Element + ">"
	}
	m := s.Match
	if m == "" {
		m = "*"
	}
	return fmt.Sprintf("<%s %s=%q>", s.Element, s.IDAttr, m)
}

func (s Selector) Check() error {
	if s.Element == "" {
		return fmt.Errorf("%w: no element", ErrBadSelector)
	}
	if s.Match != "" && s.IDAttr == "" {
		return fmt.Errorf("%w: match %q needs idAttr", ErrBadSelector, s.Match)
	}
	if _, err := path.Match(s.Match, ""); err != nil {
		return fmt.Errorf("%w: match %q: %w", ErrBadSelector, s.Match, err)
	}
	return nil
}

// id returns the fragment identifier for start, the i'th element with the
// selected name, and whether start is selected at all.
func (s Selector) id(start xml.StartElement, i int) (string, bool) {
	if start.Name.Local != s.Element {
		return "", false
	}
	fallback := fmt.Sprintf("%s[%d]", s.Element, i)
	if s.IDAttr == "" {
		return fallback, true
	}
	v, ok := attrValue(start.Attr, s.IDAttr)
	if s.Match == "" {
		if !ok {
			return fallback, true
		}
		return v, true
	}
	if !ok {
		return "", false
	}
	matched, _ := path.Match(s.Match, v)
	return v, matched
}

func attrValue(attrs []xml.Attr, name string) (string, bool) {
	for _, a := range attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// AttrMap flattens attributes to local name -> value.
func AttrMap(attrs []xml.Attr) map[string]any {
	res := make(map[string]any, len(attrs))
	for _, a := range attrs {
		res[a.Name.Local] = a.Value
	}
	return res
}
