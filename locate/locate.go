// Package locate finds fragments of an XML document by tag matching and
// reports their byte spans, so callers can rewrite them in place without
// disturbing anything else.
package locate

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"github.com/signadot/xmlreconcile/debug"
)

// Fragment is one selected element of a document, from the '<' of its start
// tag to the '>' of its matching end tag. Start and End are byte offsets in
// the document it was located in; they are stale after any rewrite.
type Fragment struct {
	Name  string
	ID    string
	Attrs []xml.Attr
	Start int
	End   int
	Line  int
	Text  []byte
}

func (f *Fragment) String() string {
	return fmt.Sprintf("%s@%d", f.ID, f.Line)
}

var bom = []byte("\xef\xbb\xbf")

func bomLen(data []byte) int {
	if bytes.HasPrefix(data, bom) {
		return len(bom)
	}
	return 0
}

func newDecoder(data []byte) *xml.Decoder {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = true
	return dec
}

// Locate returns the fragments of doc selected by sel, in document order.
// A selected element nested in another selected element is part of the
// outer fragment. No match is not an error: the result is empty.
func Locate(doc []byte, sel Selector) ([]Fragment, error) {
	if err := sel.Check(); err != nil {
		return nil, err
	}
	base := bomLen(doc)
	dec := newDecoder(doc[base:])
	var (
		res       []Fragment
		open      *Fragment
		depth     int
		openDepth int
		seen      int
	)
	for {
		off := int(dec.InputOffset())
		line, _ := dec.InputPos()
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, syntaxError(dec, base, err, open)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if open != nil || t.Name.Local != sel.Element {
				continue
			}
			id, ok := sel.id(t, seen)
			seen++
			if !ok {
				continue
			}
			open = &Fragment{
				Name:  t.Name.Local,
				ID:    id,
				Attrs: t.Copy().Attr,
				Start: base + off,
				Line:  line,
			}
			openDepth = depth
		case xml.EndElement:
			if open != nil && depth == openDepth {
				open.End = base + int(dec.InputOffset())
				open.Text = doc[open.Start:open.End]
				if debug.Locate() {
					debug.Logf("locate %s: %s [%d,%d)\n", sel, open.ID, open.Start, open.End)
				}
				res = append(res, *open)
				open = nil
			}
			depth--
		}
	}
	if open != nil {
		return nil, syntaxError(dec, base, io.ErrUnexpectedEOF, open)
	}
	return res, nil
}

func syntaxError(dec *xml.Decoder, base int, err error, open *Fragment) *SyntaxError {
	line, _ := dec.InputPos()
	var xErr *xml.SyntaxError
	if errors.As(err, &xErr) {
		line = xErr.Line
		err = errors.New(xErr.Msg)
	}
	res := &SyntaxError{
		Line:   line,
		Offset: base + int(dec.InputOffset()),
		Err:    err,
	}
	if open != nil {
		res.Fragment = open.ID
	}
	return res
}

// WellFormed tokenizes all of data and checks it has exactly one root.
func WellFormed(data []byte) error {
	base := bomLen(data)
	dec := newDecoder(data[base:])
	roots, depth := 0, 0
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return syntaxError(dec, base, err, nil)
		}
		switch tok.(type) {
		case xml.StartElement:
			if depth == 0 {
				roots++
				if roots > 1 {
					return syntaxError(dec, base, errMultipleRoots, nil)
				}
			}
			depth++
		case xml.EndElement:
			depth--
		}
	}
	if roots == 0 {
		return syntaxError(dec, base, errNoRoot, nil)
	}
	return nil
}
