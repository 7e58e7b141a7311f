// Package rewrite splices corrected fragments back into their document,
// validates the result and commits it to disk.
package rewrite

import (
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/signadot/xmlreconcile/debug"
	"github.com/signadot/xmlreconcile/locate"
)

// Replacement swaps the span of Fragment for Text.
type Replacement struct {
	Fragment locate.Fragment
	Text     []byte
}

// Drop returns the replacement deleting f from doc, together with the
// indentation and line break in front of it when f starts its line.
func Drop(doc []byte, f locate.Fragment) Replacement {
	start := f.Start
	for start > 0 && (doc[start-1] == ' ' || doc[start-1] == '\t') {
		start--
	}
	switch {
	case start > 0 && doc[start-1] == '\n':
		start--
		if start > 0 && doc[start-1] == '\r' {
			start--
		}
	case start > 0:
		start = f.Start
	}
	f.Text = doc[start:f.End]
	f.Start = start
	return Replacement{Fragment: f}
}

func (r *Replacement) delta() int {
	return len(r.Text) - (r.Fragment.End - r.Fragment.Start)
}

// Rewrite applies repls to doc from the highest start offset down, so no
// pending offset moves, and checks the output is well formed. doc is not
// modified.
func Rewrite(doc []byte, repls []Replacement) ([]byte, error) {
	sorted := slices.Clone(repls)
	slices.SortFunc(sorted, func(a, b Replacement) int {
		return cmp.Compare(b.Fragment.Start, a.Fragment.Start)
	})
	for i := range sorted {
		f := &sorted[i].Fragment
		if f.Start < 0 || f.End > len(doc) || f.Start > f.End || !bytes.Equal(doc[f.Start:f.End], f.Text) {
			return nil, fmt.Errorf("%w: %s", ErrStale, f)
		}
		if i > 0 && f.End > sorted[i-1].Fragment.Start {
			return nil, fmt.Errorf("%w: %s and %s", ErrOverlap, f, &sorted[i-1].Fragment)
		}
	}
	for i := range sorted {
		if len(sorted[i].Text) == 0 {
			continue
		}
		if err := locate.WellFormed(sorted[i].Text); err != nil {
			return nil, &ValidationError{Fragment: sorted[i].Fragment.ID, Err: err}
		}
	}
	out := slices.Clone(doc)
	for i := range sorted {
		r := &sorted[i]
		out = slices.Concat(out[:r.Fragment.Start], r.Text, out[r.Fragment.End:])
		if debug.Rewrite() {
			debug.Logf("splice %s: %+d bytes\n", &r.Fragment, r.delta())
		}
	}
	if err := locate.WellFormed(out); err != nil {
		return nil, &ValidationError{Fragment: culprit(sorted, err), Err: err}
	}
	return out, nil
}

// culprit maps a syntax error in the rewritten document back to the
// replacement whose new span holds it. sorted is in descending order.
func culprit(sorted []Replacement, err error) string {
	var sErr *locate.SyntaxError
	if !errors.As(err, &sErr) {
		return ""
	}
	shift := 0
	for i := len(sorted) - 1; i >= 0; i-- {
		r := &sorted[i]
		start := r.Fragment.Start + shift
		end := start + len(r.Text)
		if sErr.Offset >= start && sErr.Offset <= end {
			return r.Fragment.ID
		}
		shift += r.delta()
	}
	return ""
}
