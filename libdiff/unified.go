package libdiff

import (
	"bufio"
	"io"
)

type unifiedOpts struct {
	context int
	colors  *Colors
}

type UnifiedOption func(*unifiedOpts)

// Context sets the number of unchanged lines shown around changes; the
// default is 3.
func Context(n int) UnifiedOption {
	return func(o *unifiedOpts) { o.context = n }
}

func UnifiedColors(c *Colors) UnifiedOption {
	return func(o *unifiedOpts) { o.colors = c }
}

// Unified writes the diff of from and to as a unified diff of path. Nothing
// is written when they are equal.
func Unified(w io.Writer, path string, from, to []byte, opts ...UnifiedOption) error {
	o := &unifiedOpts{context: 3}
	for _, opt := range opts {
		opt(o)
	}
	hunks := Hunks(Lines(string(from), string(to)), o.context)
	if len(hunks) == 0 {
		return nil
	}
	bw := bufio.NewWriter(w)
	c := o.colors
	bw.WriteString(c.Color(FileColor, "--- a/"+path) + "\n")
	bw.WriteString(c.Color(FileColor, "+++ b/"+path) + "\n")
	for i := range hunks {
		h := &hunks[i]
		bw.WriteString(c.Color(HunkColor, h.Header()) + "\n")
		for _, l := range h.Lines {
			switch l.Op {
			case Equal:
				bw.WriteString(" " + l.Text + "\n")
			case Delete:
				bw.WriteString(c.Color(DeleteColor, "-"+l.Text) + "\n")
			case Insert:
				bw.WriteString(c.Color(InsertColor, "+"+l.Text) + "\n")
			}
		}
	}
	return bw.Flush()
}
