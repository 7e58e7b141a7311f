package batch

import (
	"bufio"
	"fmt"
	"io"

	"github.com/signadot/xmlreconcile/libdiff"
)

type Report struct {
	DryRun bool
	Docs   []*DocResult
}

// Failed reports whether any document was rejected.
func (r *Report) Failed() bool {
	for _, d := range r.Docs {
		if d.State == Rejected {
			return true
		}
	}
	return false
}

// Changes counts the changes over all documents.
func (r *Report) Changes() int {
	n := 0
	for _, d := range r.Docs {
		n += len(d.Changes)
	}
	return n
}

// WriteLines writes one line per change, in the form
//
//	<document>.<field-id>: <element> = <value>
//
// "<document>.<field-id>: <element> removed" for removals and
// "<document>.<field-id> dropped" for fragments removed whole. Changes of
// rejected documents are not listed since they were not applied.
func (r *Report) WriteLines(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, d := range r.Docs {
		if d.State == Rejected {
			continue
		}
		for i := range d.Changes {
			fmt.Fprintf(bw, "%s.%s\n", d.Name, d.Changes[i].String())
		}
	}
	return bw.Flush()
}

// WriteSummary writes the per document counts, warnings and errors. colors
// may be nil.
func (r *Report) WriteSummary(w io.Writer, colors *Colors) error {
	bw := bufio.NewWriter(w)
	counts := map[State]int{}
	for _, d := range r.Docs {
		counts[d.State]++
		fmt.Fprintf(bw, "%s [%s] found %d, modified %d, skipped %d, unresolved %d",
			d.Path, colors.state(d.State), d.Found, d.Modified, d.Skipped, d.Unresolved)
		if d.Dropped != 0 {
			fmt.Fprintf(bw, ", dropped %d", d.Dropped)
		}
		bw.WriteString("\n")
		for _, u := range d.Warnings {
			fmt.Fprintf(bw, "  %s %s\n", colors.warn("warning:"), u)
		}
		if d.Err != nil {
			fmt.Fprintf(bw, "  %s %v\n", colors.err("error:"), d.Err)
		}
	}
	fmt.Fprintf(bw, "%d documents, %d changes:", len(r.Docs), r.Changes())
	for _, s := range []State{Written, Validated, Rejected} {
		if counts[s] != 0 {
			fmt.Fprintf(bw, " %d %s", counts[s], colors.state(s))
		}
	}
	if r.DryRun {
		bw.WriteString(" (dry run)")
	}
	bw.WriteString("\n")
	return bw.Flush()
}

// WriteDiff writes a unified diff of every document that was rewritten, or
// would have been in a dry run.
func (r *Report) WriteDiff(w io.Writer, colors *libdiff.Colors) error {
	for _, d := range r.Docs {
		if d.After == nil || d.State == Rejected {
			continue
		}
		if err := libdiff.Unified(w, d.Path, d.Before, d.After, libdiff.UnifiedColors(colors)); err != nil {
			return err
		}
	}
	return nil
}
