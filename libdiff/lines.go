// Package libdiff computes line diffs of documents and prints them in
// unified format.
package libdiff

import (
	"strings"

	diffpatch "github.com/sergi/go-diff/diffmatchpatch"
)

type Op = diffpatch.Operation

const (
	Equal  = diffpatch.DiffEqual
	Delete = diffpatch.DiffDelete
	Insert = diffpatch.DiffInsert
)

type Line struct {
	Op   Op
	Text string
}

// Lines diffs from and to line by line. Each distinct line is mapped to a
// rune and the rune sequences are diffed, so matching is on whole lines.
func Lines(from, to string) []Line {
	m := map[string]rune{}
	fromLines, toLines := split(from), split(to)
	fromRunes := mapLines(m, fromLines)
	toRunes := mapLines(m, toLines)
	diffs := diffpatch.New().DiffMainRunes(fromRunes, toRunes, false)

	res := make([]Line, 0, max(len(fromLines), len(toLines)))
	fi, ti := 0, 0
	for i := range diffs {
		diff := &diffs[i]
		for range []rune(diff.Text) {
			switch diff.Type {
			case diffpatch.DiffEqual:
				res = append(res, Line{Op: Equal, Text: fromLines[fi]})
				fi++
				ti++
			case diffpatch.DiffDelete:
				res = append(res, Line{Op: Delete, Text: fromLines[fi]})
				fi++
			case diffpatch.DiffInsert:
				res = append(res, Line{Op: Insert, Text: toLines[ti]})
				ti++
			}
		}
	}
	return res
}

func split(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

func mapLines(m map[string]rune, lines []string) []rune {
	rs := make([]rune, len(lines))
	for i, l := range lines {
		r, ok := m[l]
		if !ok {
			r = rune(len(m))
			m[l] = r
		}
		rs[i] = r
	}
	return rs
}

// Stat counts inserted and deleted lines.
func Stat(lines []Line) (ins, del int) {
	for i := range lines {
		switch lines[i].Op {
		case Insert:
			ins++
		case Delete:
			del++
		}
	}
	return
}
