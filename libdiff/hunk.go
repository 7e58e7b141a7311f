package libdiff

import "fmt"

// Hunk is a run of changed lines with surrounding context. Line numbers are
// 1-based.
type Hunk struct {
	FromLine, FromCount int
	ToLine, ToCount     int
	Lines               []Line
}

func (h *Hunk) Header() string {
	from, to := h.FromLine, h.ToLine
	if h.FromCount == 0 {
		from--
	}
	if h.ToCount == 0 {
		to--
	}
	return fmt.Sprintf("@@ -%d,%d +%d,%d @@", from, h.FromCount, to, h.ToCount)
}

// Hunks groups lines into hunks carrying up to context unchanged lines on
// each side. Changes separated by at most 2*context unchanged lines share a
// hunk.
func Hunks(lines []Line, context int) []Hunk {
	fromNo := make([]int, len(lines))
	toNo := make([]int, len(lines))
	f, t := 1, 1
	for i := range lines {
		fromNo[i], toNo[i] = f, t
		switch lines[i].Op {
		case Equal:
			f++
			t++
		case Delete:
			f++
		case Insert:
			t++
		}
	}
	next := func(i int) int {
		for ; i < len(lines); i++ {
			if lines[i].Op != Equal {
				return i
			}
		}
		return -1
	}

	var res []Hunk
	i := 0
	for {
		c := next(i)
		if c == -1 {
			break
		}
		start := max(c-context, i)
		end := c + 1
		for {
			n := next(end)
			if n == -1 || n-end > 2*context {
				break
			}
			end = n + 1
		}
		end = min(end+context, len(lines))
		h := Hunk{FromLine: fromNo[start], ToLine: toNo[start], Lines: lines[start:end]}
		for j := range h.Lines {
			switch h.Lines[j].Op {
			case Equal:
				h.FromCount++
				h.ToCount++
			case Delete:
				h.FromCount++
			case Insert:
				h.ToCount++
			}
		}
		res = append(res, h)
		i = end
	}
	return res
}
