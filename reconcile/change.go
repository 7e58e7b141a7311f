package reconcile

import "fmt"

type Op string

const (
	OpAdd    Op = "add"
	OpSet    Op = "set"
	OpRemove Op = "remove"
	// OpDrop removes the whole fragment; Element is empty.
	OpDrop   Op = "drop"
)

// Change records one edit to a fragment. Old is nil for additions and New
// is nil for removals.
type Change struct {
	Fragment string
	Element  string
	Op       Op
	Old      *string
	New      *string
}

func (c *Change) String() string {
	if c.Op == OpDrop {
		return fmt.Sprintf("%s dropped", c.Fragment)
	}
	if c.New == nil {
		return fmt.Sprintf("%s: %s removed", c.Fragment, c.Element)
	}
	return fmt.Sprintf("%s: %s = %s", c.Fragment, c.Element, *c.New)
}
