package locate

import (
	"errors"
	"fmt"
)

var (
	ErrBadSelector = errors.New("bad selector")
	ErrMalformed   = errors.New("malformed xml")

	errNoRoot        = errors.New("no root element")
	errMultipleRoots = errors.New("more than one root element")
)

// SyntaxError reports where tokenizing stopped. Fragment is the id of the
// fragment that was open at that point, if any.
type SyntaxError struct {
	Line     int
	Offset   int
	Fragment string
	Err      error
}

func (e *SyntaxError) Error() string {
	if e.Fragment != "" {
		return fmt.Sprintf("%s: line %d (in %s): %v", ErrMalformed, e.Line, e.Fragment, e.Err)
	}
	return fmt.Sprintf("%s: line %d: %v", ErrMalformed, e.Line, e.Err)
}

func (e *SyntaxError) Unwrap() []error {
	return []error{ErrMalformed, e.Err}
}
