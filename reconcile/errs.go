package reconcile

import (
	"errors"
	"fmt"
)

var (
	ErrUnresolvedRule       = errors.New("unresolved rule")
	ErrStructuralCorruption = errors.New("structural corruption")
	ErrNoFixedPoint         = errors.New("rules keep changing the fragment")
)

// UnresolvedRule is a warning: the rule was skipped for one fragment and the
// rest of the table still ran.
type UnresolvedRule struct {
	Fragment string
	Rule     string
	Reason   string
}

func (u *UnresolvedRule) Error() string {
	return fmt.Sprintf("%s: %s: %s", u.Fragment, u.Rule, u.Reason)
}

func (u *UnresolvedRule) Unwrap() error {
	return ErrUnresolvedRule
}

// FragmentError is a fatal problem with one fragment.
type FragmentError struct {
	Fragment string
	Err      error
}

func (e *FragmentError) Error() string {
	return fmt.Sprintf("fragment %s: %v", e.Fragment, e.Err)
}

func (e *FragmentError) Unwrap() error {
	return e.Err
}

func corrupt(frag, format string, args ...any) error {
	return &FragmentError{
		Fragment: frag,
		Err:      fmt.Errorf("%w: %s", ErrStructuralCorruption, fmt.Sprintf(format, args...)),
	}
}
