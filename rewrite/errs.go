package rewrite

import (
	"errors"
	"fmt"
)

var (
	ErrRewriteValidationFailed = errors.New("rewrite validation failed")
	ErrOverlap                 = errors.New("overlapping replacements")
	ErrStale                   = errors.New("stale fragment offsets")
	ErrChangedOnDisk           = errors.New("document changed on disk")
)

// ValidationError means the rewritten document is not well formed. Fragment
// names the replacement at fault when it can be told.
type ValidationError struct {
	Fragment string
	Err      error
}

func (e *ValidationError) Error() string {
	if e.Fragment == "" {
		return fmt.Sprintf("%s: %v", ErrRewriteValidationFailed, e.Err)
	}
	return fmt.Sprintf("%s in %s: %v", ErrRewriteValidationFailed, e.Fragment, e.Err)
}

func (e *ValidationError) Unwrap() []error {
	return []error{ErrRewriteValidationFailed, e.Err}
}
