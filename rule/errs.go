package rule

import "errors"

var (
	ErrBadRule     = errors.New("bad rule")
	ErrNoSuchTable = errors.New("no such rule table")
	ErrTableExists = errors.New("rule table exists")
	ErrEval        = errors.New("rule evaluation error")
)
