package batch

// State is where a document is in its pass through the driver. Written,
// Validated and Rejected are terminal; Validated is terminal when there was
// nothing to write or the run was a dry run.
type State int

const (
	Unprocessed State = iota
	Located
	Reconciled
	Validated
	Written
	Rejected
)

func (s State) String() string {
	switch s {
	case Unprocessed:
		return "unprocessed"
	case Located:
		return "located"
	case Reconciled:
		return "reconciled"
	case Validated:
		return "validated"
	case Written:
		return "written"
	case Rejected:
		return "rejected"
	}
	return "unknown"
}
