package engine

import "fmt"

// Side names which half of the sync committed an effect.
type Side string

const (
	// SideRemote means the remote API call succeeded.
	SideRemote Side = "remote"
	// SideLocal means the local file write succeeded.
	SideLocal Side = "local"
)

// PartialApplyError reports that one side of a reconciliation committed
// and the other failed. It is logged prominently; the next pass's diff
// against the snapshot resolves the mismatch automatically, because the
// snapshot is only updated once both sides commit.
type PartialApplyError struct {
	Number    int
	Committed Side
	Err       error
}

// Error implements the error interface.
func (e *PartialApplyError) Error() string {
	return fmt.Sprintf("partial apply on issue #%d: %s side committed: %v",
		e.Number, e.Committed, e.Err)
}

// Unwrap returns the failure on the uncommitted side.
func (e *PartialApplyError) Unwrap() error {
	return e.Err
}
