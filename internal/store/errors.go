package store

import (
	"errors"
	"fmt"
)

// Sentinel errors for the transfer engine. Callers match with errors.Is;
// messages carry enough context for a precise user-facing response.
var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrAlreadyCompleted  = errors.New("transfer already completed")
	ErrSameBranch        = errors.New("source and destination branch are the same")
	ErrEmptyBatch        = errors.New("batch contains no items")
	ErrBranchNotFound    = errors.New("branch not found")
	ErrBranchInactive    = errors.New("branch is not active")
	ErrVariantNotFound   = errors.New("variant not found")
	ErrTransferNotFound  = errors.New("transfer not found")
	ErrNotPermitted      = errors.New("acting branch may not perform this transition")
)

// TransitionError reports an event that is not legal from the current status.
type TransitionError struct {
	Status string
	Event  string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s a transfer in status %q", e.Event, e.Status)
}
