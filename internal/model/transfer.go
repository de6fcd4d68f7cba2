package model

import (
	"fmt"
	"time"
)

// Transfer represents a single unit of stock movement between two branches.
// Identity fields (variant, branches, quantity) are fixed at creation; only
// the status and its associated timestamps change afterwards.
type Transfer struct {
	ID           int64      `json:"id"`
	BatchID      *string    `json:"batch_id,omitempty"`
	VariantID    int64      `json:"variant_id"`
	FromBranchID int64      `json:"from_branch_id"`
	ToBranchID   int64      `json:"to_branch_id"`
	Quantity     int        `json:"quantity"`
	Status       string     `json:"status"`
	Notes        string     `json:"notes,omitempty"`
	Reason       string     `json:"reason,omitempty"`
	RequestedAt  time.Time  `json:"requested_at"`
	RequestedBy  *int64     `json:"requested_by,omitempty"`
	ApprovedAt   *time.Time `json:"approved_at,omitempty"`
	ApprovedBy   *int64     `json:"approved_by,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`

	// Joined fields (not always populated).
	VariantSKU     string `json:"variant_sku,omitempty"`
	VariantName    string `json:"variant_name,omitempty"`
	FromBranchName string `json:"from_branch_name,omitempty"`
	ToBranchName   string `json:"to_branch_name,omitempty"`
}

// Transfer statuses.
const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusInTransit = "in_transit"
	StatusCompleted = "completed"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
)

// Transfer events. The receiving branch approves, rejects and completes;
// the sending branch ships and cancels.
const (
	EventApprove  = "approve"
	EventReject   = "reject"
	EventShip     = "ship"
	EventComplete = "complete"
	EventCancel   = "cancel"
)

// Sides of a transfer, used for event permission checks.
const (
	SideSender   = "sender"
	SideReceiver = "receiver"
)

// transitions maps current status -> event -> next status. Completing is
// legal from both approved and in_transit: shipping is an optional signal,
// not a mandatory step.
var transitions = map[string]map[string]string{
	StatusPending: {
		EventApprove: StatusApproved,
		EventReject:  StatusRejected,
		EventCancel:  StatusCancelled,
	},
	StatusApproved: {
		EventShip:     StatusInTransit,
		EventComplete: StatusCompleted,
		EventCancel:   StatusCancelled,
	},
	StatusInTransit: {
		EventComplete: StatusCompleted,
	},
}

// eventSides maps each event to the side of the transfer allowed to trigger it.
var eventSides = map[string]string{
	EventApprove:  SideReceiver,
	EventReject:   SideReceiver,
	EventComplete: SideReceiver,
	EventShip:     SideSender,
	EventCancel:   SideSender,
}

// NextStatus returns the status a transfer moves to when event is applied to
// the current status. The second return value is false for illegal transitions.
func NextStatus(status, event string) (string, bool) {
	next, ok := transitions[status][event]
	return next, ok
}

// EventSide returns which side of the transfer may trigger the event.
func EventSide(event string) string {
	return eventSides[event]
}

// IsTerminal reports whether the status permits no further transitions.
func IsTerminal(status string) bool {
	switch status {
	case StatusCompleted, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// ValidStatus reports whether s is a known transfer status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusApproved, StatusInTransit,
		StatusCompleted, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// Validate checks the identity fields of a transfer before it is persisted.
func (t *Transfer) Validate() error {
	if t.VariantID <= 0 {
		return fmt.Errorf("variant required")
	}
	if t.Quantity <= 0 {
		return fmt.Errorf("quantity must be positive")
	}
	if t.FromBranchID <= 0 || t.ToBranchID <= 0 {
		return fmt.Errorf("source and destination branch required")
	}
	if t.FromBranchID == t.ToBranchID {
		return fmt.Errorf("source and destination branch must differ")
	}
	return nil
}
