package model

import "testing"

func TestNextStatusHappyPath(t *testing.T) {
	steps := []struct {
		status, event, want string
	}{
		{StatusPending, EventApprove, StatusApproved},
		{StatusApproved, EventShip, StatusInTransit},
		{StatusInTransit, EventComplete, StatusCompleted},
	}
	for _, s := range steps {
		next, ok := NextStatus(s.status, s.event)
		if !ok {
			t.Fatalf("expected %s -> %s to be legal", s.status, s.event)
		}
		if next != s.want {
			t.Errorf("%s(%s): expected %s, got %s", s.status, s.event, s.want, next)
		}
	}
}

func TestNextStatusShortcuts(t *testing.T) {
	// Completing directly from approved skips the optional ship step.
	if next, ok := NextStatus(StatusApproved, EventComplete); !ok || next != StatusCompleted {
		t.Errorf("expected approved -> complete -> completed, got %q, %v", next, ok)
	}

	// Cancelling is legal from pending and approved only.
	if _, ok := NextStatus(StatusPending, EventCancel); !ok {
		t.Error("expected cancel from pending to be legal")
	}
	if _, ok := NextStatus(StatusApproved, EventCancel); !ok {
		t.Error("expected cancel from approved to be legal")
	}
	if _, ok := NextStatus(StatusInTransit, EventCancel); ok {
		t.Error("expected cancel from in_transit to be illegal")
	}
}

func TestTerminalStatesAreClosed(t *testing.T) {
	terminals := []string{StatusCompleted, StatusRejected, StatusCancelled}
	events := []string{EventApprove, EventReject, EventShip, EventComplete, EventCancel}

	for _, status := range terminals {
		if !IsTerminal(status) {
			t.Errorf("expected %s to be terminal", status)
		}
		for _, event := range events {
			if _, ok := NextStatus(status, event); ok {
				t.Errorf("expected %s from %s to be illegal", event, status)
			}
		}
	}
}

func TestEventSides(t *testing.T) {
	receiver := []string{EventApprove, EventReject, EventComplete}
	for _, e := range receiver {
		if EventSide(e) != SideReceiver {
			t.Errorf("expected %s to belong to receiver", e)
		}
	}
	sender := []string{EventShip, EventCancel}
	for _, e := range sender {
		if EventSide(e) != SideSender {
			t.Errorf("expected %s to belong to sender", e)
		}
	}
}

func TestTransferValidate(t *testing.T) {
	valid := Transfer{VariantID: 1, FromBranchID: 1, ToBranchID: 2, Quantity: 5}
	if err := valid.Validate(); err != nil {
		t.Errorf("expected valid transfer, got %v", err)
	}

	cases := []Transfer{
		{VariantID: 0, FromBranchID: 1, ToBranchID: 2, Quantity: 5},
		{VariantID: 1, FromBranchID: 1, ToBranchID: 2, Quantity: 0},
		{VariantID: 1, FromBranchID: 1, ToBranchID: 2, Quantity: -3},
		{VariantID: 1, FromBranchID: 2, ToBranchID: 2, Quantity: 5},
		{VariantID: 1, FromBranchID: 0, ToBranchID: 2, Quantity: 5},
	}
	for i, c := range cases {
		if err := c.Validate(); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}
