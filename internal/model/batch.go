package model

import "time"

// Batch correlates transfers created together in one request. A batch has no
// status of its own; its state is the aggregate of its members' statuses.
type Batch struct {
	ID        string    `json:"id"`
	Note      string    `json:"note,omitempty"`
	CreatedBy *int64    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
