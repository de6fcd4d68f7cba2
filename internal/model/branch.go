package model

import "time"

// Branch represents a physical store location holding its own inventory.
type Branch struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	City      string     `json:"city,omitempty"`
	Active    bool       `json:"active"`
	CreatedAt time.Time  `json:"created_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}
