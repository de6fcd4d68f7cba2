package model

import "time"

// Variant represents a sellable product configuration, the unit of stock tracking.
type Variant struct {
	ID         int64      `json:"id"`
	SKU        string     `json:"sku"`
	Name       string     `json:"name"`
	Attributes string     `json:"attributes,omitempty"`
	ImageMime  string     `json:"image_mime,omitempty"`
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
}

// Variant statuses.
const (
	VariantStatusActive       = "active"
	VariantStatusDiscontinued = "discontinued"
)
