package model

// LedgerEntry represents the stock counters of one variant at one branch.
// Reserved stock is counted as on-hand but committed to in-flight transfers,
// so available = quantity - reserved is what can actually be sold or moved.
type LedgerEntry struct {
	VariantID int64 `json:"variant_id"`
	BranchID  int64 `json:"branch_id"`
	Quantity  int   `json:"quantity"`
	Reserved  int   `json:"reserved"`
	Available int   `json:"available"`

	// Joined fields (not always populated).
	VariantSKU  string `json:"variant_sku,omitempty"`
	VariantName string `json:"variant_name,omitempty"`
	BranchName  string `json:"branch_name,omitempty"`
}
