package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/erazemk/prenos/internal/model"
	"github.com/erazemk/prenos/internal/store"
)

// InventoryHandler handles ledger endpoints.
type InventoryHandler struct {
	DB *sql.DB
}

type addStockRequest struct {
	VariantID int64 `json:"variant_id"`
	BranchID  int64 `json:"branch_id"`
	Quantity  int   `json:"quantity"`
}

type adjustStockRequest struct {
	VariantID int64  `json:"variant_id"`
	BranchID  int64  `json:"branch_id"`
	Delta     int    `json:"delta"`
	Notes     string `json:"notes"`
}

// List handles GET /api/inventory, returning every ledger row.
func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := store.ListLedger(r.Context(), h.DB)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list inventory")
		return
	}
	if entries == nil {
		entries = []model.LedgerEntry{}
	}
	jsonResponse(w, http.StatusOK, entries)
}

// AddStock handles POST /api/inventory/stock, receiving new stock into a
// branch from outside the system (e.g. supplier delivery).
func (h *InventoryHandler) AddStock(w http.ResponseWriter, r *http.Request) {
	var req addStockRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.VariantID <= 0 || req.BranchID <= 0 || req.Quantity <= 0 {
		jsonError(w, http.StatusBadRequest, "variant_id, branch_id, and a positive quantity are required")
		return
	}

	claims := GetClaims(r.Context())
	var userID *int64
	if claims != nil {
		userID = &claims.UserID
	}

	if err := store.AddStock(r.Context(), h.DB, req.VariantID, req.BranchID, req.Quantity, userID); err != nil {
		storeError(w, err)
		return
	}

	entry, err := store.GetLedgerEntry(r.Context(), h.DB, req.VariantID, req.BranchID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	slog.Info("stock added", "variant", req.VariantID, "branch", req.BranchID, "quantity", req.Quantity)
	jsonResponse(w, http.StatusOK, entry)
}

// AdjustStock handles POST /api/inventory/adjust, correcting on-hand counts
// after a physical recount. The adjustment can never cut into quantity that
// is reserved for pending transfers.
func (h *InventoryHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	var req adjustStockRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.VariantID <= 0 || req.BranchID <= 0 || req.Delta == 0 {
		jsonError(w, http.StatusBadRequest, "variant_id, branch_id, and a non-zero delta are required")
		return
	}

	claims := GetClaims(r.Context())
	var userID *int64
	if claims != nil {
		userID = &claims.UserID
	}

	if err := store.AdjustStock(r.Context(), h.DB, req.VariantID, req.BranchID, req.Delta, req.Notes, userID); err != nil {
		storeError(w, err)
		return
	}

	entry, err := store.GetLedgerEntry(r.Context(), h.DB, req.VariantID, req.BranchID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if entry == nil {
		// The adjustment emptied the row.
		entry = &model.LedgerEntry{VariantID: req.VariantID, BranchID: req.BranchID}
	}

	slog.Info("stock adjusted", "variant", req.VariantID, "branch", req.BranchID, "delta", req.Delta)
	jsonResponse(w, http.StatusOK, entry)
}
