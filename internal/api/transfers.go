package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/prenos/internal/model"
	"github.com/erazemk/prenos/internal/store"
)

// TransfersHandler handles transfer lifecycle endpoints.
type TransfersHandler struct {
	DB *sql.DB
}

type createTransferRequest struct {
	FromBranchID int64  `json:"from_branch_id"`
	ToBranchID   int64  `json:"to_branch_id"`
	VariantID    int64  `json:"variant_id"`
	Quantity     int    `json:"quantity"`
	Notes        string `json:"notes"`
}

type createBatchRequest struct {
	FromBranchID int64             `json:"from_branch_id"`
	ToBranchID   int64             `json:"to_branch_id"`
	Items        []store.BatchItem `json:"items"`
	Notes        string            `json:"notes"`
}

type transitionRequest struct {
	Reason string `json:"reason"`
}

type bulkRequest struct {
	IDs    []int64 `json:"ids"`
	Reason string  `json:"reason"`
}

// bulkResult is the per-item outcome of a bulk transition. A failed item
// never aborts the remaining ones.
type bulkResult struct {
	ID       int64           `json:"id"`
	OK       bool            `json:"ok"`
	Error    string          `json:"error,omitempty"`
	Transfer *model.Transfer `json:"transfer,omitempty"`
}

// actorBranch resolves the authenticated user's acting branch. Transfer
// transitions always act for an explicit branch, never ambient state.
func actorBranch(w http.ResponseWriter, r *http.Request) (int64, *int64, bool) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return 0, nil, false
	}
	if claims.BranchID == 0 {
		jsonError(w, http.StatusForbidden, "user has no branch assigned")
		return 0, nil, false
	}
	userID := claims.UserID
	return claims.BranchID, &userID, true
}

// Create handles POST /api/transfers.
func (h *TransfersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTransferRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.FromBranchID <= 0 || req.ToBranchID <= 0 || req.VariantID <= 0 || req.Quantity <= 0 {
		jsonError(w, http.StatusBadRequest, "from_branch_id, to_branch_id, variant_id, and quantity are required and must be positive")
		return
	}

	claims := GetClaims(r.Context())
	var userID *int64
	if claims != nil {
		userID = &claims.UserID
	}

	transfer, err := store.CreateTransfer(r.Context(), h.DB, req.FromBranchID, req.ToBranchID, req.VariantID, req.Quantity, userID, req.Notes)
	if err != nil {
		storeError(w, err)
		return
	}

	slog.Info("transfer created", "user", claims.Username,
		"variant", transfer.VariantSKU, "quantity", transfer.Quantity,
		"from", transfer.FromBranchName, "to", transfer.ToBranchName)
	jsonResponse(w, http.StatusCreated, transfer)
}

// CreateBatch handles POST /api/transfers/batch.
func (h *TransfersHandler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	var req createBatchRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.FromBranchID <= 0 || req.ToBranchID <= 0 {
		jsonError(w, http.StatusBadRequest, "from_branch_id and to_branch_id are required")
		return
	}

	claims := GetClaims(r.Context())
	var userID *int64
	if claims != nil {
		userID = &claims.UserID
	}

	batch, transfers, err := store.CreateTransferBatch(r.Context(), h.DB, req.FromBranchID, req.ToBranchID, req.Items, userID, req.Notes)
	if err != nil {
		storeError(w, err)
		return
	}

	slog.Info("transfer batch created", "user", claims.Username, "batch", batch.ID,
		"items", len(transfers), "from", req.FromBranchID, "to", req.ToBranchID)
	jsonResponse(w, http.StatusCreated, map[string]any{
		"batch":     batch,
		"transfers": transfers,
	})
}

// Approve handles POST /api/transfers/{id}/approve.
func (h *TransfersHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, model.EventApprove)
}

// Reject handles POST /api/transfers/{id}/reject.
func (h *TransfersHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, model.EventReject)
}

// Ship handles POST /api/transfers/{id}/ship.
func (h *TransfersHandler) Ship(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, model.EventShip)
}

// Complete handles POST /api/transfers/{id}/complete.
func (h *TransfersHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, model.EventComplete)
}

// Cancel handles POST /api/transfers/{id}/cancel.
func (h *TransfersHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, model.EventCancel)
}

func (h *TransfersHandler) transition(w http.ResponseWriter, r *http.Request, event string) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid transfer id")
		return
	}

	var req transitionRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			jsonError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	branchID, userID, ok := actorBranch(w, r)
	if !ok {
		return
	}

	transfer, err := applyEvent(r, h.DB, id, event, branchID, userID, req.Reason)
	if err != nil {
		storeError(w, err)
		return
	}

	slog.Info("transfer transitioned", "id", transfer.ID, "event", event,
		"status", transfer.Status, "branch", branchID)
	jsonResponse(w, http.StatusOK, transfer)
}

// BulkApprove handles POST /api/transfers/bulk/approve.
func (h *TransfersHandler) BulkApprove(w http.ResponseWriter, r *http.Request) {
	h.bulk(w, r, model.EventApprove)
}

// BulkReject handles POST /api/transfers/bulk/reject.
func (h *TransfersHandler) BulkReject(w http.ResponseWriter, r *http.Request) {
	h.bulk(w, r, model.EventReject)
}

// BulkShip handles POST /api/transfers/bulk/ship.
func (h *TransfersHandler) BulkShip(w http.ResponseWriter, r *http.Request) {
	h.bulk(w, r, model.EventShip)
}

// BulkComplete handles POST /api/transfers/bulk/complete.
func (h *TransfersHandler) BulkComplete(w http.ResponseWriter, r *http.Request) {
	h.bulk(w, r, model.EventComplete)
}

// BulkCancel handles POST /api/transfers/bulk/cancel.
func (h *TransfersHandler) BulkCancel(w http.ResponseWriter, r *http.Request) {
	h.bulk(w, r, model.EventCancel)
}

// bulk applies one event to a selected set of transfers and reports per-item
// outcomes.
func (h *TransfersHandler) bulk(w http.ResponseWriter, r *http.Request, event string) {
	var req bulkRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.IDs) == 0 {
		jsonError(w, http.StatusBadRequest, "ids required")
		return
	}

	branchID, userID, ok := actorBranch(w, r)
	if !ok {
		return
	}

	results := make([]bulkResult, 0, len(req.IDs))
	for _, id := range req.IDs {
		transfer, err := applyEvent(r, h.DB, id, event, branchID, userID, req.Reason)
		if err != nil {
			results = append(results, bulkResult{ID: id, OK: false, Error: err.Error()})
			continue
		}
		results = append(results, bulkResult{ID: id, OK: true, Transfer: transfer})
	}

	slog.Info("bulk transition", "event", event, "branch", branchID, "items", len(results))
	jsonResponse(w, http.StatusOK, results)
}

func applyEvent(r *http.Request, db *sql.DB, id int64, event string, branchID int64, userID *int64, reason string) (*model.Transfer, error) {
	ctx := r.Context()
	switch event {
	case model.EventApprove:
		return store.ApproveTransfer(ctx, db, id, branchID, userID)
	case model.EventReject:
		return store.RejectTransfer(ctx, db, id, branchID, userID, reason)
	case model.EventShip:
		return store.ShipTransfer(ctx, db, id, branchID, userID)
	case model.EventComplete:
		return store.CompleteTransfer(ctx, db, id, branchID, userID)
	default:
		return store.CancelTransfer(ctx, db, id, branchID, userID, reason)
	}
}

// Get handles GET /api/transfers/{id}.
func (h *TransfersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid transfer id")
		return
	}

	transfer, err := store.GetTransfer(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get transfer")
		return
	}
	if transfer == nil {
		jsonError(w, http.StatusNotFound, "transfer not found")
		return
	}
	jsonResponse(w, http.StatusOK, transfer)
}

// List handles GET /api/transfers. The scope branch defaults to the caller's
// home branch and can be overridden with ?branch_id=.
func (h *TransfersHandler) List(w http.ResponseWriter, r *http.Request) {
	branchID, ok := h.scopeBranch(w, r)
	if !ok {
		return
	}

	status := r.URL.Query().Get("status")
	if status != "" && !model.ValidStatus(status) {
		jsonError(w, http.StatusBadRequest, "invalid status")
		return
	}

	direction := r.URL.Query().Get("direction")
	switch direction {
	case "", store.DirectionAll, store.DirectionSent, store.DirectionReceived:
	default:
		jsonError(w, http.StatusBadRequest, "invalid direction")
		return
	}

	transfers, err := store.ListTransfers(r.Context(), h.DB, branchID, status, direction)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list transfers")
		return
	}
	if transfers == nil {
		transfers = []model.Transfer{}
	}
	jsonResponse(w, http.StatusOK, transfers)
}

// Stats handles GET /api/transfers/stats.
func (h *TransfersHandler) Stats(w http.ResponseWriter, r *http.Request) {
	branchID, ok := h.scopeBranch(w, r)
	if !ok {
		return
	}

	stats, err := store.GetTransferStats(r.Context(), h.DB, branchID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get transfer stats")
		return
	}
	jsonResponse(w, http.StatusOK, stats)
}

// GetBatch handles GET /api/batches/{id}.
func (h *TransfersHandler) GetBatch(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	batch, err := store.GetBatch(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get batch")
		return
	}
	if batch == nil {
		jsonError(w, http.StatusNotFound, "batch not found")
		return
	}

	transfers, err := store.ListBatchTransfers(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list batch transfers")
		return
	}
	if transfers == nil {
		transfers = []model.Transfer{}
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"batch":     batch,
		"transfers": transfers,
	})
}

func (h *TransfersHandler) scopeBranch(w http.ResponseWriter, r *http.Request) (int64, bool) {
	if v := r.URL.Query().Get("branch_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid branch_id")
			return 0, false
		}
		return id, true
	}

	claims := GetClaims(r.Context())
	if claims == nil || claims.BranchID == 0 {
		jsonError(w, http.StatusBadRequest, "branch_id required")
		return 0, false
	}
	return claims.BranchID, true
}
