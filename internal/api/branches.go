package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/prenos/internal/model"
	"github.com/erazemk/prenos/internal/store"
)

// BranchesHandler handles branch management endpoints.
type BranchesHandler struct {
	DB *sql.DB
}

type branchRequest struct {
	Name   string `json:"name"`
	City   string `json:"city"`
	Active *bool  `json:"active"`
}

// List handles GET /api/branches. Pass ?active=true to hide deactivated
// branches.
func (h *BranchesHandler) List(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"

	branches, err := store.ListBranches(r.Context(), h.DB, activeOnly)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list branches")
		return
	}
	if branches == nil {
		branches = []model.Branch{}
	}
	jsonResponse(w, http.StatusOK, branches)
}

// Get handles GET /api/branches/{id}.
func (h *BranchesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid branch id")
		return
	}

	branch, err := store.GetBranch(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get branch")
		return
	}
	if branch == nil {
		jsonError(w, http.StatusNotFound, "branch not found")
		return
	}
	jsonResponse(w, http.StatusOK, branch)
}

// Create handles POST /api/branches.
func (h *BranchesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req branchRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}

	branch, err := store.CreateBranch(r.Context(), h.DB, req.Name, req.City)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to create branch")
		return
	}

	slog.Info("branch created", "branch", branch.Name, "city", branch.City)
	jsonResponse(w, http.StatusCreated, branch)
}

// Update handles PUT /api/branches/{id}. Setting active to false stops the
// branch from sending or receiving new transfers.
func (h *BranchesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid branch id")
		return
	}

	var req branchRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}

	branch, err := store.GetBranch(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if branch == nil {
		jsonError(w, http.StatusNotFound, "branch not found")
		return
	}

	active := branch.Active
	if req.Active != nil {
		active = *req.Active
	}

	if err := store.UpdateBranch(r.Context(), h.DB, id, req.Name, req.City, active); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to update branch")
		return
	}

	updated, err := store.GetBranch(r.Context(), h.DB, id)
	if err != nil || updated == nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	slog.Info("branch updated", "branch", updated.Name, "active", updated.Active)
	jsonResponse(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/branches/{id}. Branches that still hold stock
// cannot be deleted.
func (h *BranchesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid branch id")
		return
	}

	if err := store.DeleteBranch(r.Context(), h.DB, id); err != nil {
		storeError(w, err)
		return
	}

	slog.Info("branch deleted", "id", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "branch deleted"})
}

// Inventory handles GET /api/branches/{id}/inventory, listing the ledger rows
// held at one branch.
func (h *BranchesHandler) Inventory(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid branch id")
		return
	}

	branch, err := store.GetBranch(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if branch == nil {
		jsonError(w, http.StatusNotFound, "branch not found")
		return
	}

	entries, err := store.GetBranchInventory(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get inventory")
		return
	}
	if entries == nil {
		entries = []model.LedgerEntry{}
	}
	jsonResponse(w, http.StatusOK, entries)
}
