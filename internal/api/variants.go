package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/prenos/internal/imaging"
	"github.com/erazemk/prenos/internal/model"
	"github.com/erazemk/prenos/internal/store"
)

// VariantsHandler handles product variant endpoints.
type VariantsHandler struct {
	DB *sql.DB
}

type variantRequest struct {
	SKU        string `json:"sku"`
	Name       string `json:"name"`
	Attributes string `json:"attributes"`
	Status     string `json:"status"`
}

// List handles GET /api/variants. Pass ?status= to filter.
func (h *VariantsHandler) List(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status != "" && status != model.VariantStatusActive && status != model.VariantStatusDiscontinued {
		jsonError(w, http.StatusBadRequest, "invalid status")
		return
	}

	variants, err := store.ListVariants(r.Context(), h.DB, status)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list variants")
		return
	}
	if variants == nil {
		variants = []model.Variant{}
	}
	jsonResponse(w, http.StatusOK, variants)
}

// Get handles GET /api/variants/{id}.
func (h *VariantsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid variant id")
		return
	}

	variant, err := store.GetVariant(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get variant")
		return
	}
	if variant == nil {
		jsonError(w, http.StatusNotFound, "variant not found")
		return
	}
	jsonResponse(w, http.StatusOK, variant)
}

// Create handles POST /api/variants.
func (h *VariantsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req variantRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SKU == "" || req.Name == "" {
		jsonError(w, http.StatusBadRequest, "sku and name required")
		return
	}

	variant, err := store.CreateVariant(r.Context(), h.DB, req.SKU, req.Name, req.Attributes)
	if err != nil {
		jsonError(w, http.StatusConflict, "sku already exists")
		return
	}

	slog.Info("variant created", "sku", variant.SKU, "name", variant.Name)
	jsonResponse(w, http.StatusCreated, variant)
}

// Update handles PUT /api/variants/{id}.
func (h *VariantsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid variant id")
		return
	}

	var req variantRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SKU == "" || req.Name == "" {
		jsonError(w, http.StatusBadRequest, "sku and name required")
		return
	}
	if req.Status == "" {
		req.Status = model.VariantStatusActive
	}
	if req.Status != model.VariantStatusActive && req.Status != model.VariantStatusDiscontinued {
		jsonError(w, http.StatusBadRequest, "invalid status")
		return
	}

	variant, err := store.GetVariant(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if variant == nil {
		jsonError(w, http.StatusNotFound, "variant not found")
		return
	}

	if err := store.UpdateVariant(r.Context(), h.DB, id, req.SKU, req.Name, req.Attributes, req.Status); err != nil {
		jsonError(w, http.StatusConflict, "failed to update variant")
		return
	}

	updated, err := store.GetVariant(r.Context(), h.DB, id)
	if err != nil || updated == nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	slog.Info("variant updated", "sku", updated.SKU, "status", updated.Status)
	jsonResponse(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/variants/{id}. Variants still held in any
// branch's ledger cannot be deleted.
func (h *VariantsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid variant id")
		return
	}

	if err := store.DeleteVariant(r.Context(), h.DB, id); err != nil {
		storeError(w, err)
		return
	}

	slog.Info("variant deleted", "id", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "variant deleted"})
}

// Distribution handles GET /api/variants/{id}/distribution, showing where a
// variant's stock sits across branches.
func (h *VariantsHandler) Distribution(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid variant id")
		return
	}

	variant, err := store.GetVariant(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if variant == nil {
		jsonError(w, http.StatusNotFound, "variant not found")
		return
	}

	entries, err := store.GetVariantDistribution(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get distribution")
		return
	}
	if entries == nil {
		entries = []model.LedgerEntry{}
	}
	jsonResponse(w, http.StatusOK, entries)
}

// UploadImage handles PUT /api/variants/{id}/image. The body is the raw
// image; it is validated, downscaled and re-encoded before storage.
func (h *VariantsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid variant id")
		return
	}

	variant, err := store.GetVariant(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if variant == nil {
		jsonError(w, http.StatusNotFound, "variant not found")
		return
	}

	defer r.Body.Close()
	data, mime, err := imaging.Process(r.Body)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := store.SetVariantImage(r.Context(), h.DB, id, data, mime); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to store image")
		return
	}

	slog.Info("variant image updated", "sku", variant.SKU, "bytes", len(data))
	jsonResponse(w, http.StatusOK, map[string]string{"message": "image updated"})
}

// GetImage handles GET /api/variants/{id}/image.
func (h *VariantsHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid variant id")
		return
	}

	data, mime, err := store.GetVariantImage(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get image")
		return
	}
	if len(data) == 0 {
		jsonError(w, http.StatusNotFound, "variant has no image")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
