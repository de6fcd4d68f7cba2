package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/erazemk/prenos/internal/store"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("error encoding response: %v", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// storeErrorStatus maps engine errors to HTTP status codes. State conflicts
// (illegal transition, repeated completion, insufficient stock) map to 409 so
// callers know to refresh and see the true current state.
func storeErrorStatus(err error) int {
	var te *store.TransitionError
	switch {
	case errors.Is(err, store.ErrTransferNotFound),
		errors.Is(err, store.ErrBranchNotFound),
		errors.Is(err, store.ErrVariantNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrNotPermitted):
		return http.StatusForbidden
	case errors.Is(err, store.ErrAlreadyCompleted),
		errors.Is(err, store.ErrInsufficientStock),
		errors.As(err, &te):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

// storeError writes an engine error as a JSON error response.
func storeError(w http.ResponseWriter, err error) {
	jsonError(w, storeErrorStatus(err), err.Error())
}
