package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/erazemk/inventaris/internal/model"
	"github.com/erazemk/inventaris/internal/store"
)

const maxJSONBody = 1 << 20

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		// The status line is already sent; a failed write means the client went away.
		_ = json.NewEncoder(w).Encode(data)
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

type messageResponse struct {
	Message string `json:"message"`
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(w http.ResponseWriter, r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(target)
}

// respondStoreError maps store and validation errors onto status codes.
// Anything unexpected is logged and reported as 500 with fallback.
func respondStoreError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error, fallback string) {
	switch {
	case errors.Is(err, model.ErrValidation):
		jsonError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		jsonError(w, http.StatusNotFound, "Item not found")
	case errors.Is(err, store.ErrNoImage):
		jsonError(w, http.StatusNotFound, "Image not found")
	default:
		logger.Error(fallback, zap.Error(err), requestID(r),
			zap.Bool("unavailable", errors.Is(err, store.ErrUnavailable)))
		jsonError(w, http.StatusInternalServerError, fallback)
	}
}
