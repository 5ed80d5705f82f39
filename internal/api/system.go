package api

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// SystemHandler serves health and statistics.
type SystemHandler struct {
	Items  ItemStore
	Logger *zap.Logger
	Now    func() time.Time
}

type healthResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Database  string `json:"database,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Health handles GET /api/health.
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.Items.Ping(r.Context()); err != nil {
		h.Logger.Error("health check failed", zap.Error(err), requestID(r))
		jsonResponse(w, http.StatusInternalServerError, healthResponse{
			Status:  "ERROR",
			Message: "Database connection failed",
			Error:   err.Error(),
		})
		return
	}

	jsonResponse(w, http.StatusOK, healthResponse{
		Status:    "OK",
		Message:   "Inventory API is running",
		Database:  "Connected",
		Timestamp: h.Now().UTC().Format(time.RFC3339Nano),
	})
}

// Stats handles GET /api/stats.
func (h *SystemHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Items.Stats(r.Context())
	if err != nil {
		respondStoreError(w, r, h.Logger, err, "Failed to fetch statistics")
		return
	}
	jsonResponse(w, http.StatusOK, stats)
}
