package handler

import (
	"net/http"
	"time"

	"github.com/yndnr/gatekeep/internal/telemetry/logger"
)

type healthStatus struct {
	Status string `json:"status"`
	Time   string `json:"time"`
	Error  string `json:"error,omitempty"`
}

// handleHealth handles GET /health.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, healthStatus{
		Status: "healthy",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleReady handles GET /ready.
func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC().Format(time.RFC3339)
	if h.ready != nil {
		if err := h.ready(r.Context()); err != nil {
			logger.L(r.Context()).Warn("not ready", "error", err)
			writeJSON(w, r, http.StatusServiceUnavailable, healthStatus{Status: "unavailable", Time: now, Error: err.Error()})
			return
		}
	}
	writeJSON(w, r, http.StatusOK, healthStatus{Status: "ready", Time: now})
}
