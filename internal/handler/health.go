package handler

import (
	"net/http"

	"github.com/balcao-pos/api/internal/backend"
)

// HealthMonitor exposes the backend connection status.
// Satisfied by *backend.Monitor.
type HealthMonitor interface {
	Status() backend.HealthStatus
}

// HealthHandler reports the backend connection health.
type HealthHandler struct {
	monitor HealthMonitor
}

func NewHealthHandler(monitor HealthMonitor) *HealthHandler {
	return &HealthHandler{monitor: monitor}
}

// Get handles GET /health. Degraded backend connectivity reports 503 so
// an external probe can alert without parsing the body.
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	hs := h.monitor.Status()
	status := http.StatusOK
	if hs.Status == backend.HealthDegraded {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, hs)
}
