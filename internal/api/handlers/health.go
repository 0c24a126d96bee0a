package handlers

import (
	"context"
	"net/http"
	"time"

	"safesphere/pkg/logger"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	backends  map[string]Pinger
	version   string
	logger    *logger.Logger
	startTime time.Time
}

// NewHealthHandler creates a new HealthHandler. Nil backends are skipped.
func NewHealthHandler(backends map[string]Pinger, version string, log *logger.Logger) *HealthHandler {
	live := make(map[string]Pinger, len(backends))
	for name, b := range backends {
		if b != nil {
			live[name] = b
		}
	}
	return &HealthHandler{
		backends:  live,
		version:   version,
		logger:    log.WithComponent("health"),
		startTime: time.Now(),
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	Uptime    string            `json:"uptime"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// Check handles GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Version:   h.version,
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready handles GET /ready - checks all configured backends
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"analyzer": "healthy"}
	status := http.StatusOK
	overallStatus := "ready"

	for name, b := range h.backends {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		err := b.Ping(ctx)
		cancel()
		if err != nil {
			h.logger.Warn().Err(err).Str("backend", name).Msg("readiness check failed")
			checks[name] = "unhealthy: " + err.Error()
			status = http.StatusServiceUnavailable
			overallStatus = "not ready"
		} else {
			checks[name] = "healthy"
		}
	}

	respondJSON(w, status, HealthResponse{
		Status:    overallStatus,
		Version:   h.version,
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	})
}
