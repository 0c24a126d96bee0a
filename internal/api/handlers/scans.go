package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"safesphere/internal/domain/services"
	"safesphere/pkg/logger"
)

// ScansHandler serves scan history, counters and the pattern library
type ScansHandler struct {
	scans  *services.ScanService
	logger *logger.Logger
}

// NewScansHandler creates a new scans handler
func NewScansHandler(scans *services.ScanService, log *logger.Logger) *ScansHandler {
	return &ScansHandler{
		scans:  scans,
		logger: log.WithComponent("scans-handler"),
	}
}

// List handles GET /api/v1/scans?limit=
func (h *ScansHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	scans, err := h.scans.RecentScans(r.Context(), limit)
	if err != nil {
		h.historyError(w, err, "failed to list scans")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"scans": scans,
		"count": len(scans),
	})
}

// Stats handles GET /api/v1/stats
func (h *ScansHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.scans.Stats(r.Context())
	if err != nil {
		h.historyError(w, err, "failed to get stats")
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// Patterns handles GET /api/v1/patterns?format=json|yaml|toml
func (h *ScansHandler) Patterns(w http.ResponseWriter, r *http.Request) {
	spec := h.scans.Library().Spec()

	var (
		data        []byte
		err         error
		contentType string
	)
	switch r.URL.Query().Get("format") {
	case "", "json":
		respondJSON(w, http.StatusOK, spec)
		return
	case "yaml":
		data, err = spec.EncodeYAML()
		contentType = "application/yaml"
	case "toml":
		data, err = spec.EncodeTOML()
		contentType = "application/toml"
	default:
		respondError(w, http.StatusBadRequest, "format must be json, yaml or toml")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to encode pattern library")
		respondError(w, http.StatusInternalServerError, "failed to encode patterns")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *ScansHandler) historyError(w http.ResponseWriter, err error, msg string) {
	if errors.Is(err, services.ErrHistoryDisabled) {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	h.logger.Error().Err(err).Msg(msg)
	respondError(w, http.StatusInternalServerError, msg)
}
