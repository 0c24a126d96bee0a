package handlers

import (
	"errors"
	"net/http"

	"safesphere/internal/domain/services"
	"safesphere/internal/domain/services/analyzer"
	"safesphere/internal/domain/services/remote"
	"safesphere/pkg/logger"
)

// AnalyzeHandler handles content analysis endpoints
type AnalyzeHandler struct {
	scans  *services.ScanService
	remote RemoteClassifier
	logger *logger.Logger
}

// NewAnalyzeHandler creates a new analyze handler. rc may be nil.
func NewAnalyzeHandler(scans *services.ScanService, rc RemoteClassifier, log *logger.Logger) *AnalyzeHandler {
	return &AnalyzeHandler{
		scans:  scans,
		remote: rc,
		logger: log.WithComponent("analyze-handler"),
	}
}

// AnalyzeRequest is the request body for single-message analysis
type AnalyzeRequest struct {
	Content string `json:"content"`
}

// AnalyzeBatchRequest is the request body for batch analysis
type AnalyzeBatchRequest struct {
	Messages []string `json:"messages"`
}

// Analyze handles POST /api/v1/analyze
func (h *AnalyzeHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.scans.Scan(r.Context(), req.Content, services.SourceAPI)
	switch {
	case errors.Is(err, analyzer.ErrEmptyContent):
		respondError(w, http.StatusBadRequest, "Content is required")
		return
	case errors.Is(err, services.ErrContentTooLong):
		respondError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	case err != nil:
		h.logger.Error().Err(err).Msg("failed to analyze content")
		respondError(w, http.StatusInternalServerError, "Failed to analyze content")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// AnalyzeBatch handles POST /api/v1/analyze/batch
func (h *AnalyzeHandler) AnalyzeBatch(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeBatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.scans.ScanBatch(r.Context(), req.Messages, services.SourceBatch)
	switch {
	case errors.Is(err, services.ErrEmptyBatch), errors.Is(err, services.ErrBatchTooLarge):
		respondError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		h.logger.Error().Err(err).Msg("failed to analyze batch")
		respondError(w, http.StatusInternalServerError, "Failed to analyze batch")
		return
	}

	h.logger.Info().
		Int("total", result.TotalCount).
		Int("suspicious", result.SuspiciousCount).
		Int("failed", result.FailedCount).
		Msg("batch analyzed")

	respondJSON(w, http.StatusOK, result)
}

// AnalyzeAI handles POST /api/v1/analyze/ai.
// Unusable model replies still answer 200 with a fallback outcome.
func (h *AnalyzeHandler) AnalyzeAI(w http.ResponseWriter, r *http.Request) {
	if h.remote == nil {
		respondError(w, http.StatusServiceUnavailable, "AI analysis is not enabled")
		return
	}

	var req AnalyzeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	outcome, err := h.remote.Classify(r.Context(), req.Content)
	switch {
	case errors.Is(err, remote.ErrEmptyContent):
		respondError(w, http.StatusBadRequest, "Content is required")
		return
	case errors.Is(err, remote.ErrUpstreamUnavailable):
		respondError(w, http.StatusBadGateway, "Failed to analyze content with AI")
		return
	case err != nil:
		h.logger.Error().Err(err).Msg("remote classification failed")
		respondError(w, http.StatusInternalServerError, "Failed to analyze content with AI")
		return
	}

	respondJSON(w, http.StatusOK, outcome)
}
