package handlers

import (
	"net/http"
	"strings"

	"safesphere/internal/domain/services/analyzer"
	"safesphere/pkg/logger"
)

const maxURLsPerCheck = 100

// URLHandler exposes the URL rules on their own
type URLHandler struct {
	library *analyzer.Library
	logger  *logger.Logger
}

// NewURLHandler creates a new URL handler
func NewURLHandler(lib *analyzer.Library, log *logger.Logger) *URLHandler {
	return &URLHandler{
		library: lib,
		logger:  log.WithComponent("url-handler"),
	}
}

// URLCheckRequest takes explicit URLs, free text to extract them from, or both
type URLCheckRequest struct {
	URLs    []string `json:"urls,omitempty"`
	Content string   `json:"content,omitempty"`
}

// URLCheckResponse lists one verdict per URL
type URLCheckResponse struct {
	Verdicts        []analyzer.URLVerdict `json:"verdicts"`
	SuspiciousCount int                   `json:"suspiciousCount"`
}

// CheckURLs handles POST /api/v1/url/check
func (h *URLHandler) CheckURLs(w http.ResponseWriter, r *http.Request) {
	var req URLCheckRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	urls := make([]string, 0, len(req.URLs))
	for _, u := range req.URLs {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	urls = append(urls, analyzer.ExtractURLs(req.Content)...)

	if len(urls) == 0 {
		respondError(w, http.StatusBadRequest, "urls or content with URLs is required")
		return
	}
	if len(urls) > maxURLsPerCheck {
		respondError(w, http.StatusBadRequest, "maximum 100 URLs per check")
		return
	}

	resp := URLCheckResponse{Verdicts: make([]analyzer.URLVerdict, 0, len(urls))}
	for _, u := range urls {
		v := h.library.InspectURL(u)
		if v.Suspicious {
			resp.SuspiciousCount++
		}
		resp.Verdicts = append(resp.Verdicts, v)
	}

	respondJSON(w, http.StatusOK, resp)
}
