package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"safesphere/internal/domain/services"
	"safesphere/internal/domain/services/remote"
	"safesphere/internal/streaming"
	"safesphere/pkg/logger"
)

// maxBodyBytes bounds request bodies; content length proper is checked by the scan service
const maxBodyBytes = 8 << 20

// RemoteClassifier is the alternate LLM-backed classifier
type RemoteClassifier interface {
	Classify(ctx context.Context, content string) (*remote.Outcome, error)
}

// Pinger is a backend checked by the readiness probe
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers holds all API handlers
type Handlers struct {
	Health    *HealthHandler
	Analyze   *AnalyzeHandler
	Scans     *ScansHandler
	URL       *URLHandler
	Admin     *AdminHandler
	Streaming *StreamingHandler
}

// Dependencies holds dependencies for handlers
type Dependencies struct {
	ScanService *services.ScanService
	Remote      RemoteClassifier // nil when remote classification is disabled
	Backends    map[string]Pinger
	EventBus    *streaming.EventBus
	WSHub       *streaming.WebSocketHub
	Version     string
	Logger      *logger.Logger
}

// NewHandlers creates all handlers
func NewHandlers(deps Dependencies) *Handlers {
	return &Handlers{
		Health:    NewHealthHandler(deps.Backends, deps.Version, deps.Logger),
		Analyze:   NewAnalyzeHandler(deps.ScanService, deps.Remote, deps.Logger),
		Scans:     NewScansHandler(deps.ScanService, deps.Logger),
		URL:       NewURLHandler(deps.ScanService.Library(), deps.Logger),
		Admin:     NewAdminHandler(deps.ScanService, deps.Logger),
		Streaming: NewStreamingHandler(deps.WSHub, deps.EventBus, deps.Logger),
	}
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// decodeJSON reads a bounded JSON body into dst
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit)
		}
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return errors.New("invalid request body")
	}
	return nil
}
