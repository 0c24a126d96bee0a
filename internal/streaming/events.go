package streaming

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"safesphere/internal/domain/models"
)

// EventType represents the type of scan event
type EventType string

const (
	EventTypeScanCompleted  EventType = "scan_completed"
	EventTypeHighRisk       EventType = "high_risk_detected"
	EventTypeHistoryCleared EventType = "history_cleared"
)

// ScanEvent is published after a scan is recorded or the history changes.
// It carries the anonymized record only, never the analyzed content.
type ScanEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	ScanID         string           `json:"scan_id,omitempty"`
	ContentPreview string           `json:"content_preview,omitempty"`
	RiskLevel      models.RiskLevel `json:"risk_level,omitempty"`
	RiskScore      int              `json:"risk_score"`
	Flags          []models.Flag    `json:"flags,omitempty"`

	// Origin of the scan: api, batch, cli
	Source string `json:"source,omitempty"`
}

// NewScanEvent creates an event for a recorded scan
func NewScanEvent(eventType EventType, rec models.ScanRecord, source string) *ScanEvent {
	return &ScanEvent{
		ID:             uuid.New().String(),
		Type:           eventType,
		Timestamp:      time.Now().UTC(),
		ScanID:         rec.ID,
		ContentPreview: rec.ContentPreview,
		RiskLevel:      rec.RiskLevel,
		RiskScore:      rec.RiskScore,
		Flags:          rec.Flags,
		Source:         source,
	}
}

// NewHistoryClearedEvent creates an event for a history reset
func NewHistoryClearedEvent() *ScanEvent {
	return &ScanEvent{
		ID:        uuid.New().String(),
		Type:      EventTypeHistoryCleared,
		Timestamp: time.Now().UTC(),
	}
}

// Subscription represents a client's subscription preferences
type Subscription struct {
	// Filter by minimum risk level (empty = all)
	MinRiskLevel models.RiskLevel `json:"min_risk_level,omitempty"`

	// Filter by event types (empty = all)
	Types []EventType `json:"types,omitempty"`

	// Filter by flags; an event matches when it carries any of them (empty = all)
	Flags []models.Flag `json:"flags,omitempty"`
}

// Matches checks if an event matches the subscription filters
func (s *Subscription) Matches(event *ScanEvent) bool {
	if s == nil {
		return true
	}

	if len(s.Types) > 0 && !slices.Contains(s.Types, event.Type) {
		return false
	}

	// History events carry no level or flags
	if event.Type == EventTypeHistoryCleared {
		return true
	}

	if s.MinRiskLevel != "" && event.RiskLevel.Rank() < s.MinRiskLevel.Rank() {
		return false
	}

	if len(s.Flags) > 0 && !slices.ContainsFunc(s.Flags, func(f models.Flag) bool {
		return slices.Contains(event.Flags, f)
	}) {
		return false
	}

	return true
}
