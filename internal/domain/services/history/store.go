// Package history keeps the anonymized record of past analyses and the
// running counters shown on the dashboard.
package history

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"

	"safesphere/internal/domain/models"
)

const (
	// MaxRecords is how many scans a store retains, newest first
	MaxRecords = 100
	// DefaultLimit is the page size when a caller does not ask for one
	DefaultLimit = 50
	// PreviewLength is how many characters of content a record keeps
	PreviewLength = 100
)

// Store persists scan records and counters.
// Implementations serialize their own read-modify-write so Add is safe for concurrent use.
type Store interface {
	// Init prepares the backend (schema, connections). It is idempotent.
	Init(ctx context.Context) error
	// Add prepends a record, evicts beyond MaxRecords and bumps the counters
	Add(ctx context.Context, rec models.ScanRecord) error
	// Recent returns up to limit records, newest first. limit <= 0 means DefaultLimit.
	Recent(ctx context.Context, limit int) ([]models.ScanRecord, error)
	// Stats returns the running counters
	Stats(ctx context.Context) (models.ScanStats, error)
	// Clear drops every record and zeroes the counters
	Clear(ctx context.Context) error
}

// NewScanRecord builds the anonymized record for an analysis result
func NewScanRecord(result *models.AnalysisResult, content string, now time.Time) models.ScanRecord {
	flags := append([]models.Flag{}, result.Flags...)
	return models.ScanRecord{
		ID:             ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		Timestamp:      now.UTC(),
		ContentPreview: Preview(content),
		RiskLevel:      result.RiskLevel,
		RiskScore:      result.RiskScore,
		Flags:          flags,
		FlagCount:      len(flags),
	}
}

// Preview keeps the first PreviewLength characters of content followed by an ellipsis
func Preview(content string) string {
	if utf8.RuneCountInString(content) <= PreviewLength {
		return content + "..."
	}
	runes := []rune(content)
	return string(runes[:PreviewLength]) + "..."
}

// NormalizeLimit clamps a requested page size to [1, MaxRecords]
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return min(limit, MaxRecords)
}

// applyStats bumps the counters for one record
func applyStats(stats *models.ScanStats, rec models.ScanRecord) {
	stats.TotalScans++
	if rec.RiskLevel.IsSuspicious() {
		stats.SuspiciousCases++
	} else {
		stats.SafeScans++
	}
	stats.LastUpdated = rec.Timestamp
}

// Export snapshots everything a store holds
func Export(ctx context.Context, store Store, now time.Time) (*models.ScanExport, error) {
	scans, err := store.Recent(ctx, MaxRecords)
	if err != nil {
		return nil, err
	}
	stats, err := store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return &models.ScanExport{
		Scans:      scans,
		Stats:      stats,
		ExportedAt: now.UTC(),
	}, nil
}
