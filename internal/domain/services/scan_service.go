package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"safesphere/internal/domain/models"
	"safesphere/internal/domain/services/analyzer"
	"safesphere/internal/domain/services/history"
	"safesphere/pkg/logger"
)

// Scan sources reported on events and logs
const (
	SourceAPI   = "api"
	SourceBatch = "batch"
	SourceCLI   = "cli"
)

var (
	ErrContentTooLong  = errors.New("content exceeds maximum length")
	ErrEmptyBatch      = errors.New("no messages provided")
	ErrBatchTooLarge   = errors.New("too many messages in batch")
	ErrHistoryDisabled = errors.New("scan history is disabled")
)

// EventPublisher receives recorded scans and history resets
type EventPublisher interface {
	PublishScan(ctx context.Context, rec models.ScanRecord, source string) error
	PublishHistoryCleared(ctx context.Context) error
}

// ScanServiceConfig holds limits for the scan service
type ScanServiceConfig struct {
	MaxBatchSize     int
	BatchConcurrency int
	MaxContentLength int // bytes, 0 = unlimited
}

// ScanResult is an analysis plus the id of its history record, if one was stored
type ScanResult struct {
	*models.AnalysisResult
	ScanID string `json:"scanId,omitempty"`
}

// BatchItem is the outcome for one message of a batch
type BatchItem struct {
	Index  int         `json:"index"`
	Result *ScanResult `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// BatchResult summarizes a batch scan. Results keep input order.
type BatchResult struct {
	Results         []BatchItem `json:"results"`
	TotalCount      int         `json:"totalCount"`
	SuspiciousCount int         `json:"suspiciousCount"`
	FailedCount     int         `json:"failedCount"`
	AnalyzedAt      time.Time   `json:"analyzedAt"`
}

// ScanService runs the analyzer and records results in history
type ScanService struct {
	analyzer  *analyzer.Analyzer
	store     history.Store
	publisher EventPublisher
	config    ScanServiceConfig
	logger    *logger.Logger
	now       func() time.Time
}

// NewScanService creates a scan service. store and publisher may be nil.
func NewScanService(a *analyzer.Analyzer, store history.Store, publisher EventPublisher, cfg ScanServiceConfig, log *logger.Logger) *ScanService {
	if a == nil {
		a = analyzer.New(nil)
	}
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = 100
	}
	if cfg.BatchConcurrency <= 0 {
		cfg.BatchConcurrency = 5
	}
	return &ScanService{
		analyzer:  a,
		store:     store,
		publisher: publisher,
		config:    cfg,
		logger:    log.WithComponent("scan-service"),
		now:       time.Now,
	}
}

// Library returns the pattern library in use
func (s *ScanService) Library() *analyzer.Library {
	return s.analyzer.Library()
}

// HistoryEnabled reports whether scans are recorded
func (s *ScanService) HistoryEnabled() bool {
	return s.store != nil
}

// Scan analyzes content and records it. Recording failures are logged, never returned.
func (s *ScanService) Scan(ctx context.Context, content, source string) (*ScanResult, error) {
	if s.config.MaxContentLength > 0 && len(content) > s.config.MaxContentLength {
		return nil, fmt.Errorf("%w (%d bytes)", ErrContentTooLong, s.config.MaxContentLength)
	}

	result, err := s.analyzer.Analyze(content)
	if err != nil {
		return nil, err
	}

	out := &ScanResult{AnalysisResult: result}
	if s.store == nil {
		return out, nil
	}

	rec := history.NewScanRecord(result, content, s.now())
	log := s.logger.WithScanID(rec.ID)

	if err := s.store.Add(ctx, rec); err != nil {
		log.Error().Err(err).Msg("failed to record scan")
		return out, nil
	}
	out.ScanID = rec.ID

	log.Debug().
		Str("source", source).
		Str("risk_level", string(result.RiskLevel)).
		Int("risk_score", result.RiskScore).
		Int("flags", len(result.Flags)).
		Msg("scan recorded")

	if s.publisher != nil {
		if err := s.publisher.PublishScan(ctx, rec, source); err != nil {
			log.Warn().Err(err).Msg("failed to publish scan event")
		}
	}

	return out, nil
}

// ScanBatch scans messages with bounded concurrency. A failing message does not fail the batch.
func (s *ScanService) ScanBatch(ctx context.Context, messages []string, source string) (*BatchResult, error) {
	if len(messages) == 0 {
		return nil, ErrEmptyBatch
	}
	if len(messages) > s.config.MaxBatchSize {
		return nil, fmt.Errorf("%w (max %d)", ErrBatchTooLarge, s.config.MaxBatchSize)
	}

	items := make([]BatchItem, len(messages))
	sem := make(chan struct{}, s.config.BatchConcurrency)
	var wg sync.WaitGroup

	for i, msg := range messages {
		wg.Add(1)
		go func(idx int, content string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			items[idx].Index = idx
			if err := ctx.Err(); err != nil {
				items[idx].Error = err.Error()
				return
			}

			result, err := s.Scan(ctx, content, source)
			if err != nil {
				s.logger.Debug().Err(err).Int("index", idx).Msg("batch item failed")
				items[idx].Error = err.Error()
				return
			}
			items[idx].Result = result
		}(i, msg)
	}

	wg.Wait()

	batch := &BatchResult{
		Results:    items,
		TotalCount: len(items),
		AnalyzedAt: s.now().UTC(),
	}
	for _, item := range items {
		switch {
		case item.Result == nil:
			batch.FailedCount++
		case item.Result.RiskLevel.IsSuspicious():
			batch.SuspiciousCount++
		}
	}
	return batch, nil
}

// RecentScans returns up to limit history records, newest first
func (s *ScanService) RecentScans(ctx context.Context, limit int) ([]models.ScanRecord, error) {
	if s.store == nil {
		return nil, ErrHistoryDisabled
	}
	return s.store.Recent(ctx, limit)
}

// Stats returns the history counters
func (s *ScanService) Stats(ctx context.Context) (models.ScanStats, error) {
	if s.store == nil {
		return models.ScanStats{}, ErrHistoryDisabled
	}
	return s.store.Stats(ctx)
}

// Dashboard aggregates the retained history for the admin view
func (s *ScanService) Dashboard(ctx context.Context, period models.ScanPeriod) (*models.Dashboard, error) {
	if s.store == nil {
		return nil, ErrHistoryDisabled
	}
	records, err := s.store.Recent(ctx, history.MaxRecords)
	if err != nil {
		return nil, fmt.Errorf("failed to load scans: %w", err)
	}
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load stats: %w", err)
	}
	return history.BuildDashboard(records, stats, period, s.now()), nil
}

// Export snapshots the full history
func (s *ScanService) Export(ctx context.Context) (*models.ScanExport, error) {
	if s.store == nil {
		return nil, ErrHistoryDisabled
	}
	return history.Export(ctx, s.store, s.now())
}

// ClearHistory drops all records and counters
func (s *ScanService) ClearHistory(ctx context.Context) error {
	if s.store == nil {
		return ErrHistoryDisabled
	}
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}

	s.logger.Info().Msg("scan history cleared")

	if s.publisher != nil {
		if err := s.publisher.PublishHistoryCleared(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("failed to publish history cleared event")
		}
	}
	return nil
}
