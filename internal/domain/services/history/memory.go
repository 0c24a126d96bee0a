package history

import (
	"context"
	"sync"

	"safesphere/internal/domain/models"
)

// MemoryStore keeps history in process memory
type MemoryStore struct {
	mu    sync.RWMutex
	scans []models.ScanRecord // newest first
	stats models.ScanStats
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Init is a no-op for the memory store
func (s *MemoryStore) Init(ctx context.Context) error {
	return nil
}

// Add prepends rec and evicts the oldest records beyond MaxRecords
func (s *MemoryStore) Add(ctx context.Context, rec models.ScanRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	scans := make([]models.ScanRecord, 0, min(len(s.scans)+1, MaxRecords))
	scans = append(scans, rec)
	scans = append(scans, s.scans[:min(len(s.scans), MaxRecords-1)]...)
	s.scans = scans

	applyStats(&s.stats, rec)
	return nil
}

// Recent returns up to limit records, newest first
func (s *MemoryStore) Recent(ctx context.Context, limit int) ([]models.ScanRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := min(NormalizeLimit(limit), len(s.scans))
	out := make([]models.ScanRecord, n)
	copy(out, s.scans[:n])
	return out, nil
}

// Stats returns the running counters
func (s *MemoryStore) Stats(ctx context.Context) (models.ScanStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats, nil
}

// Clear resets the store
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scans = nil
	s.stats = models.ScanStats{}
	return nil
}
