package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"safesphere/internal/domain/models"
	"safesphere/internal/domain/services/history"
)

// stats hash fields
const (
	fieldTotalScans      = "totalScans"
	fieldSuspiciousCases = "suspiciousCases"
	fieldSafeScans       = "safeScans"
	fieldLastUpdated     = "lastUpdated"
)

// ScanStore keeps scan history in a capped Redis list plus a counters hash
type ScanStore struct {
	cache *RedisCache
}

// NewScanStore creates a Redis-backed history store
func NewScanStore(c *RedisCache) *ScanStore {
	return &ScanStore{cache: c}
}

var _ history.Store = (*ScanStore)(nil)

// Init checks the connection; the keys are created on first write
func (s *ScanStore) Init(ctx context.Context) error {
	if err := s.cache.Ping(ctx); err != nil {
		return fmt.Errorf("failed to reach Redis: %w", err)
	}
	return nil
}

// Add pushes the record and bumps the counters in one MULTI/EXEC
func (s *ScanStore) Add(ctx context.Context, rec models.ScanRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal scan record: %w", err)
	}

	listKey := s.cache.key(KeyScansRecent)
	statsKey := s.cache.key(KeyScansStats)

	pipe := s.cache.TxPipeline()
	pipe.LPush(ctx, listKey, data)
	pipe.LTrim(ctx, listKey, 0, history.MaxRecords-1)
	pipe.HIncrBy(ctx, statsKey, fieldTotalScans, 1)
	if rec.RiskLevel.IsSuspicious() {
		pipe.HIncrBy(ctx, statsKey, fieldSuspiciousCases, 1)
	} else {
		pipe.HIncrBy(ctx, statsKey, fieldSafeScans, 1)
	}
	pipe.HSet(ctx, statsKey, fieldLastUpdated, rec.Timestamp.UTC().Format(time.RFC3339Nano))

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store scan record: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first
func (s *ScanStore) Recent(ctx context.Context, limit int) ([]models.ScanRecord, error) {
	n := history.NormalizeLimit(limit)
	raw, err := s.cache.client.LRange(ctx, s.cache.key(KeyScansRecent), 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read scan records: %w", err)
	}

	scans := make([]models.ScanRecord, 0, len(raw))
	for _, item := range raw {
		var rec models.ScanRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			s.cache.logger.Warn().Err(err).Msg("skipping undecodable scan record")
			continue
		}
		scans = append(scans, rec)
	}
	return scans, nil
}

// Stats reads the counters hash
func (s *ScanStore) Stats(ctx context.Context) (models.ScanStats, error) {
	fields, err := s.cache.client.HGetAll(ctx, s.cache.key(KeyScansStats)).Result()
	if err != nil && err != redis.Nil {
		return models.ScanStats{}, fmt.Errorf("failed to read scan stats: %w", err)
	}

	var stats models.ScanStats
	stats.TotalScans, _ = strconv.ParseInt(fields[fieldTotalScans], 10, 64)
	stats.SuspiciousCases, _ = strconv.ParseInt(fields[fieldSuspiciousCases], 10, 64)
	stats.SafeScans, _ = strconv.ParseInt(fields[fieldSafeScans], 10, 64)
	if v := fields[fieldLastUpdated]; v != "" {
		if ts, err := time.Parse(time.RFC3339Nano, v); err == nil {
			stats.LastUpdated = ts
		}
	}
	return stats, nil
}

// Clear drops the list and the counters
func (s *ScanStore) Clear(ctx context.Context) error {
	if err := s.cache.Delete(ctx, KeyScansRecent, KeyScansStats); err != nil {
		return fmt.Errorf("failed to clear scan history: %w", err)
	}
	return nil
}
