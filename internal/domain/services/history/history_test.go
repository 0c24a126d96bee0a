package history

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safesphere/internal/domain/models"
)

func record(id string, ts time.Time, level models.RiskLevel, score int, flags ...models.Flag) models.ScanRecord {
	return models.ScanRecord{
		ID:        id,
		Timestamp: ts,
		RiskLevel: level,
		RiskScore: score,
		Flags:     flags,
		FlagCount: len(flags),
	}
}

func TestNewScanRecord(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	result := &models.AnalysisResult{
		RiskScore: 59,
		RiskLevel: models.RiskLevelMedium,
		Flags:     []models.Flag{models.FlagFinancial, models.FlagPersonalInfoRequest},
	}
	content := strings.Repeat("a", 150)

	rec := NewScanRecord(result, content, now)
	assert.Len(t, rec.ID, 26)
	assert.Equal(t, now, rec.Timestamp)
	assert.Equal(t, strings.Repeat("a", 100)+"...", rec.ContentPreview)
	assert.Equal(t, models.RiskLevelMedium, rec.RiskLevel)
	assert.Equal(t, 59, rec.RiskScore)
	assert.Equal(t, 2, rec.FlagCount)

	result.Flags[0] = models.FlagThreats
	assert.Equal(t, models.FlagFinancial, rec.Flags[0], "record must not alias the result")

	other := NewScanRecord(result, content, now)
	assert.NotEqual(t, rec.ID, other.ID)
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short...", Preview("short"))
	assert.Equal(t, strings.Repeat("é", 100)+"...", Preview(strings.Repeat("é", 120)))
	assert.Equal(t, strings.Repeat("x", 100)+"...", Preview(strings.Repeat("x", 100)))
}

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, NormalizeLimit(0))
	assert.Equal(t, DefaultLimit, NormalizeLimit(-3))
	assert.Equal(t, 7, NormalizeLimit(7))
	assert.Equal(t, MaxRecords, NormalizeLimit(1000))
}

func TestMemoryStore_AddAndRecent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Init(ctx))

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 120; i++ {
		level := models.RiskLevelSafe
		if i%4 == 0 {
			level = models.RiskLevelHigh
		}
		require.NoError(t, s.Add(ctx, record(fmt.Sprintf("r%03d", i), base.Add(time.Duration(i)*time.Minute), level, i)))
	}

	all, err := s.Recent(ctx, 1000)
	require.NoError(t, err)
	require.Len(t, all, MaxRecords)
	assert.Equal(t, "r119", all[0].ID, "newest first")
	assert.Equal(t, "r020", all[MaxRecords-1].ID, "oldest retained")

	page, err := s.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, page, DefaultLimit)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(120), stats.TotalScans, "counters are not capped")
	assert.Equal(t, int64(30), stats.SuspiciousCases)
	assert.Equal(t, int64(90), stats.SafeScans)
	assert.Equal(t, base.Add(119*time.Minute), stats.LastUpdated)
}

func TestMemoryStore_RecentIsACopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Add(ctx, record("a", time.Now(), models.RiskLevelLow, 20)))

	got, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	got[0].ID = "changed"

	again, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, "a", again[0].ID)
}

func TestMemoryStore_Clear(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Add(ctx, record("a", time.Now(), models.RiskLevelHigh, 90)))
	require.NoError(t, s.Clear(ctx))

	scans, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, scans)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.ScanStats{}, stats)
}

func TestMemoryStore_ConcurrentAdd(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.Add(ctx, record(fmt.Sprint(i), time.Now(), models.RiskLevelMedium, 50))
		}(i)
	}
	wg.Wait()

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(200), stats.TotalScans)
	assert.Equal(t, int64(200), stats.SuspiciousCases)

	scans, err := s.Recent(ctx, MaxRecords)
	require.NoError(t, err)
	assert.Len(t, scans, MaxRecords)
}

func TestExport(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, s.Add(ctx, record("a", now, models.RiskLevelSafe, 0)))
	require.NoError(t, s.Add(ctx, record("b", now, models.RiskLevelHigh, 80)))

	exp, err := Export(ctx, s, now)
	require.NoError(t, err)
	require.Len(t, exp.Scans, 2)
	assert.Equal(t, "b", exp.Scans[0].ID)
	assert.Equal(t, int64(2), exp.Stats.TotalScans)
	assert.Equal(t, now, exp.ExportedAt)
}
