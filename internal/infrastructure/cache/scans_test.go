package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safesphere/internal/domain/models"
	"safesphere/internal/domain/services/history"
	"safesphere/pkg/logger"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisFromClient(client, "test:", logger.NewNop()), mr
}

func scanRecord(id string, ts time.Time, level models.RiskLevel, flags ...models.Flag) models.ScanRecord {
	return models.ScanRecord{
		ID:             id,
		Timestamp:      ts,
		ContentPreview: "preview...",
		RiskLevel:      level,
		RiskScore:      42,
		Flags:          flags,
		FlagCount:      len(flags),
	}
}

func TestScanStore_AddRecentStats(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)
	store := NewScanStore(c)
	require.NoError(t, store.Init(ctx))

	base := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 105; i++ {
		level := models.RiskLevelSafe
		if i%5 == 0 {
			level = models.RiskLevelMedium
		}
		rec := scanRecord(fmt.Sprintf("s%03d", i), base.Add(time.Duration(i)*time.Second), level, models.FlagUrgency)
		require.NoError(t, store.Add(ctx, rec))
	}

	assert.True(t, mr.Exists("test:"+KeyScansRecent), "keys carry the prefix")

	scans, err := store.Recent(ctx, 1000)
	require.NoError(t, err)
	require.Len(t, scans, history.MaxRecords)
	assert.Equal(t, "s104", scans[0].ID)
	assert.Equal(t, "s005", scans[history.MaxRecords-1].ID)
	assert.Equal(t, []models.Flag{models.FlagUrgency}, scans[0].Flags)
	assert.Equal(t, base.Add(104*time.Second), scans[0].Timestamp)

	page, err := store.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, page, history.DefaultLimit)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(105), stats.TotalScans)
	assert.Equal(t, int64(21), stats.SuspiciousCases)
	assert.Equal(t, int64(84), stats.SafeScans)
	assert.Equal(t, base.Add(104*time.Second), stats.LastUpdated)
}

func TestScanStore_EmptyAndClear(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)
	store := NewScanStore(c)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.ScanStats{}, stats)

	scans, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, scans)

	require.NoError(t, store.Add(ctx, scanRecord("a", time.Now().UTC(), models.RiskLevelHigh)))
	require.NoError(t, store.Clear(ctx))

	stats, err = store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.ScanStats{}, stats)

	scans, err = store.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, scans)
}

func TestScanStore_SkipsUndecodable(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)
	store := NewScanStore(c)

	require.NoError(t, store.Add(ctx, scanRecord("ok", time.Now().UTC(), models.RiskLevelLow)))
	_, err := mr.Lpush("test:"+KeyScansRecent, "not json")
	require.NoError(t, err)

	scans, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, scans, 1)
	assert.Equal(t, "ok", scans[0].ID)
}

func TestScanStore_InitFailsWhenDown(t *testing.T) {
	c, mr := newTestCache(t)
	mr.Close()
	assert.Error(t, NewScanStore(c).Init(context.Background()))
}

func TestCheckRateLimit(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	for i := 1; i <= 3; i++ {
		allowed, remaining, reset, err := c.CheckRateLimit(ctx, "client", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.Equal(t, int64(3-i), remaining)
		assert.True(t, reset.After(time.Now().Add(-time.Second)))
	}

	allowed, remaining, _, err := c.CheckRateLimit(ctx, "client", 3, time.Minute)
	require.NoError(t, err)
	// a window boundary between calls would reset the count
	if allowed {
		t.Skip("crossed a rate limit window boundary")
	}
	assert.Equal(t, int64(0), remaining)

	allowed, _, _, err = c.CheckRateLimit(ctx, "other", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed, "limits are per key")
}
