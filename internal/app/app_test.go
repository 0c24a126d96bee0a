package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safesphere/internal/config"
	"safesphere/internal/domain/services/history"
	"safesphere/internal/domain/services/remote"
	"safesphere/internal/infrastructure/cache"
	"safesphere/pkg/logger"
)

func TestOpenInfrastructure_NothingRequired(t *testing.T) {
	cfg := &config.Config{History: config.HistoryConfig{Enabled: true, Backend: config.HistoryMemory}}

	infra, err := OpenInfrastructure(context.Background(), cfg, logger.NewNop())
	require.NoError(t, err)
	defer infra.Close()

	assert.Nil(t, infra.DB)
	assert.Nil(t, infra.Redis)
	assert.Empty(t, infra.Backends())
}

func TestNewHistoryStore(t *testing.T) {
	ctx := context.Background()

	store, err := NewHistoryStore(ctx, &config.Config{}, &Infrastructure{})
	require.NoError(t, err)
	assert.Nil(t, store, "disabled history has no store")

	store, err = NewHistoryStore(ctx, &config.Config{History: config.HistoryConfig{Enabled: true, Backend: config.HistoryMemory}}, &Infrastructure{})
	require.NoError(t, err)
	assert.IsType(t, &history.MemoryStore{}, store)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	infra := &Infrastructure{Redis: cache.NewRedisFromClient(client, "t:", logger.NewNop())}
	defer infra.Close()

	store, err = NewHistoryStore(ctx, &config.Config{History: config.HistoryConfig{Enabled: true, Backend: config.HistoryRedis}}, infra)
	require.NoError(t, err)
	assert.IsType(t, &cache.ScanStore{}, store)
	assert.Contains(t, infra.Backends(), "redis")
}

func TestNewScanService(t *testing.T) {
	cfg := &config.Config{Analyzer: config.AnalyzerConfig{MaxBatchSize: 10, BatchConcurrency: 2}}

	svc, err := NewScanService(cfg, nil, nil, logger.NewNop())
	require.NoError(t, err)
	assert.False(t, svc.HistoryEnabled())

	cfg.Analyzer.LibraryPath = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = NewScanService(cfg, nil, nil, logger.NewNop())
	assert.Error(t, err)
}

func TestNewRemoteClassifier(t *testing.T) {
	rc, err := NewRemoteClassifier(config.RemoteConfig{}, logger.NewNop())
	require.NoError(t, err)
	assert.Nil(t, rc)

	_, err = NewRemoteClassifier(config.RemoteConfig{Enabled: true, Provider: "gemini"}, logger.NewNop())
	assert.ErrorIs(t, err, remote.ErrMissingAPIKey)

	_, err = NewRemoteClassifier(config.RemoteConfig{Enabled: true, Provider: "llama", APIKey: "k"}, logger.NewNop())
	assert.ErrorIs(t, err, remote.ErrUnsupportedProvider)

	rc, err = NewRemoteClassifier(config.RemoteConfig{Enabled: true, Provider: "claude", APIKey: "k"}, logger.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, rc)
}
