// Package app builds the service components from configuration. It is shared by
// the API server and the command line tool.
package app

import (
	"context"
	"fmt"

	"safesphere/internal/config"
	"safesphere/internal/domain/services"
	"safesphere/internal/domain/services/analyzer"
	"safesphere/internal/domain/services/history"
	"safesphere/internal/domain/services/remote"
	"safesphere/internal/grpc/health"
	"safesphere/internal/infrastructure/cache"
	"safesphere/internal/infrastructure/database"
	"safesphere/internal/infrastructure/database/repository"
	"safesphere/pkg/logger"
)

// NewLogger builds the process logger. Production always logs JSON.
func NewLogger(cfg *config.Config) *logger.Logger {
	lc := logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		TimeFormat: cfg.Logger.TimeFormat,
	}
	if cfg.App.Environment == "production" {
		lc.Format = "json"
	}
	return logger.New(lc)
}

// Infrastructure holds the optional backend connections
type Infrastructure struct {
	DB    *database.PostgresDB
	Redis *cache.RedisCache
}

// OpenInfrastructure connects only the backends the configuration needs.
// A required backend that cannot be reached is an error.
func OpenInfrastructure(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Infrastructure, error) {
	infra := &Infrastructure{}

	if cfg.PostgresRequired() {
		db, err := database.NewPostgres(ctx, cfg.Database, log)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		infra.DB = db
	}

	if cfg.RedisRequired() {
		rc, err := cache.NewRedis(ctx, cfg.Redis, log)
		if err != nil {
			infra.Close()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		infra.Redis = rc
	}

	return infra, nil
}

// Close releases every open connection
func (i *Infrastructure) Close() {
	if i.DB != nil {
		i.DB.Close()
	}
	if i.Redis != nil {
		_ = i.Redis.Close()
	}
}

// Backends lists the connected backends for readiness checks
func (i *Infrastructure) Backends() map[string]health.Pinger {
	out := make(map[string]health.Pinger)
	if i.DB != nil {
		out["postgres"] = i.DB
	}
	if i.Redis != nil {
		out["redis"] = i.Redis
	}
	return out
}

// NewHistoryStore returns the configured store, initialized, or nil when history is disabled
func NewHistoryStore(ctx context.Context, cfg *config.Config, infra *Infrastructure) (history.Store, error) {
	if !cfg.History.Enabled {
		return nil, nil
	}

	var store history.Store
	switch cfg.History.Backend {
	case config.HistoryRedis:
		store = cache.NewScanStore(infra.Redis)
	case config.HistoryPostgres:
		store = repository.NewScanRepository(infra.DB)
	default:
		store = history.NewMemoryStore()
	}

	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize %s history: %w", cfg.History.Backend, err)
	}
	return store, nil
}

// NewScanService loads the pattern library and builds the scan service around store
func NewScanService(cfg *config.Config, store history.Store, publisher services.EventPublisher, log *logger.Logger) (*services.ScanService, error) {
	lib, err := analyzer.LoadLibrary(cfg.Analyzer.LibraryPath)
	if err != nil {
		return nil, err
	}

	return services.NewScanService(analyzer.New(lib), store, publisher, services.ScanServiceConfig{
		MaxBatchSize:     cfg.Analyzer.MaxBatchSize,
		BatchConcurrency: cfg.Analyzer.BatchConcurrency,
		MaxContentLength: cfg.Analyzer.MaxContentLength,
	}, log), nil
}

// NewRemoteClassifier returns nil when remote classification is disabled
func NewRemoteClassifier(cfg config.RemoteConfig, log *logger.Logger) (*remote.Classifier, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	provider, err := remote.NewProvider(remote.Config{
		Provider:    cfg.Provider,
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		BaseURL:     cfg.BaseURL,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Timeout:     cfg.Timeout,
	})
	if err != nil {
		return nil, err
	}
	return remote.NewClassifier(provider, log), nil
}
