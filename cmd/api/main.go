package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"google.golang.org/grpc"

	"safesphere/internal/api"
	"safesphere/internal/api/handlers"
	apimiddleware "safesphere/internal/api/middleware"
	"safesphere/internal/app"
	"safesphere/internal/config"
	"safesphere/internal/grpc/health"
	"safesphere/internal/streaming"
	"safesphere/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// Load .env file if it exists
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := app.NewLogger(cfg)
	logger.SetGlobal(log)

	log.Info().
		Str("app", cfg.App.Name).
		Str("env", cfg.App.Environment).
		Str("version", cfg.App.Version).
		Msg("starting SafeSphere")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize infrastructure
	infra, err := app.OpenInfrastructure(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize infrastructure")
	}
	defer infra.Close()

	store, err := app.NewHistoryStore(ctx, cfg, infra)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize scan history")
	}
	log.Info().
		Bool("enabled", store != nil).
		Str("backend", cfg.History.Backend).
		Msg("scan history initialized")

	// Initialize streaming infrastructure
	var remotePublisher streaming.RemotePublisher
	if cfg.NATS.Enabled {
		natsPublisher, err := streaming.NewNATSPublisher(ctx, cfg.NATS, log)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to NATS, continuing with local events only")
		} else {
			remotePublisher = natsPublisher
		}
	}

	eventBus := streaming.NewEventBus(remotePublisher, log)
	defer eventBus.Close()
	log.Info().Bool("nats_enabled", remotePublisher != nil).Msg("event bus initialized")

	wsHub := streaming.NewWebSocketHub(eventBus, nil, log)
	go wsHub.Run(ctx)

	// Initialize services
	scanService, err := app.NewScanService(cfg, store, streaming.NewEventBusPublisher(eventBus), log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load pattern library")
	}
	log.Info().
		Str("library", cfg.Analyzer.LibraryPath).
		Int("legitimate_domains", len(scanService.Library().LegitimateDomains)).
		Msg("analyzer initialized")

	remoteClassifier, err := app.NewRemoteClassifier(cfg.Remote, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize remote classifier")
	}

	// Initialize handlers
	backends := infra.Backends()
	handlerBackends := make(map[string]handlers.Pinger, len(backends))
	for name, b := range backends {
		handlerBackends[name] = b
	}

	deps := handlers.Dependencies{
		ScanService: scanService,
		Backends:    handlerBackends,
		EventBus:    eventBus,
		WSHub:       wsHub,
		Version:     cfg.App.Version,
		Logger:      log,
	}
	if remoteClassifier != nil {
		deps.Remote = remoteClassifier
		log.Info().Str("provider", cfg.Remote.Provider).Msg("remote classifier enabled")
	}
	h := handlers.NewHandlers(deps)

	// Create router
	var limiter apimiddleware.RateLimitStore
	if infra.Redis != nil {
		limiter = infra.Redis
	} else if cfg.RateLimit.Enabled {
		log.Warn().Msg("rate limiting needs Redis, requests will not be limited")
	}
	router := api.NewRouter(*cfg, h, limiter, log)
	httpHandler := router.Setup()

	// Start HTTP server
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.HTTPPort),
		Handler:      httpHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().
			Str("addr", httpServer.Addr).
			Msg("starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Start gRPC health server
	grpcListener, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.GRPCPort))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create gRPC listener")
	}

	grpcServer := grpc.NewServer()
	checker := health.NewChecker(backends, 0, log)
	checker.Register(grpcServer)
	go checker.Run(ctx)

	go func() {
		log.Info().
			Str("addr", grpcListener.Addr().String()).
			Msg("starting gRPC server")
		if err := grpcServer.Serve(grpcListener); err != nil {
			log.Fatal().Err(err).Msg("gRPC server failed")
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down...")

	// Cancel context to stop background services
	cancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	grpcServer.GracefulStop()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Msg("shutdown complete")
}
