package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"safesphere/internal/api/handlers"
	apimiddleware "safesphere/internal/api/middleware"
	"safesphere/internal/config"
	"safesphere/pkg/logger"
)

// Router holds dependencies for the API router
type Router struct {
	config   config.Config
	handlers *handlers.Handlers
	limiter  apimiddleware.RateLimitStore
	logger   *logger.Logger
}

// NewRouter creates a new Router instance. limiter may be nil, which disables rate limiting.
func NewRouter(cfg config.Config, h *handlers.Handlers, limiter apimiddleware.RateLimitStore, log *logger.Logger) *Router {
	return &Router{
		config:   cfg,
		handlers: h,
		limiter:  limiter,
		logger:   log.WithComponent("router"),
	}
}

// Setup sets up the Chi router with all routes and middleware
func (r *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Core middleware
	router.Use(apimiddleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(apimiddleware.Logger(r.logger))
	router.Use(middleware.Recoverer)
	if r.config.Server.RequestTimeout > 0 {
		router.Use(middleware.Timeout(r.config.Server.RequestTimeout))
	}

	// CORS
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   r.config.CORS.AllowedOrigins,
		AllowedMethods:   r.config.CORS.AllowedMethods,
		AllowedHeaders:   r.config.CORS.AllowedHeaders,
		ExposedHeaders:   []string{apimiddleware.RequestIDHeader, "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: r.config.CORS.AllowCredentials,
		MaxAge:           r.config.CORS.MaxAge,
	}))

	// Public routes
	router.Get("/health", r.handlers.Health.Check)
	router.Get("/ready", r.handlers.Health.Ready)

	// API v1 routes
	router.Route("/api/v1", func(api chi.Router) {
		if r.config.Auth.Enabled {
			api.Use(apimiddleware.APIKeyAuth(r.config.Auth.APIKeys))
		}
		if r.config.RateLimit.Enabled && r.limiter != nil {
			api.Use(apimiddleware.RateLimiter(r.limiter, r.config.RateLimit, r.logger))
		}

		// Content analysis
		api.Route("/analyze", func(analyze chi.Router) {
			analyze.Post("/", r.handlers.Analyze.Analyze)
			analyze.Post("/batch", r.handlers.Analyze.AnalyzeBatch)
			analyze.Post("/ai", r.handlers.Analyze.AnalyzeAI)
		})

		api.Post("/url/check", r.handlers.URL.CheckURLs)

		// History
		api.Get("/scans", r.handlers.Scans.List)
		api.Get("/stats", r.handlers.Scans.Stats)
		api.Get("/patterns", r.handlers.Scans.Patterns)

		// Admin
		api.Route("/admin", func(admin chi.Router) {
			admin.Use(apimiddleware.AdminAuth(r.config.Auth.AdminToken))

			admin.Get("/dashboard", r.handlers.Admin.Dashboard)
			admin.Get("/export", r.handlers.Admin.Export)
			admin.Delete("/scans", r.handlers.Admin.Clear)

			admin.Route("/events", func(events chi.Router) {
				events.Get("/ws", r.handlers.Streaming.HandleWebSocket)
				events.Get("/stats", r.handlers.Streaming.GetStats)
			})
		})
	})

	r.logger.Info().
		Bool("auth", r.config.Auth.Enabled).
		Bool("rate_limit", r.config.RateLimit.Enabled && r.limiter != nil).
		Bool("admin", r.config.Auth.AdminToken != "").
		Msg("routes configured")

	return router
}
