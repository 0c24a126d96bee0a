package health

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"safesphere/pkg/logger"
)

// ServiceName is the gRPC service name reported alongside the overall status
const ServiceName = "safesphere.v1.ScanService"

// Pinger is any backend whose liveness gates serving status
type Pinger interface {
	Ping(ctx context.Context) error
}

// Checker keeps the gRPC health status in sync with the backing stores
type Checker struct {
	server   *health.Server
	backends map[string]Pinger
	interval time.Duration
	logger   *logger.Logger
}

// NewChecker creates a checker. Nil backends are ignored.
func NewChecker(backends map[string]Pinger, interval time.Duration, log *logger.Logger) *Checker {
	live := make(map[string]Pinger, len(backends))
	for name, b := range backends {
		if b != nil {
			live[name] = b
		}
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}

	c := &Checker{
		server:   health.NewServer(),
		backends: live,
		interval: interval,
		logger:   log.WithComponent("grpc-health"),
	}
	c.setStatus(grpc_health_v1.HealthCheckResponse_SERVING)
	return c
}

// Register registers the health service on a gRPC server
func (c *Checker) Register(grpcServer *grpc.Server) {
	grpc_health_v1.RegisterHealthServer(grpcServer, c.server)
}

// Run checks the backends every interval until ctx is done, then reports NOT_SERVING
func (c *Checker) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			c.server.Shutdown()
			return
		case <-ticker.C:
			c.Check(ctx)
		}
	}
}

// Check pings every backend once and updates the serving status
func (c *Checker) Check(ctx context.Context) bool {
	healthy := true
	for name, b := range c.backends {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := b.Ping(pingCtx)
		cancel()
		if err != nil {
			healthy = false
			c.logger.Warn().Err(err).Str("backend", name).Msg("health check failed")
		}
	}

	if healthy {
		c.setStatus(grpc_health_v1.HealthCheckResponse_SERVING)
	} else {
		c.setStatus(grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	}
	return healthy
}

func (c *Checker) setStatus(status grpc_health_v1.HealthCheckResponse_ServingStatus) {
	c.server.SetServingStatus("", status)
	c.server.SetServingStatus(ServiceName, status)
}
