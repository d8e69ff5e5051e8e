package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/qotd/internal/adapters/http/handlers"
	"github.com/jsamuelsen/qotd/internal/adapters/http/middleware"
	"github.com/jsamuelsen/qotd/internal/platform/telemetry"
)

// RouterConfig contains configuration for setting up the router.
type RouterConfig struct {
	// Logger is the base logger for request logging.
	Logger *slog.Logger

	// ServiceName names the otel instrumentation.
	ServiceName string

	// HealthHandler serves the /-/ endpoints.
	HealthHandler *handlers.HealthHandler

	// QuoteHandler serves /api/v1/quotes. Optional.
	QuoteHandler *handlers.QuoteHandler
}

// SetupRouter configures middleware and routes on the engine.
// Middleware runs in this order:
//  1. Recovery
//  2. Logging, which seeds the request logger
//  3. Request ID
//  4. OpenTelemetry tracing and metrics
//
// Route groups:
//   - /-/ probes, build info and Prometheus metrics
//   - /api/v1/ read-only quote API
func SetupRouter(engine *gin.Engine, cfg RouterConfig) {
	engine.Use(
		middleware.Recovery(cfg.Logger),
		middleware.Logging(cfg.Logger),
		middleware.RequestID(),
		telemetry.TracingMiddleware(cfg.ServiceName),
		telemetry.Middleware(cfg.ServiceName),
	)

	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterHealthRoutes(engine)
	}

	if cfg.QuoteHandler != nil {
		cfg.QuoteHandler.RegisterQuoteRoutes(engine.Group("/api/v1"))
	}
}
