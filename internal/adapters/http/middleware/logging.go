package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/qotd/internal/platform/logging"
	"github.com/jsamuelsen/qotd/internal/platform/telemetry"
)

// Logging seeds the request context with logger and writes one access line
// when the handler returns. Probe paths are neither seeded nor logged.
// It must run before RequestID so the ID lands on the seeded logger.
func Logging(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if telemetry.IsProbe(c.Request) {
			c.Next()
			return
		}

		start := time.Now()
		ctx := c.Request.Context()
		c.Request = c.Request.WithContext(logging.WithContext(ctx, logging.FromContextOr(ctx, logger)))

		c.Next()

		ctx = c.Request.Context()
		status := c.Writer.Status()

		logging.FromContext(ctx).Log(ctx, levelForStatus(status), "request completed",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.String("route", c.FullPath()),
			slog.String("client_ip", c.ClientIP()),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.Int("bytes", c.Writer.Size()),
		)
	}
}

func levelForStatus(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
