package logging

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

var defaultLogger = slog.Default()

// SetDefault replaces the logger returned when a context carries none.
// It also becomes the slog package default.
func SetDefault(logger *slog.Logger) {
	defaultLogger = logger
	slog.SetDefault(logger)
}

// WithContext stores a logger in the context.
func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the logger stored in ctx, or the default logger.
func FromContext(ctx context.Context) *slog.Logger {
	return FromContextOr(ctx, defaultLogger)
}

// FromContextOr returns the logger stored in ctx, or fallback. A nil ctx is allowed.
func FromContextOr(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if ctx == nil {
		return fallback
	}

	logger, ok := ctx.Value(ctxKey{}).(*slog.Logger)
	if !ok {
		return fallback
	}

	return logger
}

// WithAttrs derives a context whose logger carries attrs. The parent is unchanged.
func WithAttrs(ctx context.Context, attrs ...slog.Attr) context.Context {
	if len(attrs) == 0 {
		return ctx
	}

	handler := FromContext(ctx).Handler().WithAttrs(attrs)

	return WithContext(ctx, slog.New(handler))
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return WithAttrs(ctx, slog.String("request_id", requestID))
}

func WithTraceID(ctx context.Context, traceID string) context.Context {
	return WithAttrs(ctx, slog.String("trace_id", traceID))
}

// WithExchange tags the context logger with the transport and peer of one QOTD exchange.
func WithExchange(ctx context.Context, transport, remoteAddr string) context.Context {
	return WithAttrs(ctx,
		slog.String("transport", transport),
		slog.String("remote_addr", remoteAddr),
	)
}
