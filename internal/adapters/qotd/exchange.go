// Package qotd serves the Quote of the Day protocol over TCP and UDP.
//
// A TCP client gets one reply and then the connection is closed. A UDP
// client gets one reply datagram for every datagram it sends; the payload
// is never read. Both transports share a Renderer and the same port.
package qotd

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/qotd/internal/platform/logging"
	"github.com/jsamuelsen/qotd/internal/platform/telemetry"
)

// Renderer produces the wire bytes of the current quote.
// Implementations must be safe for concurrent use.
type Renderer interface {
	Render(ctx context.Context) ([]byte, error)
}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(ctx context.Context) ([]byte, error)

// Render implements Renderer.
func (f RendererFunc) Render(ctx context.Context) ([]byte, error) {
	return f(ctx)
}

// handler holds what both transports need to serve one exchange.
type handler struct {
	transport string
	renderer  Renderer
	logger    *slog.Logger
	metrics   *Metrics
	tracer    trace.Tracer
}

func newHandler(transport string, renderer Renderer, logger *slog.Logger, metrics *Metrics) handler {
	if logger == nil {
		logger = slog.Default()
	}

	return handler{
		transport: transport,
		renderer:  renderer,
		logger:    logger.With(slog.String("component", "qotd")),
		metrics:   metrics,
		tracer:    telemetry.Tracer("qotd"),
	}
}

// begin tags ctx with a fresh request ID and the peer, and opens a span.
// When tracing is enabled the trace ID is attached to the context logger too.
func (h handler) begin(ctx context.Context, remoteAddr string) (context.Context, trace.Span) {
	ctx = logging.WithContext(ctx, h.logger)
	ctx = logging.WithRequestID(ctx, uuid.NewString())
	ctx = logging.WithExchange(ctx, h.transport, remoteAddr)

	h.metrics.recordRequest(h.transport)

	ctx, span := h.tracer.Start(ctx, "qotd."+h.transport,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("network.transport", h.transport),
			attribute.String("network.peer.address", remoteAddr),
		),
	)

	if sc := span.SpanContext(); sc.HasTraceID() {
		ctx = logging.WithTraceID(ctx, sc.TraceID().String())
	}

	return ctx, span
}

// fail logs and counts a per-request error. It never stops the serve loop.
func (h handler) fail(ctx context.Context, span trace.Span, op string, err error, attrs ...slog.Attr) {
	h.metrics.recordError(h.transport, op)

	span.RecordError(err)
	span.SetStatus(codes.Error, op)

	attrs = append([]slog.Attr{
		slog.String("op", op),
		slog.String("error", err.Error()),
	}, attrs...)

	logging.FromContextOr(ctx, h.logger).LogAttrs(ctx, slog.LevelError, "qotd exchange failed", attrs...)
}

// sent records a successful reply.
func (h handler) sent(ctx context.Context, span trace.Span, n int) {
	h.metrics.recordReply(n)

	span.SetAttributes(attribute.Int("qotd.reply_bytes", n))

	logging.FromContextOr(ctx, h.logger).DebugContext(ctx, "quote sent", slog.Int("bytes", n))
}

// recoverPanic turns a panic inside one exchange into a logged error.
// It must be deferred directly.
func (h handler) recoverPanic(ctx context.Context, span trace.Span) {
	if r := recover(); r != nil {
		h.fail(ctx, span, opPanic, fmt.Errorf("panic: %v", r),
			slog.String("stack", string(debug.Stack())),
		)
	}
}
