package telemetry

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// HeaderTraceID carries the active trace ID back to admin clients.
const HeaderTraceID = "X-Trace-ID"

// probePrefix marks admin paths that are polled by supervisors and scrapers.
const probePrefix = "/-/"

// httpInstruments are the admin server's OTel instruments.
type httpInstruments struct {
	duration metric.Float64Histogram
	requests metric.Int64Counter
}

func newHTTPInstruments(meter metric.Meter) (*httpInstruments, error) {
	duration, durErr := meter.Float64Histogram(
		"qotd.admin.request.duration",
		metric.WithDescription("Admin HTTP request duration"),
		metric.WithUnit("s"),
	)

	requests, reqErr := meter.Int64Counter(
		"qotd.admin.requests",
		metric.WithDescription("Admin HTTP requests served"),
	)

	if err := errors.Join(durErr, reqErr); err != nil {
		return nil, err
	}

	return &httpInstruments{duration: duration, requests: requests}, nil
}

// IsProbe reports whether r targets a health, build or metrics path.
func IsProbe(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, probePrefix)
}

// TracingMiddleware starts a server span per admin request. Probe paths are not traced.
func TracingMiddleware(serviceName string) gin.HandlerFunc {
	return otelgin.Middleware(serviceName,
		otelgin.WithFilter(func(r *http.Request) bool { return !IsProbe(r) }),
	)
}

// Middleware records request metrics and echoes the trace ID header.
// Probe paths are passed through untouched.
func Middleware(_ string) gin.HandlerFunc {
	inst, err := newHTTPInstruments(otel.Meter(instrumentationName + "/admin"))
	if err != nil {
		otel.Handle(err)
	}

	return func(c *gin.Context) {
		if IsProbe(c.Request) {
			c.Next()
			return
		}

		start := time.Now()

		if sc := trace.SpanFromContext(c.Request.Context()).SpanContext(); sc.HasTraceID() {
			c.Header(HeaderTraceID, sc.TraceID().String())
		}

		c.Next()

		if inst == nil {
			return
		}

		ctx := c.Request.Context()
		attrs := metric.WithAttributes(
			attribute.String("http.request.method", c.Request.Method),
			attribute.String("http.route", c.FullPath()),
			attribute.Int("http.response.status_code", c.Writer.Status()),
		)

		inst.duration.Record(ctx, time.Since(start).Seconds(), attrs)
		inst.requests.Add(ctx, 1, attrs)
	}
}
