package benchmark

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jsamuelsen/qotd/internal/adapters/http/handlers"
	"github.com/jsamuelsen/qotd/internal/adapters/qotd"
	"github.com/jsamuelsen/qotd/internal/app"
	"github.com/jsamuelsen/qotd/internal/domain"
	"github.com/jsamuelsen/qotd/internal/ports"
)

func init() {
	// Set Gin to release mode for accurate benchmarks
	gin.SetMode(gin.ReleaseMode)
}

var benchQuotes = []domain.Quote{
	{Text: "Simplicity is prerequisite for reliability.", Attribution: "Edsger W. Dijkstra"},
	{Text: "Talk is cheap. Show me the code.", Attribution: "Linus Torvalds"},
	{Text: "Stay hungry, stay foolish.", Attribution: "Steve Jobs"},
}

func newQuoteService(b *testing.B) *app.QuoteService {
	b.Helper()

	set, err := domain.NewQuoteSet(benchQuotes)
	if err != nil {
		b.Fatal(err)
	}

	return app.NewQuoteService(app.QuoteServiceConfig{
		Quotes: set,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

// createGinContext creates a Gin context for handler testing.
func createGinContext(w http.ResponseWriter, r *http.Request) *gin.Context {
	c, _ := gin.CreateTestContext(w)
	c.Request = r

	return c
}

// BenchmarkRender measures selecting and formatting today's quote.
func BenchmarkRender(b *testing.B) {
	svc := newQuoteService(b)
	ctx := context.Background()

	b.ReportAllocs()

	for b.Loop() {
		if _, err := svc.Render(ctx); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkTCPExchange measures a full connect, read, close cycle.
func BenchmarkTCPExchange(b *testing.B) {
	srv := startServer(b)
	addr := srv.TCPAddr().String()
	buf := make([]byte, 512)

	b.ReportAllocs()

	for b.Loop() {
		conn, err := net.Dial("tcp", addr)
		if err != nil {
			b.Fatal(err)
		}

		for {
			if _, err := conn.Read(buf); err != nil {
				break
			}
		}

		_ = conn.Close()
	}
}

// BenchmarkUDPExchange measures one datagram round trip.
func BenchmarkUDPExchange(b *testing.B) {
	srv := startServer(b)

	conn, err := net.Dial("udp", srv.UDPAddr().String())
	if err != nil {
		b.Fatal(err)
	}
	defer conn.Close()

	buf := make([]byte, 512)

	b.ReportAllocs()

	for b.Loop() {
		if _, err := conn.Write(nil); err != nil {
			b.Fatal(err)
		}

		_ = conn.SetReadDeadline(time.Now().Add(time.Second))
		if _, err := conn.Read(buf); err != nil {
			b.Fatal(err)
		}
	}
}

func startServer(b *testing.B) *qotd.Server {
	b.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	srv := qotd.New(qotd.Config{Host: "127.0.0.1", ReadBufferSize: 512}, newQuoteService(b), logger, nil)
	if err := srv.Listen(); err != nil {
		b.Fatal(err)
	}

	errCh := srv.Start()

	b.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = srv.Shutdown(ctx)
		<-errCh
	})

	return srv
}

// setupHealthHandler creates a HealthHandler with a minimal registry for benchmarking.
func setupHealthHandler() *handlers.HealthHandler {
	registry := ports.NewHealthRegistry()
	buildInfo := handlers.NewBuildInfo("1.0.0", "abc123", "2024-01-01T00:00:00Z")

	return handlers.NewHealthHandler(registry, buildInfo, prometheus.NewRegistry())
}

// BenchmarkLivenessHandler measures the performance of the liveness endpoint.
func BenchmarkLivenessHandler(b *testing.B) {
	handler := setupHealthHandler()
	req := httptest.NewRequest(http.MethodGet, "/-/live", http.NoBody)

	b.ReportAllocs()

	for b.Loop() {
		w := httptest.NewRecorder()
		handler.Liveness(createGinContext(w, req))
	}
}

// BenchmarkReadinessHandler_WithChecks measures readiness with the daemon's checks registered.
func BenchmarkReadinessHandler_WithChecks(b *testing.B) {
	registry := ports.NewHealthRegistry()

	for _, name := range []string{"quotes", "qotd-tcp", "qotd-udp"} {
		_ = registry.Register(ports.NewChecker(name, func(context.Context) error { return nil }))
	}

	handler := handlers.NewHealthHandler(registry, handlers.BuildInfo{}, prometheus.NewRegistry())
	req := httptest.NewRequest(http.MethodGet, "/-/ready", http.NoBody)

	b.ReportAllocs()

	for b.Loop() {
		w := httptest.NewRecorder()
		handler.Readiness(createGinContext(w, req))
	}
}

// BenchmarkQuoteHandler measures the JSON view of today's quote.
func BenchmarkQuoteHandler(b *testing.B) {
	handler := handlers.NewQuoteHandler(newQuoteService(b))
	req := httptest.NewRequest(http.MethodGet, "/api/v1/quotes/today", http.NoBody)

	b.ReportAllocs()

	for b.Loop() {
		w := httptest.NewRecorder()
		handler.GetToday(createGinContext(w, req))
	}
}
