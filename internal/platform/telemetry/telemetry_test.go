package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestNew_Disabled(t *testing.T) {
	p, err := New(context.Background(), &Config{Enabled: false})
	require.NoError(t, err)

	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestTracer_NoopWhenDisabled(t *testing.T) {
	_, span := Tracer("qotd").Start(context.Background(), "qotd.tcp")
	defer span.End()

	assert.False(t, span.SpanContext().IsValid())
}

func TestIsProbe(t *testing.T) {
	tests := map[string]bool{
		"/-/live":              true,
		"/-/metrics":           true,
		"/api/v1/quotes/today": false,
		"/":                    false,
	}

	for path, want := range tests {
		t.Run(path, func(t *testing.T) {
			assert.Equal(t, want, IsProbe(httptest.NewRequest(http.MethodGet, path, nil)))
		})
	}
}

func TestMiddleware_PassesThrough(t *testing.T) {
	engine := gin.New()
	engine.Use(TracingMiddleware("qotd-test"), Middleware("qotd-test"))
	engine.GET("/-/live", func(c *gin.Context) { c.Status(http.StatusOK) })
	engine.GET("/api/v1/quotes/today", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	for path, want := range map[string]int{"/-/live": http.StatusOK, "/api/v1/quotes/today": http.StatusTeapot} {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

		assert.Equal(t, want, w.Code, path)
		assert.Empty(t, w.Header().Get(HeaderTraceID), "noop provider yields no trace ID")
	}
}
