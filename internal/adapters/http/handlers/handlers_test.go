package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"runtime"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/qotd/internal/adapters/http/dto"
	"github.com/jsamuelsen/qotd/internal/domain"
	"github.com/jsamuelsen/qotd/internal/ports"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubQuotes struct {
	daily *domain.DailyQuote
	reply []byte
	err   error
}

func (s *stubQuotes) Today(context.Context) (*domain.DailyQuote, error) {
	return s.daily, s.err
}

func (s *stubQuotes) Render(context.Context) ([]byte, error) {
	return s.reply, s.err
}

func serve(t *testing.T, register func(*gin.Engine), target string) *httptest.ResponseRecorder {
	t.Helper()

	engine := gin.New()
	register(engine)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))

	return w
}

func TestNewBuildInfo(t *testing.T) {
	bi := NewBuildInfo("1.0.0", "abc123", "2024-01-15T10:00:00Z")

	assert.Equal(t, "1.0.0", bi.Version)
	assert.Equal(t, "abc123", bi.Commit)
	assert.Equal(t, "2024-01-15T10:00:00Z", bi.BuildTime)
	assert.Equal(t, runtime.Version(), bi.GoVersion)
}

func TestHealthHandler_Liveness(t *testing.T) {
	h := NewHealthHandler(ports.NewHealthRegistry(), BuildInfo{}, prometheus.NewRegistry())

	w := serve(t, h.RegisterHealthRoutes, "/-/live")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestHealthHandler_Readiness(t *testing.T) {
	tests := []struct {
		name           string
		checks         map[string]error
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "no checks registered",
			expectedStatus: http.StatusOK,
			expectedBody:   "healthy",
		},
		{
			name: "all listeners healthy",
			checks: map[string]error{
				"qotd-tcp": nil,
				"qotd-udp": nil,
				"quotes":   nil,
			},
			expectedStatus: http.StatusOK,
			expectedBody:   "healthy",
		},
		{
			name: "quotes file gone",
			checks: map[string]error{
				"qotd-tcp": nil,
				"quotes":   domain.NewUnavailableError("quotes", "no such file"),
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedBody:   "no such file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := ports.NewHealthRegistry()
			for name, err := range tt.checks {
				require.NoError(t, registry.Register(ports.NewChecker(name, func(context.Context) error {
					return err
				})))
			}

			h := NewHealthHandler(registry, BuildInfo{}, prometheus.NewRegistry())

			w := serve(t, h.RegisterHealthRoutes, "/-/ready")

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
		})
	}
}

func TestHealthHandler_BuildInfo(t *testing.T) {
	h := NewHealthHandler(ports.NewHealthRegistry(), NewBuildInfo("2.0.0", "deadbeef", "now"), nil)

	w := serve(t, h.RegisterHealthRoutes, "/-/build")

	require.Equal(t, http.StatusOK, w.Code)

	var got BuildInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "2.0.0", got.Version)
	assert.Equal(t, "deadbeef", got.Commit)
}

func TestHealthHandler_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "qotd_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Add(3)

	h := NewHealthHandler(ports.NewHealthRegistry(), BuildInfo{}, reg)

	w := serve(t, h.RegisterHealthRoutes, "/-/metrics")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "qotd_test_total 3")
}

func TestQuoteHandler_GetToday(t *testing.T) {
	daily := &domain.DailyQuote{
		Day:   19783,
		Index: 1,
		Quote: domain.Quote{Text: "Stay hungry.", Attribution: "Steve Jobs"},
	}

	tests := []struct {
		name           string
		stub           *stubQuotes
		target         string
		expectedStatus int
		expectedBody   string
		expectedType   string
	}{
		{
			name:           "json by default",
			stub:           &stubQuotes{daily: daily},
			target:         "/api/v1/quotes/today",
			expectedStatus: http.StatusOK,
			expectedBody:   `{"index":1,"day":19783,"date":"2024-03-01","text":"Stay hungry.","attribution":"Steve Jobs"}`,
			expectedType:   "application/json",
		},
		{
			name:           "explicit json",
			stub:           &stubQuotes{daily: daily},
			target:         "/api/v1/quotes/today?format=json",
			expectedStatus: http.StatusOK,
			expectedBody:   `"attribution":"Steve Jobs"`,
			expectedType:   "application/json",
		},
		{
			name:           "wire format",
			stub:           &stubQuotes{reply: []byte("\"Stay hungry.\"\n\n\t-- Steve Jobs\n")},
			target:         "/api/v1/quotes/today?format=wire",
			expectedStatus: http.StatusOK,
			expectedBody:   "\"Stay hungry.\"\n\n\t-- Steve Jobs\n",
			expectedType:   "text/plain",
		},
		{
			name:           "unknown format",
			stub:           &stubQuotes{daily: daily},
			target:         "/api/v1/quotes/today?format=xml",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   dto.ErrorCodeBadRequest,
		},
		{
			name:           "clock before epoch",
			stub:           &stubQuotes{err: domain.ErrClockBeforeEpoch},
			target:         "/api/v1/quotes/today",
			expectedStatus: http.StatusServiceUnavailable,
			expectedBody:   dto.ErrorCodeUnavailable,
		},
		{
			name:           "unexpected error hides details",
			stub:           &stubQuotes{err: errors.New("disk on fire")},
			target:         "/api/v1/quotes/today?format=wire",
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   "an internal error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewQuoteHandler(tt.stub)

			w := serve(t, func(e *gin.Engine) { h.RegisterQuoteRoutes(e.Group("/api/v1")) }, tt.target)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)

			if tt.expectedType != "" {
				assert.Contains(t, w.Header().Get("Content-Type"), tt.expectedType)
			}
		})
	}
}

func TestQuoteHandler_UnknownFormatDetails(t *testing.T) {
	h := NewQuoteHandler(&stubQuotes{})

	w := serve(t, func(e *gin.Engine) { h.RegisterQuoteRoutes(e.Group("/api/v1")) }, "/api/v1/quotes/today?format=yaml")

	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "must be one of: json wire", resp.Error.Details["format"])
}
