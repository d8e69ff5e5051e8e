package qotd

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Transport labels.
const (
	transportTCP = "tcp"
	transportUDP = "udp"
)

// Operation labels for qotd_errors_total.
const (
	opAccept = "accept"
	opRead   = "read"
	opRender = "render"
	opWrite  = "write"
	opPanic  = "panic"
)

// Metrics holds the Prometheus collectors for both transports.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	requests   *prometheus.CounterVec
	errors     *prometheus.CounterVec
	inflight   prometheus.Gauge
	replyBytes prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered, which is what most tests want.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "qotd_requests_total",
			Help: "Total number of accepted connections and received datagrams",
		}, []string{"transport"}),
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "qotd_errors_total",
			Help: "Total number of per-request failures",
		}, []string{"transport", "op"}),
		inflight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "qotd_inflight_connections",
			Help: "Current number of TCP connections being served",
		}),
		replyBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "qotd_reply_bytes",
			Help:    "Size of replies sent",
			Buckets: prometheus.ExponentialBuckets(64, 2, 10), // 64B to 32KiB
		}),
	}
}

func (m *Metrics) recordRequest(transport string) {
	if m == nil {
		return
	}

	m.requests.WithLabelValues(transport).Inc()
}

func (m *Metrics) recordError(transport, op string) {
	if m == nil {
		return
	}

	m.errors.WithLabelValues(transport, op).Inc()
}

func (m *Metrics) recordReply(n int) {
	if m == nil {
		return
	}

	m.replyBytes.Observe(float64(n))
}

func (m *Metrics) connOpened() {
	if m == nil {
		return
	}

	m.inflight.Inc()
}

func (m *Metrics) connClosed() {
	if m == nil {
		return
	}

	m.inflight.Dec()
}
