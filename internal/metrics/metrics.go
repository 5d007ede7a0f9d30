package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of the service.
type Metrics struct {
	// RequestLatency tracks request latency by route, method and status
	RequestLatency *prometheus.HistogramVec
	// RequestsTotal counts requests by route, method and status
	RequestsTotal *prometheus.CounterVec
	// Logins counts callback outcomes
	Logins *prometheus.CounterVec
	// DriveLists counts file listing outcomes by storage backend
	DriveLists *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates and registers all collectors on a private registry.
func NewMetrics(namespace string) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		RequestLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_latency_seconds",
				Help:      "Request latency in seconds",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
			},
			[]string{"route", "method", "status"},
		),
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total number of requests",
			},
			[]string{"route", "method", "status"},
		),
		Logins: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "logins_total",
				Help:      "Total number of OAuth callbacks by outcome",
			},
			[]string{"outcome"},
		),
		DriveLists: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "drive_list_total",
				Help:      "Total number of file listings by backend and outcome",
			},
			[]string{"backend", "outcome"},
		),
	}

	registry.MustRegister(
		m.RequestLatency,
		m.RequestsTotal,
		m.Logins,
		m.DriveLists,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// RecordRequest records one handled request. Recording on a nil *Metrics
// is a no-op.
func (m *Metrics) RecordRequest(route, method, status string, seconds float64) {
	if m == nil {
		return
	}
	m.RequestLatency.WithLabelValues(route, method, status).Observe(seconds)
	m.RequestsTotal.WithLabelValues(route, method, status).Inc()
}

// RecordLogin records a callback outcome.
func (m *Metrics) RecordLogin(outcome string) {
	if m == nil {
		return
	}
	m.Logins.WithLabelValues(outcome).Inc()
}

// RecordDriveList records a file listing outcome.
func (m *Metrics) RecordDriveList(backend, outcome string) {
	if m == nil {
		return
	}
	m.DriveLists.WithLabelValues(backend, outcome).Inc()
}

// Handler returns the exposition handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
