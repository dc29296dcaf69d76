// Package prom provides a Prometheus-backed metrics sink for the sync
// pipeline.
package prom

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/halcyon-labs/nextfind/internal/core/ports/driven"
)

// Ensure Metrics implements the interface.
var _ driven.Metrics = (*Metrics)(nil)

// Metrics exposes per-operation counters and duration histograms.
type Metrics struct {
	registry *prometheus.Registry
	ops      *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates and registers the pipeline metrics on a fresh
// registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	ops := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nextfind",
		Name:      "operations_total",
		Help:      "Pipeline operations by name and outcome.",
	}, []string{"op", "outcome"})

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "nextfind",
		Name:      "operation_duration_seconds",
		Help:      "Pipeline operation latency by name.",
		// Document processing spans milliseconds (cache hits) to tens
		// of seconds (large files through a remote embedder).
		Buckets: []float64{.01, .05, .1, .5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"op"})

	registry.MustRegister(ops, duration)

	return &Metrics{registry: registry, ops: ops, duration: duration}
}

// CountOp increments the counter for an operation outcome.
func (m *Metrics) CountOp(op string, success bool) {
	outcome := "success"
	if !success {
		outcome = "error"
	}
	m.ops.WithLabelValues(op, outcome).Inc()
}

// ObserveDuration records how long an operation took.
func (m *Metrics) ObserveDuration(op string, d time.Duration) {
	m.duration.WithLabelValues(op).Observe(d.Seconds())
}

// Handler returns an HTTP handler serving the /metrics scrape endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Noop is a metrics sink that discards everything. Used when the
// metrics endpoint is disabled and in tests.
type Noop struct{}

var _ driven.Metrics = Noop{}

func (Noop) CountOp(string, bool)                  {}
func (Noop) ObserveDuration(string, time.Duration) {}
