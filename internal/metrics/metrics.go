// Package metrics provides Prometheus metrics for the pulse service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the pulse service.
type Metrics struct {
	ComputeTotal    *prometheus.CounterVec
	ComputeDuration prometheus.Histogram
	TopicsDetected  prometheus.Gauge
	SnapshotsSaved  prometheus.Counter
	HTTPRequests    *prometheus.CounterVec
}

// New creates and registers all pulse metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		ComputeTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulse_compute_total",
				Help: "Total number of pulse computations",
			},
			[]string{"status"},
		),
		ComputeDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pulse_compute_duration_seconds",
				Help:    "Duration of pulse computations in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		TopicsDetected: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "pulse_topics_detected",
				Help: "Number of topics in the most recent computation",
			},
		),
		SnapshotsSaved: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "pulse_snapshots_saved_total",
				Help: "Total number of snapshots written",
			},
		),
		HTTPRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulse_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"path"},
		),
	}
}
