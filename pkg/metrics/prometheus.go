package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	processed *prometheus.CounterVec
	errors    *prometheus.CounterVec
	decisions *prometheus.CounterVec
	severity  *prometheus.GaugeVec
	latency   *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		processed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "biowatch_records_processed_total",
				Help: "Total number of telemetry records processed",
			},
			[]string{"stream"},
		),
		errors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "biowatch_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		decisions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "biowatch_decisions_total",
				Help: "Detection decisions by confusion outcome",
			},
			[]string{"outcome"},
		),
		severity: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "biowatch_severity_score",
				Help: "Last z-score severity observed for a stream",
			},
			[]string{"stream"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "biowatch_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordProcessed records one processed telemetry record.
func (r *Recorder) RecordProcessed(stream string) {
	r.processed.WithLabelValues(stream).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errors.WithLabelValues(kind).Inc()
}

// RecordDecision records a confusion matrix outcome.
func (r *Recorder) RecordDecision(outcome string) {
	r.decisions.WithLabelValues(outcome).Inc()
}

// RecordSeverity records the latest severity score for a stream.
func (r *Recorder) RecordSeverity(stream string, score float64) {
	r.severity.WithLabelValues(stream).Set(score)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
