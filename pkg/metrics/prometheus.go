package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	decisions   *prometheus.CounterVec
	haltLevel   *prometheus.GaugeVec
	threshold   prometheus.Gauge
	errorsTotal *prometheus.CounterVec
	latency     *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		decisions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradegate_decisions_total",
				Help: "Admission decisions by asset, outcome and block reason",
			},
			[]string{"asset", "outcome", "reason"},
		),
		haltLevel: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tradegate_halt_level",
				Help: "Current halt level (1 for the active level, 0 otherwise)",
			},
			[]string{"level"},
		),
		threshold: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "tradegate_effective_threshold",
				Help: "Last computed cadence-adjusted admission threshold",
			},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradegate_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tradegate_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordDecision records one admission decision.
func (r *Recorder) RecordDecision(asset string, executed bool, reason string) {
	outcome := "admitted"
	if !executed {
		outcome = "blocked"
	}
	r.decisions.WithLabelValues(asset, outcome, reason).Inc()
}

// RecordHaltLevel records the current halt level as a one-hot gauge.
func (r *Recorder) RecordHaltLevel(level string) {
	for _, l := range []string{"NONE", "SOFT_HALT", "HARD_HALT"} {
		v := 0.0
		if l == level {
			v = 1.0
		}
		r.haltLevel.WithLabelValues(l).Set(v)
	}
}

// RecordThreshold records the last effective admission threshold.
func (r *Recorder) RecordThreshold(value float64) {
	r.threshold.Set(value)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
