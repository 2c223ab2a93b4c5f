package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	ingestions     *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	storedSamples  prometheus.Gauge
	samplesWritten prometheus.Counter
	latency        *prometheus.HistogramVec
}

// New creates a recorder registered on the default registry. Call it once per process.
func New() *Recorder {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a recorder registered on reg.
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		ingestions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "neuroband_ingestions_total",
				Help: "Ingestion requests by mode and outcome",
			},
			[]string{"mode", "outcome"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "neuroband_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		storedSamples: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "neuroband_stored_samples",
				Help: "Voltage rows held by the signal store after the last replace",
			},
		),
		samplesWritten: f.NewCounter(
			prometheus.CounterOpts{
				Name: "neuroband_samples_written_total",
				Help: "Voltage rows written to the signal store",
			},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "neuroband_operation_duration_seconds",
				Help:    "Duration of pipeline operations in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"operation"},
		),
	}
}

// RecordIngestion counts one ingestion attempt.
func (r *Recorder) RecordIngestion(mode, outcome string) {
	r.ingestions.WithLabelValues(mode, outcome).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordStoredSamples records the row count written by a replace.
func (r *Recorder) RecordStoredSamples(n int) {
	r.storedSamples.Set(float64(n))
	r.samplesWritten.Add(float64(n))
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
