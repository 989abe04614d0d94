package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// RunMetrics tracks scheduler activity for one run. All methods are safe on a
// nil receiver so callers can skip metrics entirely.
type RunMetrics struct {
	registry *prometheus.Registry
	jobs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight prometheus.Gauge
}

// NewRunMetrics registers the run collectors on a fresh registry.
func NewRunMetrics() *RunMetrics {
	reg := prometheus.NewRegistry()
	m := &RunMetrics{
		registry: reg,
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "simsweep",
			Name:      "jobs_total",
			Help:      "Simulation jobs finished, by configuration and outcome kind.",
		}, []string{"config", "kind"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "simsweep",
			Name:      "job_duration_seconds",
			Help:      "Wall-clock duration of simulation jobs.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}, []string{"config"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "simsweep",
			Name:      "jobs_in_flight",
			Help:      "Simulation processes currently running.",
		}),
	}
	reg.MustRegister(m.jobs, m.duration, m.inFlight)
	return m
}

func (m *RunMetrics) JobStarted() {
	if m == nil {
		return
	}
	m.inFlight.Inc()
}

func (m *RunMetrics) JobFinished(config, kind string, seconds float64) {
	if m == nil {
		return
	}
	m.inFlight.Dec()
	m.jobs.WithLabelValues(config, kind).Inc()
	m.duration.WithLabelValues(config).Observe(seconds)
}

// JobSkipped counts a job that never reached a worker.
func (m *RunMetrics) JobSkipped(config, kind string) {
	if m == nil {
		return
	}
	m.jobs.WithLabelValues(config, kind).Inc()
}

func (m *RunMetrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// WriteTextfile dumps the metrics in exposition format, suitable for the node
// exporter textfile collector.
func (m *RunMetrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
