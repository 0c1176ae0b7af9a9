// Package metrics provides Prometheus metrics for the service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "voxsub"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	JobsTotal     *prometheus.CounterVec
	JobsActive    prometheus.Gauge
	QueueDepth    prometheus.Gauge
	StageDuration *prometheus.HistogramVec
	JobDuration   prometheus.Histogram
	EventsTotal   *prometheus.CounterVec
}

// Default is the global metrics instance.
var Default = New()

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		JobsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_total",
			Help:      "Jobs processed, by source type and final status",
		}, []string{"source", "status"}),
		JobsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "jobs_active",
			Help:      "Jobs currently being processed",
		}),
		QueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Jobs waiting in the queue",
		}),
		StageDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage in seconds",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		}, []string{"stage"}),
		JobDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "End-to-end job duration in seconds",
			Buckets:   []float64{5, 15, 30, 60, 120, 300, 600, 1800, 3600},
		}),
		EventsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Completion events published, by outcome",
		}, []string{"outcome"}),
	}
}

// ObserveStage records the duration of one pipeline stage.
func (m *Metrics) ObserveStage(stage string, elapsed time.Duration) {
	m.StageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
}

// RecordJob records a finished job.
func (m *Metrics) RecordJob(source, status string, elapsed time.Duration) {
	m.JobsTotal.WithLabelValues(source, status).Inc()
	m.JobDuration.Observe(elapsed.Seconds())
}

// RecordEvent records an event publish attempt.
func (m *Metrics) RecordEvent(err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.EventsTotal.WithLabelValues(outcome).Inc()
}
