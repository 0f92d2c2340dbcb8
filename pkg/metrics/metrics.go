package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Attach lifecycle metrics
	AttachAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fednworker_attach_attempts_total",
			Help: "Total number of assign attempts by outcome",
		},
		[]string{"outcome"},
	)

	AttachedGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "fednworker_attached",
			Help: "Whether the worker currently holds a live channel (1) or not (0)",
		},
	)

	DetachesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fednworker_detaches_total",
			Help: "Total number of times the worker has detached from a combiner",
		},
	)

	// Heartbeat metrics
	HeartbeatFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fednworker_heartbeat_failures_total",
			Help: "Total number of failed heartbeat sends",
		},
	)

	MissedHeartbeats = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "fednworker_missed_heartbeats",
			Help: "Current count of consecutive missed heartbeats",
		},
	)

	// Task pipeline metrics
	TasksEnqueuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fednworker_tasks_enqueued_total",
			Help: "Total number of tasks enqueued by kind",
		},
		[]string{"kind"},
	)

	TasksCompletedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fednworker_tasks_completed_total",
			Help: "Total number of tasks completed successfully by kind",
		},
		[]string{"kind"},
	)

	TasksFailedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fednworker_tasks_failed_total",
			Help: "Total number of tasks that failed by kind",
		},
		[]string{"kind"},
	)

	TaskDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fednworker_task_duration_seconds",
			Help:    "Task processing duration in seconds by kind",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	// Transport metrics
	BytesTransferredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fednworker_bytes_transferred_total",
			Help: "Total bytes transferred by direction (upload/download)",
		},
		[]string{"direction"},
	)

	// Package runtime metrics
	PackageDownloadAttemptsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fednworker_package_download_attempts_total",
			Help: "Total number of compute package download attempts",
		},
	)
)

func init() {
	prometheus.MustRegister(AttachAttemptsTotal)
	prometheus.MustRegister(AttachedGauge)
	prometheus.MustRegister(DetachesTotal)
	prometheus.MustRegister(HeartbeatFailuresTotal)
	prometheus.MustRegister(MissedHeartbeats)
	prometheus.MustRegister(TasksEnqueuedTotal)
	prometheus.MustRegister(TasksCompletedTotal)
	prometheus.MustRegister(TasksFailedTotal)
	prometheus.MustRegister(TaskDuration)
	prometheus.MustRegister(BytesTransferredTotal)
	prometheus.MustRegister(PackageDownloadAttemptsTotal)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
