/*
Package metrics defines and registers the worker's Prometheus metrics and
exposes them over HTTP for scraping.

Metrics are grouped by the subsystem that emits them:

  - Attach lifecycle: AttachAttemptsTotal (by outcome), AttachedGauge,
    DetachesTotal.
  - Heartbeat: HeartbeatFailuresTotal, MissedHeartbeats.
  - Task pipeline: TasksEnqueuedTotal, TasksCompletedTotal, TasksFailedTotal
    (all by task kind), TaskDuration.
  - Transport: BytesTransferredTotal (by direction).
  - Package runtime: PackageDownloadAttemptsTotal.

All metrics are package-level prometheus.Collector values, registered with
the default registry at init time, and Handler returns the promhttp handler
that cmd/fednworker mounts at /metrics.

Timer is a small helper for measuring and recording operation duration
against a histogram or histogram vector without each caller repeating
time.Since bookkeeping.
*/
package metrics
