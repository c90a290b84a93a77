// Package metrics implements Prometheus metrics for both tiers.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TaskStatus tracks the current status of a task (0=inactive, 1=active)
	// per (task, status) label pair, mirroring the gauge-flip pattern used
	// on every lifecycle transition.
	TaskStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "scrapeforge_task_status",
			Help: "Current status of tasks (value 1 on the active status, 0 otherwise)",
		},
		[]string{"task", "status"},
	)

	// TasksCreatedTotal counts tasks created by the frontend.
	TasksCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scrapeforge_tasks_created_total",
			Help: "Total number of scrape tasks created",
		},
	)

	// TasksEvictedTotal counts tasks dropped by the registry's bounded eviction.
	TasksEvictedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scrapeforge_tasks_evicted_total",
			Help: "Total number of tasks evicted due to registry capacity",
		},
	)

	// PipelineStageLatencySeconds measures per-stage orchestrator latency.
	PipelineStageLatencySeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scrapeforge_pipeline_stage_latency_seconds",
			Help:    "Latency of frontend pipeline stages in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	// BackendCallsTotal counts remote calls to the backend dispatcher by
	// job type and outcome (success, failure, timeout).
	BackendCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scrapeforge_backend_calls_total",
			Help: "Total number of remote calls made to the backend dispatcher",
		},
		[]string{"job_type", "outcome"},
	)

	// DispatcherJobsTotal counts jobs executed by the backend dispatcher by
	// type and outcome.
	DispatcherJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scrapeforge_dispatcher_jobs_total",
			Help: "Total number of jobs executed by the backend dispatcher",
		},
		[]string{"job_type", "outcome"},
	)

	// DispatcherJobDurationSeconds measures job execution time inside the
	// worker pool, from submission to result (or timeout).
	DispatcherJobDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scrapeforge_dispatcher_job_duration_seconds",
			Help:    "Duration of backend jobs in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"job_type"},
	)

	// WorkerPoolActive tracks the number of worker processes currently busy.
	WorkerPoolActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scrapeforge_worker_pool_active",
			Help: "Number of backend worker processes currently executing a job",
		},
	)
)
