package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	SearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aggregator_searches_total",
			Help: "Searches by tool and outcome (ok, empty, degraded, misconfigured)",
		},
		[]string{"tool", "outcome"},
	)

	SearchesActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "aggregator_searches_active",
			Help: "Searches currently in flight per tool",
		},
		[]string{"tool"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aggregator_stage_duration_seconds",
			Help:    "Duration of each pipeline stage",
			Buckets: []float64{0.05, 0.25, 1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"tool", "stage"},
	)

	RecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aggregator_records_total",
			Help: "Records seen per stage (fetched, normalized, deduplicated)",
		},
		[]string{"tool", "stage"},
	)

	PollAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aggregator_poll_attempts_total",
			Help: "Run status fetches by observed status",
		},
		[]string{"status"},
	)

	DatasetCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aggregator_dataset_cache_lookups_total",
			Help: "Dataset cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)
)
