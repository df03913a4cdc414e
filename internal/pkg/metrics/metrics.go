package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Job metrics
var (
	JobsEnqueuedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_jobs_enqueued_total",
			Help: "Total number of transcode jobs admitted to the queue",
		},
		[]string{"preset"},
	)

	JobsFinishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_jobs_finished_total",
			Help: "Total number of transcode jobs that reached a terminal state",
		},
		[]string{"preset", "state"},
	)

	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "video_job_duration_seconds",
			Help:    "Wall time of a transcode job from pickup to terminal state",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200, 3600},
		},
		[]string{"preset"},
	)

	JobsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "video_jobs_in_flight",
			Help: "Number of transcode jobs currently being processed",
		},
	)
)

// Filesystem guard metrics
var (
	PathRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_path_rejections_total",
			Help: "Total number of filesystem paths rejected as outside the allowed roots",
		},
		[]string{"operation"},
	)
)

// Queue maintenance metrics
var (
	LeasesReapedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "video_queue_leases_reaped_total",
			Help: "Total number of expired job leases returned to the wait list",
		},
	)
)
