package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// runStates mirrors domain.RunState; kept as strings so this package stays a leaf
var runStates = []string{"idle", "running", "paused", "stopping", "stopped", "completed", "failed"}

var (
	// API Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediafetch_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mediafetch_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Run Metrics
	RunsStartedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediafetch_runs_started_total",
			Help: "Total number of runs started",
		},
		[]string{"kind"},
	)

	RunsFinishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediafetch_runs_finished_total",
			Help: "Total number of runs by terminal state",
		},
		[]string{"state"},
	)

	RunState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mediafetch_run_state",
			Help: "1 for the session's current run state, 0 otherwise",
		},
		[]string{"state"},
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mediafetch_run_duration_seconds",
			Help:    "Run duration in seconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 14), // 1s to ~4.5h
		},
	)

	// Item Metrics
	ItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediafetch_items_total",
			Help: "Total number of item cycles by outcome",
		},
		[]string{"state"},
	)

	ItemFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediafetch_item_failures_total",
			Help: "Total number of failed items by error kind",
		},
		[]string{"kind"},
	)

	ItemsSkippedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mediafetch_items_skipped_total",
			Help: "Collection entries skipped as unresolvable",
		},
	)

	ItemDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mediafetch_item_duration_seconds",
			Help:    "Item download cycle duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 14),
		},
		[]string{"state"},
	)

	// Transfer Metrics
	BytesDownloadedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mediafetch_bytes_downloaded_total",
			Help: "Bytes transferred by the engine",
		},
	)

	TransferRate = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediafetch_transfer_rate_bytes",
			Help: "Smoothed transfer rate of the active item in bytes per second",
		},
	)

	// Progress Metrics
	ProgressEventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mediafetch_progress_events_dropped_total",
			Help: "Progress events discarded because a subscriber fell behind",
		},
	)
)

// SetRunState flags the current state and clears the others
func SetRunState(state string) {
	for _, s := range runStates {
		if s == state {
			RunState.WithLabelValues(s).Set(1)
		} else {
			RunState.WithLabelValues(s).Set(0)
		}
	}
}
