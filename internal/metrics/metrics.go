package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Import outcomes.
const (
	ImportCreated  = "created"
	ImportReplayed = "replayed"
	ImportInvalid  = "invalid"
	ImportFailed   = "failed"
)

// Image resolution outcomes.
const (
	ImageLocal    = "local"
	ImageCacheHit = "cache_hit"
	ImageFetched  = "fetched"
	ImageFailed   = "failed"
)

var (
	// HTTP request counters
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chatkanban",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "chatkanban",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"method", "route"},
	)

	ImportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chatkanban",
			Name:      "imports_total",
			Help:      "Thread imports by outcome",
		},
		[]string{"outcome"},
	)

	ImageResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chatkanban",
			Name:      "image_resolutions_total",
			Help:      "Image URL resolutions by outcome",
		},
		[]string{"outcome"},
	)

	ImageFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "chatkanban",
			Name:      "image_fetch_duration_seconds",
			Help:      "Time spent fetching one remote image",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5},
		},
	)

	MaintenanceUpdatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chatkanban",
			Name:      "maintenance_messages_updated_total",
			Help:      "Messages rewritten by maintenance jobs",
		},
		[]string{"job"},
	)
)

// RecordRequest records one HTTP request.
func RecordRequest(method, route, status string, duration time.Duration) {
	RequestsTotal.WithLabelValues(method, route, status).Inc()
	RequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordImport records an import outcome.
func RecordImport(outcome string) {
	ImportsTotal.WithLabelValues(outcome).Inc()
}

// RecordImageResolution records how one image URL was resolved.
func RecordImageResolution(outcome string) {
	ImageResolutionsTotal.WithLabelValues(outcome).Inc()
}

// RecordImageFetch records the duration of one remote fetch.
func RecordImageFetch(duration time.Duration) {
	ImageFetchDuration.Observe(duration.Seconds())
}

// RecordMaintenance adds updated messages for a job.
func RecordMaintenance(job string, updated int) {
	MaintenanceUpdatedTotal.WithLabelValues(job).Add(float64(updated))
}
