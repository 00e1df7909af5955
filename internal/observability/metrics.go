package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bulletin_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// LikeToggles counts like toggles by resulting state.
	LikeToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bulletin_like_toggles_total",
		Help: "Total number of like toggles by resulting state",
	}, []string{"state"})

	// AttachmentsStored counts stored attachment files by backend.
	AttachmentsStored = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bulletin_attachments_stored_total",
		Help: "Total number of attachment files stored",
	}, []string{"backend"})

	// AttachmentBytes records stored attachment sizes.
	AttachmentBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bulletin_attachment_bytes",
		Help:    "Size of stored attachment files in bytes",
		Buckets: prometheus.ExponentialBuckets(16*1024, 4, 6),
	})

	// AttachmentRejections counts rejected uploads by reason.
	AttachmentRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bulletin_attachment_rejections_total",
		Help: "Total number of rejected attachment uploads by reason",
	}, []string{"reason"})

	// CleanupFailures counts best-effort file removals that failed.
	CleanupFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bulletin_attachment_cleanup_failures_total",
		Help: "Total number of attachment removals that failed and were ignored",
	})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
