package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Ingest failure reasons.
const (
	ReasonValidation = "validation"
	ReasonStorage    = "storage"
)

// Like outcomes.
const (
	LikeCounted = "counted"
	LikeCapped  = "capped"
)

var (
	sessionsIngested = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analytics_sessions_ingested_total",
			Help: "Page-view sessions stored, by device class.",
		},
		[]string{"device"},
	)

	ingestFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analytics_ingest_failures_total",
			Help: "Rejected or failed page-view ingestions, by reason.",
		},
		[]string{"reason"},
	)

	postViews = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "poststats_views_total",
			Help: "Post view increments applied.",
		},
	)

	postLikes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poststats_likes_total",
			Help: "Post like attempts, by outcome.",
		},
		[]string{"result"},
	)

	trackerDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tracker_events_dropped_total",
			Help: "Client events dropped because the delivery queue was full.",
		},
	)
)

func init() {
	prometheus.MustRegister(sessionsIngested, ingestFailures, postViews, postLikes, trackerDropped)
}

// SessionIngested counts a stored session. An empty device is recorded as
// "unknown".
func SessionIngested(device string) {
	if device == "" {
		device = "unknown"
	}
	sessionsIngested.WithLabelValues(device).Inc()
}

// IngestFailed counts a failed ingestion for reason.
func IngestFailed(reason string) { ingestFailures.WithLabelValues(reason).Inc() }

// PostViewed counts a view increment.
func PostViewed() { postViews.Inc() }

// PostLiked counts a like attempt; capped attempts change nothing.
func PostLiked(capped bool) {
	if capped {
		postLikes.WithLabelValues(LikeCapped).Inc()
		return
	}
	postLikes.WithLabelValues(LikeCounted).Inc()
}

// TrackerDropped counts an event dropped by the tracker.
func TrackerDropped() { trackerDropped.Inc() }
