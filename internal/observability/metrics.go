package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts counts authentication attempts by method and outcome.
	AuthAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "instagram_auth_attempts_total",
		Help: "Authentication attempts by method (local, kakao, firebase) and outcome",
	}, []string{"method", "outcome"})

	// ProviderRequestDuration records latency of calls to identity providers.
	ProviderRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "instagram_identity_provider_request_seconds",
		Help:    "Latency of outbound identity provider calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider", "operation", "outcome"})

	// ImageUploads counts stored images by backend and outcome.
	ImageUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "instagram_image_uploads_total",
		Help: "Image uploads by storage backend and outcome",
	}, []string{"backend", "outcome"})

	// NotificationsPublished counts real-time events published per type.
	NotificationsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "instagram_notifications_published_total",
		Help: "Real-time notification events published by type",
	}, []string{"type"})

	// NotificationsDropped counts events dropped because a client's send buffer was full or closed.
	NotificationsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "instagram_notifications_dropped_total",
		Help: "Websocket notification frames dropped by reason",
	}, []string{"reason"})

	// VisitorCount mirrors the Redis visitor counter.
	VisitorCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "instagram_visitors",
		Help: "Last observed value of the visitor counter",
	})
)

// Outcome returns "success" or "error" for metric labels.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// ObserveProvider records the duration since start for a provider call.
func ObserveProvider(provider, operation string, start time.Time, err error) {
	ProviderRequestDuration.WithLabelValues(provider, operation, Outcome(err)).Observe(time.Since(start).Seconds())
}
