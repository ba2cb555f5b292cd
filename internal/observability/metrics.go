package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "unnest_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "unnest_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// PostsCreated counts successfully published posts.
	PostsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "unnest_posts_created_total",
		Help: "Total number of posts created",
	})

	// LoginFailures counts rejected login attempts.
	LoginFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "unnest_login_failures_total",
		Help: "Total number of failed login attempts",
	})

	// MediaStored counts uploaded images written to storage by kind.
	MediaStored = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "unnest_media_stored_total",
		Help: "Total number of images stored by kind",
	}, []string{"kind"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
