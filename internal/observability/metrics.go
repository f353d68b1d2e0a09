// Package observability provides logging and metrics.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BackendRequestLatency records remote backend call latency by service
	// (rest, auth, storage) and HTTP method.
	BackendRequestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "quill_backend_request_latency_seconds",
		Help:    "Remote backend request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"service", "method"})

	// BackendErrors counts failed remote backend calls by service.
	BackendErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quill_backend_errors_total",
		Help: "Total number of failed remote backend calls",
	}, []string{"service"})

	// StorageFailures counts swallowed best-effort storage failures.
	StorageFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quill_storage_failures_total",
		Help: "Total number of best-effort storage operations that failed",
	}, []string{"operation"})

	// PostViewsRecorded counts fire-and-forget post view inserts.
	PostViewsRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quill_post_views_recorded_total",
		Help: "Total number of post view records appended",
	})

	// SessionRefreshes counts resolver-driven token refreshes.
	SessionRefreshes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quill_session_refreshes_total",
		Help: "Total number of sessions refreshed during identity resolution",
	})
)
