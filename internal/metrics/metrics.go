package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestDuration tracks API latency per route.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "taskhub_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	// AuthorizationDenied counts rejected project actions.
	AuthorizationDenied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskhub_authorization_denied_total",
			Help: "Total number of project actions rejected by access control",
		},
		[]string{"action"},
	)

	// TaskQueryDuration tracks task listing latency per evaluation strategy.
	TaskQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "taskhub_task_query_duration_seconds",
			Help:    "Task listing duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"strategy"}, // strategy: store, memory
	)

	// ActivityWrites counts audit entry writes.
	ActivityWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskhub_activity_writes_total",
			Help: "Total number of activity entries written",
		},
		[]string{"result"}, // result: ok, failed
	)

	// ActivityPublished counts activity events sent to the message broker.
	ActivityPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskhub_activity_published_total",
			Help: "Total number of activity events published",
		},
		[]string{"result"},
	)
)

// RecordHTTPRequestDuration observes one API request.
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// IncrementAuthorizationDenied counts a rejected action.
func IncrementAuthorizationDenied(action string) {
	AuthorizationDenied.WithLabelValues(action).Inc()
}

// RecordTaskQuery observes one task listing.
func RecordTaskQuery(strategy string, duration time.Duration) {
	TaskQueryDuration.WithLabelValues(strategy).Observe(duration.Seconds())
}

// IncrementActivityWrite counts an audit write outcome.
func IncrementActivityWrite(result string) {
	ActivityWrites.WithLabelValues(result).Inc()
}

// IncrementActivityPublished counts a publish outcome.
func IncrementActivityPublished(result string) {
	ActivityPublished.WithLabelValues(result).Inc()
}
