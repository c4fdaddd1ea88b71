// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tutorhub_http_requests_total",
		Help: "Total number of HTTP requests.",
	}, []string{"method", "route", "status_code"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tutorhub_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	CascadeRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tutorhub_lesson_cascade_total",
		Help: "Lesson changes applied with their salary, earnings and leaderboard recompute.",
	}, []string{"operation", "outcome"})

	JobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tutorhub_scheduled_job_runs_total",
		Help: "Scheduled job executions.",
	}, []string{"job", "outcome"})
)

// Outcome labels a run by its error
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
