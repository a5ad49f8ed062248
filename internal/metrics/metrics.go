// Package metrics holds the Prometheus collectors of the interview service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/stemsi/mockview-backend/internal/model"
)

const namespace = "mockview"

var (
	// sessionsStarted counts sessions created.
	// Labels: category, difficulty
	sessionsStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "interview",
		Name:      "sessions_started_total",
		Help:      "Total interview sessions started",
	}, []string{"category", "difficulty"})

	// reportsGenerated counts finished reports.
	// Labels: source (ai, local), reason (empty for ai)
	reportsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "interview",
		Name:      "reports_generated_total",
		Help:      "Total session reports by provenance",
	}, []string{"source", "reason"})

	// aiAttempts counts judge calls.
	// Labels: provider, model, outcome (success, quota, error, malformed)
	aiAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ai",
		Name:      "attempts_total",
		Help:      "Total AI judge attempts by outcome",
	}, []string{"provider", "model", "outcome"})

	aiAttemptLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "ai",
		Name:      "attempt_duration_seconds",
		Help:      "AI judge attempt latency in seconds",
		Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30, 60},
	}, []string{"provider", "model"})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests by route and status",
	}, []string{"method", "route", "status"})

	httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
)

// RecordSessionStarted counts a new session.
func RecordSessionStarted(category, difficulty string) {
	sessionsStarted.WithLabelValues(category, difficulty).Inc()
}

// RecordReport counts a finished report by where its scores came from.
func RecordReport(source model.ReportSource, reason model.FallbackReason) {
	reportsGenerated.WithLabelValues(string(source), string(reason)).Inc()
}

// RecordAIAttempt counts one judge call and observes its latency.
func RecordAIAttempt(provider, modelName, outcome string, seconds float64) {
	aiAttempts.WithLabelValues(provider, modelName, outcome).Inc()
	aiAttemptLatency.WithLabelValues(provider, modelName).Observe(seconds)
}

// RecordHTTPRequest counts one served request.
func RecordHTTPRequest(method, route, status string, seconds float64) {
	httpRequests.WithLabelValues(method, route, status).Inc()
	httpLatency.WithLabelValues(method, route).Observe(seconds)
}
