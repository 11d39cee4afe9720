package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce           sync.Once
	httpRequestsTotal      *prometheus.CounterVec
	httpLatencySeconds     *prometheus.HistogramVec
	httpErrorsTotal        *prometheus.CounterVec
	loginsTotal            *prometheus.CounterVec
	notificationsFanedOut  prometheus.Counter
	approvalDecisionsTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used for API observability.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edutrack_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "edutrack_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edutrack_errors_total",
			Help: "Total number of error responses returned by API endpoints.",
		}, []string{"method", "route", "status"})

		loginsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edutrack_logins_total",
			Help: "Total number of login attempts by outcome.",
		}, []string{"outcome"})

		notificationsFanedOut = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "edutrack_notifications_fanned_out_total",
			Help: "Total number of notification rows created by fan-out.",
		})

		approvalDecisionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edutrack_approval_decisions_total",
			Help: "Total number of approval decisions by status.",
		}, []string{"status"})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			loginsTotal,
			notificationsFanedOut,
			approvalDecisionsTotal,
		)
	})
}

// Requests exposes the counter for API requests.
func Requests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// Latency exposes the latency histogram for API requests.
func Latency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// Errors exposes the counter for API error responses.
func Errors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// Logins exposes the counter for login attempts.
func Logins() *prometheus.CounterVec {
	RegisterMetrics()
	return loginsTotal
}

// NotificationsFannedOut exposes the counter for notification fan-out rows.
func NotificationsFannedOut() prometheus.Counter {
	RegisterMetrics()
	return notificationsFanedOut
}

// ApprovalDecisions exposes the counter for approval decisions.
func ApprovalDecisions() *prometheus.CounterVec {
	RegisterMetrics()
	return approvalDecisionsTotal
}
