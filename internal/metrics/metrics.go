// Package metrics exposes the Prometheus instruments the server records
// into. Everything registers on the default registry; the router serves it
// at /metrics via promhttp.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of in-flight API requests",
		},
	)

	FeedbackSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedback_submissions_total",
			Help: "Total number of accepted feedback submissions",
		},
		[]string{"transport_type", "priority"},
	)

	TicketUploads = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ticket_uploads_total",
			Help: "Total number of stored ticket attachments",
		},
	)

	HotspotUpdateErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hotspot_update_errors_total",
			Help: "Total number of failed hotspot aggregate updates",
		},
	)
)

// RecordAPIRequest records one served request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest moves the in-flight gauge.
func TrackActiveRequest(active bool) {
	if active {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordSubmission records one accepted feedback entry.
func RecordSubmission(transportType, priority string, withTicket bool) {
	FeedbackSubmissions.WithLabelValues(transportType, priority).Inc()
	if withTicket {
		TicketUploads.Inc()
	}
}
