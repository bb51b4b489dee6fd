// Package metrics exposes Prometheus collectors for the HTTP layer and the
// complaint lifecycle.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fixmyarea_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fixmyarea_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fixmyarea_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	complaintsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fixmyarea_complaints_created_total",
			Help: "Total number of complaints filed",
		},
		[]string{"category"},
	)

	complaintStatusChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fixmyarea_complaint_status_changes_total",
			Help: "Total number of complaint status changes",
		},
		[]string{"status"},
	)

	upvotesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fixmyarea_upvotes_total",
			Help: "Total number of accepted upvotes",
		},
	)

	workersRemoved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fixmyarea_workers_removed_total",
			Help: "Total number of removed workers",
		},
	)

	rateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fixmyarea_rate_limited_total",
			Help: "Requests rejected by a rate limiter",
		},
		[]string{"limiter"},
	)

	websocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fixmyarea_websocket_clients",
			Help: "Number of connected websocket clients",
		},
	)
)

// Handler returns the /metrics handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RequestStarted marks a request in flight and returns the function that
// records it once the response is written.
func RequestStarted() func(method, path string, status int) {
	start := time.Now()
	httpRequestsInFlight.Inc()
	return func(method, path string, status int) {
		httpRequestsInFlight.Dec()
		httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}

func ComplaintCreated(category string) {
	complaintsCreated.WithLabelValues(category).Inc()
}

func ComplaintStatusChanged(status string) {
	complaintStatusChanges.WithLabelValues(status).Inc()
}

func UpvoteRecorded() {
	upvotesTotal.Inc()
}

func WorkerRemoved() {
	workersRemoved.Inc()
}

func RateLimited(limiter string) {
	rateLimited.WithLabelValues(limiter).Inc()
}

func WebsocketConnected() {
	websocketClients.Inc()
}

func WebsocketDisconnected() {
	websocketClients.Dec()
}
