package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GatewayRequests counts requests issued through the gateway by outcome.
	GatewayRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vibeclient_gateway_requests_total",
		Help: "Total number of API requests issued by the gateway",
	}, []string{"method", "route", "status"})

	// GatewayLatency records round-trip time of gateway requests.
	GatewayLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vibeclient_gateway_request_duration_seconds",
		Help:    "API request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// SessionInvalidations counts sessions torn down after a 401.
	SessionInvalidations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vibeclient_session_invalidations_total",
		Help: "Total number of sessions cleared because the API rejected the credential",
	})

	// StoreRejections counts collection mutations refused by a guard clause.
	StoreRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vibeclient_store_rejections_total",
		Help: "Total number of collection store mutations rejected",
	}, []string{"store", "reason"})

	// ToastsShown counts feedback messages by kind.
	ToastsShown = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vibeclient_toasts_shown_total",
		Help: "Total number of feedback messages shown",
	}, []string{"kind"})

	// RedisErrors counts Redis errors by command.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vibeclient_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})
)

// StatusLabel collapses an HTTP status into its class ("2xx", "4xx", ...).
// Zero means no response was received.
func StatusLabel(status int) string {
	if status == 401 {
		return "401"
	}
	if status <= 0 {
		return "transport_error"
	}
	return strconv.Itoa(status/100) + "xx"
}

// TrackRequest returns a function that records one gateway request when called.
func TrackRequest(method, route string) func(status int) {
	start := time.Now()
	return func(status int) {
		GatewayLatency.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		GatewayRequests.WithLabelValues(method, route, StatusLabel(status)).Inc()
	}
}
