package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter metrics
var (
	// HTTP request counter by endpoint and status
	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concierge_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"endpoint", "method", "status"},
	)

	// Auth counters
	LoginCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "concierge_login_total",
			Help: "Total number of admin login attempts",
		},
	)

	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concierge_auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"type"}, // "invalid_password", "user_not_found", "invalid_token", ...
	)

	// PMS sync counters
	SyncRunCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concierge_pms_sync_runs_total",
			Help: "Total number of completed PMS sync runs",
		},
		[]string{"provider"},
	)

	SyncErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concierge_pms_sync_errors_total",
			Help: "Total number of failed PMS sync runs",
		},
		[]string{"provider"},
	)

	SyncedPropertiesCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concierge_pms_synced_properties_total",
			Help: "Total number of properties upserted by PMS sync",
		},
		[]string{"provider"},
	)

	// Guest chat counters
	ChatMessageCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concierge_chat_messages_total",
			Help: "Total number of chat messages by sender",
		},
		[]string{"sender"},
	)

	ChatFallbackCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "concierge_chat_fallback_replies_total",
			Help: "Total number of canned replies served because the LLM call failed",
		},
	)

	StayUnlockCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concierge_stay_unlocks_total",
			Help: "Total number of stay unlock attempts by outcome",
		},
		[]string{"outcome"}, // "verified", "no_match"
	)

	// Billing counters
	CheckoutCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concierge_upgrade_checkouts_total",
			Help: "Total number of upgrade checkout sessions created, by outcome",
		},
		[]string{"outcome"}, // "created", "rejected", "error"
	)

	WebhookEventCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concierge_stripe_webhook_events_total",
			Help: "Total number of Stripe webhook events received",
		},
		[]string{"type"},
	)
)

// Histogram metrics
var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "concierge_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	LLMRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "concierge_llm_request_duration_seconds",
			Help:    "Duration of LLM completion calls in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40},
		},
		[]string{"kind"}, // "chat", "summary"
	)

	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "concierge_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

// InitMetrics registers all metrics with the default registry
func InitMetrics() {
	prometheus.MustRegister(
		HTTPRequestCounter,
		LoginCounter,
		AuthErrorCounter,
		SyncRunCounter,
		SyncErrorCounter,
		SyncedPropertiesCounter,
		ChatMessageCounter,
		ChatFallbackCounter,
		StayUnlockCounter,
		CheckoutCounter,
		WebhookEventCounter,
		RequestDuration,
		LLMRequestDuration,
		DBOperationDuration,
	)
}

// RecordAuthError increments the auth error counter for a failure type
func RecordAuthError(errorType string) {
	AuthErrorCounter.WithLabelValues(errorType).Inc()
}

// TrackDBOperation returns a function that records the duration of a
// database operation. Use with defer:
//
//	defer prometheus.TrackDBOperation("query")(time.Now())
func TrackDBOperation(operation string) func(time.Time) {
	return func(start time.Time) {
		DBOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}

// ObserveLLM records the duration of one LLM call
func ObserveLLM(kind string, start time.Time) {
	LLMRequestDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

// MetricsMiddleware records request counts and durations per route
func MetricsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()

		err := next(c)

		status := strconv.Itoa(c.Response().Status)
		method := c.Request().Method
		endpoint := c.Path()

		HTTPRequestCounter.WithLabelValues(endpoint, method, status).Inc()
		RequestDuration.WithLabelValues(endpoint, method, status).Observe(time.Since(start).Seconds())

		return err
	}
}

// Handler returns the HTTP handler exposing the metrics endpoint
func Handler() http.Handler {
	return promhttp.Handler()
}
