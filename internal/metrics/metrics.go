// Package metrics holds the Prometheus collectors for the API: request
// counts and latency per route, and the outcomes of the account lifecycle.
package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Delivery outcome labels.
const (
	OutcomeSent         = "sent"
	OutcomeAutoVerified = "auto_verified"
)

// Login result labels.
const (
	LoginSuccess            = "success"
	LoginInvalidCredentials = "invalid_credentials"
	LoginNotVerified        = "not_verified"
	LoginError              = "error"
)

// HTTPRequests counts handled requests by route template and status.
var HTTPRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "learnconnect_http_requests_total",
		Help: "Total number of HTTP requests",
	},
	[]string{"method", "route", "status"},
)

// HTTPDuration observes request latency by route template.
var HTTPDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "learnconnect_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"method", "route"},
)

// VerificationDeliveries counts verification email attempts by purpose
// (register, resend) and outcome.
var VerificationDeliveries = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "learnconnect_verification_deliveries_total",
		Help: "Verification email attempts by purpose and outcome",
	},
	[]string{"purpose", "outcome"},
)

// Logins counts login attempts by result.
var Logins = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "learnconnect_logins_total",
		Help: "Login attempts by result",
	},
	[]string{"result"},
)

// NewRegistry returns a registry carrying the package collectors plus the
// Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	RegisterMetrics(reg)
	return reg
}

// RegisterMetrics registers the package collectors with reg. Panics if
// registration fails.
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(HTTPRequests, HTTPDuration, VerificationDeliveries, Logins)
}

// RecordDelivery counts one verification email attempt.
func RecordDelivery(purpose, outcome string) {
	VerificationDeliveries.WithLabelValues(purpose, outcome).Inc()
}

// RecordLogin counts one login attempt.
func RecordLogin(result string) {
	Logins.WithLabelValues(result).Inc()
}

// Middleware records HTTPRequests and HTTPDuration. Routes are labelled by
// their template (c.Path()) so ids never become label values.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			HTTPRequests.WithLabelValues(method, route, strconv.Itoa(c.Response().Status)).Inc()
			HTTPDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}

// Handler exposes reg in the Prometheus text format.
func Handler(reg *prometheus.Registry) echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
}
