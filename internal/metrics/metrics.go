package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookreview_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bookreview_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	SignupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookreview_signups_total",
			Help: "Signup attempts by outcome",
		},
		[]string{"outcome"},
	)

	LoginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookreview_logins_total",
			Help: "Login attempts by outcome",
		},
		[]string{"outcome"},
	)

	ReviewsWrittenTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookreview_reviews_written_total",
			Help: "Successful review writes by operation",
		},
		[]string{"operation"},
	)

	TokensRevokedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bookreview_tokens_revoked_total",
			Help: "Access tokens revoked through logout",
		},
	)
)

// Outcome and operation label values.
const (
	OutcomeSuccess  = "success"
	OutcomeConflict = "conflict"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"

	OperationCreate = "create"
	OperationUpdate = "update"
	OperationDelete = "delete"
)

func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func RecordSignup(outcome string) {
	SignupsTotal.WithLabelValues(outcome).Inc()
}

func RecordLogin(outcome string) {
	LoginsTotal.WithLabelValues(outcome).Inc()
}

func RecordReviewWrite(operation string) {
	ReviewsWrittenTotal.WithLabelValues(operation).Inc()
}

func RecordTokenRevoked() {
	TokensRevokedTotal.Inc()
}

// Middleware records request count and latency per route template, so /books/1 and
// /books/2 share a series. Unmatched paths are grouped under "unmatched".
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				} else if !c.Response().Committed {
					status = 500
				}
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			RecordHTTPRequest(c.Request().Method, route, status, time.Since(start))
			return err
		}
	}
}
