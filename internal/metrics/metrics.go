// Package metrics defines the custom Prometheus metrics of the service.
// All collectors register with the default registry on package init and are
// exposed by promhttp.Handler on GET /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "weather_auth"

// AuthEventsTotal counts account operations by outcome.
// Labels:
//   - op: "register", "verify_email", "login", "forgot_password", "reset_password"
//   - result: "ok" or a short failure reason (e.g. "invalid_credentials", "wrong_code")
var AuthEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_events_total",
		Help:      "Total number of account operations, by operation and result.",
	},
	[]string{"op", "result"},
)

// GateRejectionsTotal counts requests refused by the Auth Gate.
// Label:
//   - reason: "unauthenticated", "malformed_credential", "invalid_token"
var GateRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gate_rejections_total",
		Help:      "Total number of requests rejected by the authentication gate.",
	},
	[]string{"reason"},
)

// WeatherCacheTotal counts weather cache lookups.
// Label:
//   - result: "hit", "miss" or "error"
var WeatherCacheTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "weather_cache_total",
		Help:      "Total number of weather cache lookups, labelled by result.",
	},
	[]string{"result"},
)

// WeatherUpstreamErrorsTotal counts failed calls to the weather provider.
var WeatherUpstreamErrorsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "weather_upstream_errors_total",
		Help:      "Total number of failed weather provider calls.",
	},
)

// HTTPRequestDuration measures handler latency.
// Labels:
//   - route: the chi route pattern (e.g. "/api/users/{id}")
//   - method, status
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests by route, method and status.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"route", "method", "status"},
)

// Middleware records HTTPRequestDuration for every request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		HTTPRequestDuration.WithLabelValues(route, r.Method, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
	})
}
