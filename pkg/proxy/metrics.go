package proxy

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for proxy operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "caching_proxy_requests_total",
		Help: "Total proxied requests by method, cache result and status",
	}, []string{"method", "cache", "status"})

	originRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "caching_proxy_origin_request_duration_seconds",
		Help:    "Origin request duration in seconds by method",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
	}, []string{"method"})

	originErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "caching_proxy_origin_errors_total",
		Help: "Total origin failures by class",
	}, []string{"class"})
)

// methodLabel keeps the method label bounded; any verb is proxied but
// non-standard ones share one series.
func methodLabel(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
		http.MethodPatch, http.MethodDelete, http.MethodOptions,
		http.MethodConnect, http.MethodTrace:
		return method
	default:
		return "OTHER"
	}
}
