// Package metrics exposes the Prometheus registry of the caching proxy.
// Metrics are defined next to the code that updates them (pkg/cache,
// pkg/proxy) and registered through promauto on the default registerer.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by the proxy.
var Registry = prometheus.DefaultRegisterer

// Handler returns the Prometheus exposition handler for the default gatherer.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Metrics Documentation
//
// Cache Metrics (pkg/cache):
//   - caching_proxy_cache_hits_total (Counter): Store lookups that found an entry
//   - caching_proxy_cache_misses_total (Counter): Store lookups that found nothing
//   - caching_proxy_cache_stores_total (Counter): Entries written, overwrites included
//   - caching_proxy_cache_clears_total (Counter): Full cache clears
//   - caching_proxy_cache_entries (Gauge): Current number of entries
//   - caching_proxy_cache_size_bytes (Gauge): Current body bytes held
//
// Proxy Metrics (pkg/proxy):
//   - caching_proxy_requests_total{method, cache, status} (Counter): Served requests
//   - caching_proxy_origin_request_duration_seconds{method} (Histogram): Origin latency
//   - caching_proxy_origin_errors_total{class} (Counter): Origin failures answered with 503
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(caching_proxy_requests_total{cache="HIT"}[5m])) /
//   sum(rate(caching_proxy_requests_total[5m]))
//
//   # Origin Failure Rate
//   sum(rate(caching_proxy_origin_errors_total[5m]))
//
//   # P95 Origin Latency
//   histogram_quantile(0.95, rate(caching_proxy_origin_request_duration_seconds_bucket[5m]))
//
//   # Memory Held By Cached Bodies
//   caching_proxy_cache_size_bytes
