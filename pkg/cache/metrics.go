package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks store lookups that found an entry
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "caching_proxy_cache_hits_total",
			Help: "Total number of cache hits",
		},
	)

	// CacheMisses tracks store lookups that found nothing
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "caching_proxy_cache_misses_total",
			Help: "Total number of cache misses",
		},
	)

	// CacheStores tracks entries written (including overwrites)
	CacheStores = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "caching_proxy_cache_stores_total",
			Help: "Total number of entries written to the cache",
		},
	)

	// CacheClears tracks full cache clears
	CacheClears = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "caching_proxy_cache_clears_total",
			Help: "Total number of full cache clears",
		},
	)

	// CacheEntries tracks the number of stored entries
	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "caching_proxy_cache_entries",
			Help: "Current number of cached entries",
		},
	)

	// CacheSize tracks stored body bytes
	CacheSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "caching_proxy_cache_size_bytes",
			Help: "Current size of cached response bodies in bytes",
		},
	)
)
