// Package cache provides the in-memory response cache of the caching proxy.
//
// The cache is deliberately simple:
//
// - Keys are the origin base URL joined with the raw request path+query
// - Only GET requests answered with 200 are stored
// - Entries never expire and are never evicted
// - One mutex guards the whole map; no I/O happens while it is held
// - Clear empties the store of the current process only
//
// # Basic Usage
//
//	store := cache.NewStore()
//
//	key := cache.DeriveKey("http://dummyjson.com/", r.RequestURI)
//
//	if entry, ok := store.Lookup(key); ok {
//		// serve entry.StatusCode, entry.Headers, entry.Body
//	}
//
// # Populating From an Origin Response
//
//	entry, err := cache.ResponseToEntry(resp)
//	if err != nil {
//		return err
//	}
//	if cache.IsCacheable(r.Method, entry.StatusCode) {
//		store.Store(key, entry)
//	}
//
// # Replaying
//
// ReplayHeaders copies stored headers except Content-Encoding and
// Transfer-Encoding. Stored bodies are decoded bytes, so replaying those
// headers would make clients try to decode them again.
//
// # Metrics
//
//   - caching_proxy_cache_hits_total - Store lookups that hit
//   - caching_proxy_cache_misses_total - Store lookups that missed
//   - caching_proxy_cache_stores_total - Entries written (including overwrites)
//   - caching_proxy_cache_clears_total - Full cache clears
//   - caching_proxy_cache_entries - Current entry count
//   - caching_proxy_cache_size_bytes - Current body bytes held
//
// Memory use grows with the number of distinct cached URLs for the lifetime
// of the process.
package cache
