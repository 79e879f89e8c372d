package cache

import "strings"

// DeriveKey builds the cache key for a request.
// Format: <origin without one trailing slash><path+query as received>
//
// Example:
//
//	DeriveKey("http://dummyjson.com/", "/products/1?select=id")
//	// "http://dummyjson.com/products/1?select=id"
//
// The key is also the full origin URL the request is forwarded to on a miss.
// Nothing is decoded, case-folded or reordered, so two requests share a key
// only if the origin would see byte-identical request targets.
func DeriveKey(origin, pathQuery string) string {
	return strings.TrimSuffix(origin, "/") + pathQuery
}
