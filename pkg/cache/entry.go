package cache

import (
	"net/http"
	"time"
)

// Entry is a stored origin response.
// Entries are never modified after they are handed to Store.
type Entry struct {
	// StatusCode is the origin status code (always 200 for stored entries)
	StatusCode int

	// Headers are the origin response headers, all values preserved
	Headers http.Header

	// Body is the response body as received from the origin
	Body []byte

	// CachedAt is when the entry was created
	CachedAt time.Time
}

// Size returns the body size in bytes.
func (e *Entry) Size() int64 {
	if e == nil {
		return 0
	}
	return int64(len(e.Body))
}

// Age returns how long ago the entry was created.
// It is informational only; entries never expire.
func (e *Entry) Age() time.Duration {
	if e == nil || e.CachedAt.IsZero() {
		return 0
	}
	return time.Since(e.CachedAt)
}
