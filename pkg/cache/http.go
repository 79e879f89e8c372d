package cache

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// replayExcluded lists headers that describe the origin wire encoding.
// Stored bodies are already decoded, so these are dropped on replay.
var replayExcluded = []string{"Content-Encoding", "Transfer-Encoding"}

// ResponseToEntry reads an origin response into an Entry.
// The response body is consumed and closed. A read error means the origin
// response is incomplete and must not be relayed or stored.
func ResponseToEntry(resp *http.Response) (*Entry, error) {
	if resp == nil {
		return nil, fmt.Errorf("response cannot be nil")
	}

	var body []byte
	if resp.Body != nil {
		defer resp.Body.Close()

		var err error
		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read response body: %w", err)
		}
	}

	headers := resp.Header.Clone()
	if headers == nil {
		headers = http.Header{}
	}

	return &Entry{
		StatusCode: resp.StatusCode,
		Headers:    headers,
		Body:       body,
		CachedAt:   time.Now(),
	}, nil
}

// IsCacheable reports whether a response may populate the cache.
// Only successful GET responses are stored; side-effecting methods,
// errors and redirects are relayed but never cached.
func IsCacheable(method string, statusCode int) bool {
	return method == http.MethodGet && statusCode == http.StatusOK
}

// ReplayHeaders copies stored headers to dst, skipping Content-Encoding
// and Transfer-Encoding.
func ReplayHeaders(dst, src http.Header) {
	for name, values := range src {
		if isReplayExcluded(name) {
			continue
		}
		for _, value := range values {
			dst.Add(name, value)
		}
	}
}

func isReplayExcluded(name string) bool {
	for _, excluded := range replayExcluded {
		if strings.EqualFold(name, excluded) {
			return true
		}
	}
	return false
}
