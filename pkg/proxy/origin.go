package proxy

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Sternrassler/caching-proxy/pkg/cache"
)

// strippedRequestHeaders are connection specific, or would make the origin
// pick an encoding that is stored before the client sees it.
var strippedRequestHeaders = []string{"Host", "Accept-Encoding", "Connection"}

// NewOriginClient returns the HTTP client used for origin requests.
// Redirects are relayed to the client instead of being followed, and no
// timeout beyond the transport defaults is applied.
func NewOriginClient() *http.Client {
	return &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// forward sends r to target and reads the complete origin response.
// Nothing is written to the client here, so a failure can still become a
// clean 503.
func (e *Engine) forward(r *http.Request, target string) (*cache.Entry, error) {
	body, err := requestBody(r)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(r.Context(), r.Method, target, body)
	if err != nil {
		return nil, &OriginError{Origin: e.origin, Class: ErrorClassRequest, Err: err}
	}
	copyForwardHeaders(req.Header, r.Header)

	e.logger.Debug().
		Str("method", r.Method).
		Str("target", target).
		Msg("Forwarding to origin")

	start := time.Now()
	resp, err := e.httpClient.Do(req)
	originRequestDuration.WithLabelValues(methodLabel(r.Method)).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, &OriginError{Origin: e.origin, Class: classifyTransportError(err), Err: err}
	}

	entry, err := cache.ResponseToEntry(resp)
	if err != nil {
		return nil, &OriginError{Origin: e.origin, Class: ErrorClassBodyRead, Err: err}
	}

	return entry, nil
}

// requestBody returns the inbound body when Content-Length is positive.
// Missing, zero or chunked lengths forward no body.
func requestBody(r *http.Request) (io.Reader, error) {
	if r.ContentLength <= 0 || r.Body == nil {
		return nil, nil
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, r.ContentLength))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestBody, err)
	}
	return bytes.NewReader(data), nil
}

// copyForwardHeaders copies inbound headers minus Host, Accept-Encoding
// and Connection.
func copyForwardHeaders(dst, src http.Header) {
	for name, values := range src {
		if isStrippedRequestHeader(name) {
			continue
		}
		for _, value := range values {
			dst.Add(name, value)
		}
	}
}

func isStrippedRequestHeader(name string) bool {
	for _, stripped := range strippedRequestHeaders {
		if strings.EqualFold(name, stripped) {
			return true
		}
	}
	return false
}

// copyHeader relays every origin header unmodified.
func copyHeader(dst, src http.Header) {
	for name, values := range src {
		for _, value := range values {
			dst.Add(name, value)
		}
	}
}
