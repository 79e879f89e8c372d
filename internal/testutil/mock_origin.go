// Package testutil provides testing utilities for the caching proxy.
package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// MockResponse defines the behavior for a mock origin endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// RecordedRequest is what the mock origin saw for one request.
type RecordedRequest struct {
	Method     string
	RequestURI string
	Host       string
	Header     http.Header
	Body       []byte
}

// MockOrigin is a configurable origin server that counts requests.
type MockOrigin struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)
	counts   map[string]int
	requests []RecordedRequest
}

// NewMockOrigin creates a new mock origin server.
func NewMockOrigin() *MockOrigin {
	mock := &MockOrigin{
		handlers: make(map[string]func(w http.ResponseWriter, r *http.Request)),
		counts:   make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		mock.mu.Lock()
		mock.counts[r.URL.Path]++
		mock.requests = append(mock.requests, RecordedRequest{
			Method:     r.Method,
			RequestURI: r.RequestURI,
			Host:       r.Host,
			Header:     r.Header.Clone(),
			Body:       body,
		})
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.Unlock()

		if exists {
			handler(w, r)
			return
		}

		http.NotFound(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockOrigin) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockOrigin) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockOrigin) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts = make(map[string]int)
	m.requests = nil
}

// SetHandler sets a custom handler for a specific path.
func (m *MockOrigin) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a simple response for a path.
func (m *MockOrigin) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}

		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}

		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// RequestCount returns the total number of requests the origin received.
func (m *MockOrigin) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.requests)
}

// PathCount returns the number of requests received for a path.
func (m *MockOrigin) PathCount(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.counts[path]
}

// LastRequest returns the most recent request, or false if none arrived.
func (m *MockOrigin) LastRequest() (RecordedRequest, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.requests) == 0 {
		return RecordedRequest{}, false
	}
	return m.requests[len(m.requests)-1], true
}

// NewJSONResponse creates a 200 OK JSON response.
func NewJSONResponse(data string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       data,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewNotFoundResponse creates a 404 Not Found response.
func NewNotFoundResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusNotFound,
		Body:       `{"message":"not found"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewRedirectResponse creates a 302 Found response pointing at location.
func NewRedirectResponse(location string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusFound,
		Headers: map[string]string{
			"Location": location,
		},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error":"internal server error"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewTruncatedHandler announces a body larger than what it sends and then
// drops the connection.
func NewTruncatedHandler() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1024")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("partial"))
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		panic(http.ErrAbortHandler)
	}
}

// ClosedServerURL returns the URL of a server that is no longer listening.
func ClosedServerURL() string {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()
	return url
}
