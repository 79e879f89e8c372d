// Package proxy provides the caching reverse proxy engine: cache lookup,
// origin forwarding and cache population for every inbound request.
package proxy

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Sternrassler/caching-proxy/pkg/cache"
	"github.com/Sternrassler/caching-proxy/pkg/logging"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

const (
	// HeaderCache is set on every proxied response.
	HeaderCache = "X-Cache"

	// CacheHit marks responses served from the store.
	CacheHit = "HIT"

	// CacheMiss marks responses obtained from the origin.
	CacheMiss = "MISS"
)

// Engine is the caching proxy http.Handler.
type Engine struct {
	origin     string
	store      *cache.Store
	httpClient *http.Client
	logger     zerolog.Logger
}

// Config holds the engine configuration.
type Config struct {
	// Origin is the absolute base URL of the origin server (REQUIRED)
	Origin string

	// Store is the cache shared by all requests (REQUIRED)
	Store *cache.Store

	// HTTPClient sends origin requests. Defaults to NewOriginClient().
	// Custom clients should disable redirect following.
	HTTPClient *http.Client

	// Logger defaults to the global logger with component=proxy
	Logger *zerolog.Logger
}

// New creates a new proxy engine.
func New(cfg Config) (*Engine, error) {
	if cfg.Origin == "" {
		return nil, fmt.Errorf("origin is required")
	}

	if cfg.Store == nil {
		return nil, fmt.Errorf("cache store is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = NewOriginClient()
	}

	logger := logging.NewLogger(logging.ComponentProxy)
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	return &Engine{
		origin:     cfg.Origin,
		store:      cfg.Store,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Origin returns the configured origin base URL.
func (e *Engine) Origin() string {
	return e.origin
}

// ServeHTTP handles every method the same way: derive the key, serve a
// stored entry if there is one, otherwise forward to the origin.
func (e *Engine) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	target := requestTarget(r)
	key := cache.DeriveKey(e.origin, target)

	if entry, ok := e.store.Lookup(key); ok {
		e.serveHit(w, entry)
		e.logRequest(r, target, CacheHit, entry.StatusCode, start)
		return
	}

	status := e.serveMiss(w, r, key)
	e.logRequest(r, target, CacheMiss, status, start)
}

// serveHit replays a stored entry. The store guard is already released.
func (e *Engine) serveHit(w http.ResponseWriter, entry *cache.Entry) {
	cache.ReplayHeaders(w.Header(), entry.Headers)
	w.Header().Set(HeaderCache, CacheHit)
	w.WriteHeader(entry.StatusCode)

	if _, err := w.Write(entry.Body); err != nil {
		e.logger.Warn().Err(err).Msg("Failed to write cached response")
	}
}

// serveMiss forwards to the origin, relays the response and stores it if
// cacheable. It returns the status sent to the client.
func (e *Engine) serveMiss(w http.ResponseWriter, r *http.Request, key string) int {
	entry, err := e.forward(r, key)
	if err != nil {
		return e.serveError(w, r, err)
	}

	if cache.IsCacheable(r.Method, entry.StatusCode) {
		e.store.Store(key, entry)
		e.logger.Debug().
			Str("key", key).
			Int64("size", entry.Size()).
			Msg("Cached response")
	}

	copyHeader(w.Header(), entry.Headers)
	w.Header().Set(HeaderCache, CacheMiss)
	w.WriteHeader(entry.StatusCode)

	if _, err := w.Write(entry.Body); err != nil {
		e.logger.Warn().Err(err).Msg("Failed to write origin response")
	}

	return entry.StatusCode
}

func (e *Engine) serveError(w http.ResponseWriter, r *http.Request, err error) int {
	w.Header().Set(HeaderCache, CacheMiss)

	if errors.Is(err, ErrRequestBody) {
		e.logger.Warn().Err(err).Str("method", r.Method).Msg("Could not read request body")
		http.Error(w, "Could not read request body", http.StatusBadRequest)
		return http.StatusBadRequest
	}

	class := ErrorClassNetwork
	var originErr *OriginError
	if errors.As(err, &originErr) {
		class = originErr.Class
	}
	originErrorsTotal.WithLabelValues(string(class)).Inc()

	e.logger.Error().
		Err(err).
		Str("method", r.Method).
		Str("origin", e.origin).
		Str("error_class", string(class)).
		Msg("Failed to forward request to origin")

	http.Error(w, "Could not connect to origin server: "+e.origin, http.StatusServiceUnavailable)
	return http.StatusServiceUnavailable
}

func (e *Engine) logRequest(r *http.Request, target, cacheResult string, status int, start time.Time) {
	requestsTotal.WithLabelValues(methodLabel(r.Method), cacheResult, strconv.Itoa(status)).Inc()

	e.logger.Info().
		Str("method", r.Method).
		Str("path", target).
		Str("cache", cacheResult).
		Int("status_code", status).
		Dur("duration", time.Since(start)).
		Str("request_id", middleware.GetReqID(r.Context())).
		Msg("Request served")
}

// requestTarget returns the path+query exactly as received. Requests built
// in-process have no RequestURI, so the URL is used instead.
func requestTarget(r *http.Request) string {
	if r.RequestURI != "" {
		return r.RequestURI
	}
	return r.URL.RequestURI()
}
