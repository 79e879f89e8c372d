// Package admin serves the out-of-band control plane of the caching proxy:
// cache clear and stats, health and Prometheus metrics.
//
// It runs on its own listener so none of its paths shadow origin paths.
package admin

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Sternrassler/caching-proxy/pkg/cache"
	"github.com/Sternrassler/caching-proxy/pkg/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Handler provides HTTP endpoints for cache administration.
type Handler struct {
	store  *cache.Store
	token  string
	logger zerolog.Logger
}

// StatsResponse is returned by GET /cache/stats.
type StatsResponse struct {
	Entries   int   `json:"entries"`
	SizeBytes int64 `json:"size_bytes"`
}

// ClearResponse is returned by the clear endpoints.
type ClearResponse struct {
	Status         string `json:"status"`
	EntriesRemoved int    `json:"entries_removed"`
}

// NewHandler creates a new admin handler. An empty token disables auth.
func NewHandler(store *cache.Store, token string, logger zerolog.Logger) *Handler {
	if store == nil {
		panic("cache store cannot be nil")
	}
	return &Handler{
		store:  store,
		token:  token,
		logger: logger,
	}
}

// Router returns the admin routes.
//
//	GET    /health
//	GET    /metrics
//	GET    /cache/stats
//	POST   /cache/clear
//	DELETE /cache
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(h.authenticate)
		r.Get("/cache/stats", h.handleStats)
		r.Post("/cache/clear", h.handleClear)
		r.Delete("/cache", h.handleClear)
	})

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatsResponse{
		Entries:   h.store.Len(),
		SizeBytes: h.store.Size(),
	})
}

func (h *Handler) handleClear(w http.ResponseWriter, r *http.Request) {
	removed := h.store.Clear()

	h.logger.Info().
		Int("entries_removed", removed).
		Str("request_id", middleware.GetReqID(r.Context())).
		Msg("Cache cleared")

	writeJSON(w, http.StatusOK, ClearResponse{
		Status:         "cleared",
		EntriesRemoved: removed,
	})
}

// authenticate requires "Authorization: Bearer <token>" when a token is set.
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.token == "" {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(h.token)) != 1 {
			h.logger.Warn().
				Str("path", r.URL.Path).
				Str("remote_addr", r.RemoteAddr).
				Msg("Rejected unauthorized admin request")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
