package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sternrassler/caching-proxy/pkg/admin"
	"github.com/Sternrassler/caching-proxy/pkg/cache"
	"github.com/Sternrassler/caching-proxy/pkg/config"
	"github.com/Sternrassler/caching-proxy/pkg/logging"
	"github.com/Sternrassler/caching-proxy/pkg/proxy"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, clearCache, err := parseConfig(os.Args[1:], os.LookupEnv)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logging.Setup(cfg.LoggingConfig())
	logger := logging.NewLogger(logging.ComponentMain)

	if clearCache {
		clearLocalCache(logging.NewLogger(logging.ComponentCache))
		return
	}

	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration: --port and --origin are required to start the server")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("Server failed")
	}
}

// parseConfig layers defaults, the optional --config file, the environment
// and explicitly set flags, in that order. Validation is left to the caller
// because --clear-cache needs neither port nor origin.
func parseConfig(args []string, lookupEnv func(string) (string, bool)) (config.Config, bool, error) {
	fs := flag.NewFlagSet("caching-proxy", flag.ContinueOnError)

	configFile := fs.String("config", "", "Path to a YAML config file")
	port := fs.Int("port", 0, "Port on which the caching proxy server will run")
	origin := fs.String("origin", "", "URL of the server requests are forwarded to (e.g. http://dummyjson.com)")
	clearCache := fs.Bool("clear-cache", false, "Clear the cache of this process and exit")
	adminPort := fs.Int("admin-port", 0, "Port for the admin API (cache clear/stats, health, metrics); 0 disables it")
	adminToken := fs.String("admin-token", "", "Bearer token required by the admin /cache endpoints")
	logLevel := fs.String("log-level", "", "Log level: debug, info, warn, error")
	pretty := fs.Bool("pretty", false, "Human-readable console logs instead of JSON")

	if err := fs.Parse(args); err != nil {
		return config.Config{}, false, err
	}

	cfg := config.Default()
	if *configFile != "" {
		loaded, err := config.Load(*configFile)
		if err != nil {
			return config.Config{}, false, err
		}
		cfg = loaded
	}

	if err := cfg.ApplyEnv(lookupEnv); err != nil {
		return config.Config{}, false, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Port = *port
		case "origin":
			cfg.Origin = *origin
		case "admin-port":
			cfg.AdminPort = *adminPort
		case "admin-token":
			cfg.AdminToken = *adminToken
		case "log-level":
			cfg.LogLevel = *logLevel
		case "pretty":
			cfg.LogPretty = *pretty
		}
	})

	return cfg, *clearCache, nil
}

// clearLocalCache empties the cache of the invoking process and returns
// without starting a server. A proxy already running in another process
// keeps its cache; use the admin API for that.
func clearLocalCache(logger zerolog.Logger) {
	store := cache.NewStore()
	store.Clear()
	logger.Info().Msg("Cache cleared successfully")
}

// newHandlers builds the proxy handler and, if enabled, the admin handler.
// Both share one cache store.
func newHandlers(cfg config.Config) (http.Handler, http.Handler, error) {
	store := cache.NewStore()

	proxyLogger := logging.NewLogger(logging.ComponentProxy)
	engine, err := proxy.New(proxy.Config{
		Origin: cfg.Origin,
		Store:  store,
		Logger: &proxyLogger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create proxy engine: %w", err)
	}

	// No router here: every method and path goes to the engine.
	proxyHandler := chi.Chain(middleware.RequestID, middleware.Recoverer).Handler(engine)

	var adminHandler http.Handler
	if cfg.AdminPort > 0 {
		adminLogger := logging.NewLogger(logging.ComponentAdmin)
		adminHandler = admin.NewHandler(store, cfg.AdminToken, adminLogger).Router()
	}

	return proxyHandler, adminHandler, nil
}

// run serves until ctx is cancelled or a listener fails.
func run(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	proxyHandler, adminHandler, err := newHandlers(cfg)
	if err != nil {
		return err
	}

	servers := []*http.Server{{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           proxyHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}}
	if adminHandler != nil {
		servers = append(servers, &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.AdminPort),
			Handler:           adminHandler,
			ReadHeaderTimeout: 10 * time.Second,
		})
	}

	errCh := make(chan error, len(servers))
	for _, srv := range servers {
		go func(srv *http.Server) {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("listen on %s: %w", srv.Addr, err)
			}
		}(srv)
	}

	logger.Info().
		Str("addr", fmt.Sprintf("http://localhost:%d", cfg.Port)).
		Str("origin", cfg.Origin).
		Msg("Starting caching proxy")
	if adminHandler != nil {
		logger.Info().Int("admin_port", cfg.AdminPort).Msg("Admin API enabled")
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info().Msg("Shutting down")
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Str("addr", srv.Addr).Msg("Shutdown incomplete")
		}
	}

	logger.Info().Msg("Server stopped")
	return runErr
}
