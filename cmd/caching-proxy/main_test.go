package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Sternrassler/caching-proxy/internal/testutil"
	"github.com/Sternrassler/caching-proxy/pkg/config"
	"github.com/Sternrassler/caching-proxy/pkg/proxy"
	"github.com/rs/zerolog"
)

func noEnv(string) (string, bool) { return "", false }

func TestParseConfig(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		env       map[string]string
		wantPort  int
		wantOrig  string
		wantClear bool
		wantLevel string
	}{
		{
			name:      "flags only",
			args:      []string{"--port", "3000", "--origin", "http://dummyjson.com"},
			wantPort:  3000,
			wantOrig:  "http://dummyjson.com",
			wantLevel: "info",
		},
		{
			name:      "single dash flags",
			args:      []string{"-port=3000", "-origin=http://dummyjson.com", "-log-level=debug"},
			wantPort:  3000,
			wantOrig:  "http://dummyjson.com",
			wantLevel: "debug",
		},
		{
			name:      "clear cache without port or origin",
			args:      []string{"--clear-cache"},
			wantClear: true,
			wantLevel: "info",
		},
		{
			name: "environment only",
			env: map[string]string{
				config.EnvPort:   "4000",
				config.EnvOrigin: "http://env.test",
			},
			wantPort:  4000,
			wantOrig:  "http://env.test",
			wantLevel: "info",
		},
		{
			name: "flags override environment",
			args: []string{"--port", "3000"},
			env: map[string]string{
				config.EnvPort:   "4000",
				config.EnvOrigin: "http://env.test",
			},
			wantPort:  3000,
			wantOrig:  "http://env.test",
			wantLevel: "info",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lookup := func(key string) (string, bool) {
				v, ok := tt.env[key]
				return v, ok
			}

			cfg, clearCache, err := parseConfig(tt.args, lookup)
			if err != nil {
				t.Fatalf("parseConfig() error = %v", err)
			}

			if cfg.Port != tt.wantPort {
				t.Errorf("Port = %d, want %d", cfg.Port, tt.wantPort)
			}
			if cfg.Origin != tt.wantOrig {
				t.Errorf("Origin = %q, want %q", cfg.Origin, tt.wantOrig)
			}
			if clearCache != tt.wantClear {
				t.Errorf("clearCache = %v, want %v", clearCache, tt.wantClear)
			}
			if cfg.LogLevel != tt.wantLevel {
				t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, tt.wantLevel)
			}
		})
	}
}

func TestParseConfig_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proxy.yaml")
	content := "port: 3000\norigin: http://file.test\nadmin_port: 3001\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, _, err := parseConfig([]string{"--config", path, "--origin", "http://flag.test"}, noEnv)
	if err != nil {
		t.Fatalf("parseConfig() error = %v", err)
	}

	if cfg.Port != 3000 {
		t.Errorf("Port = %d, want 3000 from file", cfg.Port)
	}
	if cfg.AdminPort != 3001 {
		t.Errorf("AdminPort = %d, want 3001 from file", cfg.AdminPort)
	}
	if cfg.Origin != "http://flag.test" {
		t.Errorf("Origin = %q, want flag value", cfg.Origin)
	}
}

func TestParseConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		env  map[string]string
	}{
		{name: "unknown flag", args: []string{"--ttl", "5m"}},
		{name: "non numeric port", args: []string{"--port", "http"}},
		{name: "missing config file", args: []string{"--config", "/nonexistent/proxy.yaml"}},
		{name: "bad env port", env: map[string]string{config.EnvPort: "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lookup := func(key string) (string, bool) {
				v, ok := tt.env[key]
				return v, ok
			}
			if _, _, err := parseConfig(tt.args, lookup); err == nil {
				t.Error("Expected error but got nil")
			}
		})
	}
}

func TestParseConfig_Help(t *testing.T) {
	_, _, err := parseConfig([]string{"--help"}, noEnv)
	if !errors.Is(err, flag.ErrHelp) {
		t.Errorf("parseConfig(--help) error = %v, want flag.ErrHelp", err)
	}
}

func TestClearLocalCache(t *testing.T) {
	// Must return without starting a server.
	done := make(chan struct{})
	go func() {
		clearLocalCache(zerolog.Nop())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("clearLocalCache did not return")
	}
}

func TestNewHandlers(t *testing.T) {
	origin := testutil.NewMockOrigin()
	defer origin.Close()
	origin.SetResponse("/products/1", testutil.NewJSONResponse(`{"id":1}`))

	t.Run("admin disabled", func(t *testing.T) {
		_, adminHandler, err := newHandlers(config.Config{Port: 3000, Origin: origin.URL()})
		if err != nil {
			t.Fatalf("newHandlers() error = %v", err)
		}
		if adminHandler != nil {
			t.Error("admin handler should be nil when admin port is 0")
		}
	})

	t.Run("proxy and admin share the store", func(t *testing.T) {
		proxyHandler, adminHandler, err := newHandlers(config.Config{Port: 3000, AdminPort: 3001, Origin: origin.URL()})
		if err != nil {
			t.Fatalf("newHandlers() error = %v", err)
		}
		if adminHandler == nil {
			t.Fatal("admin handler should be set")
		}

		for _, want := range []string{proxy.CacheMiss, proxy.CacheHit} {
			w := httptest.NewRecorder()
			proxyHandler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/products/1", nil))
			if got := w.Header().Get(proxy.HeaderCache); got != want {
				t.Errorf("X-Cache = %q, want %q", got, want)
			}
		}

		w := httptest.NewRecorder()
		adminHandler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/cache/clear", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("clear status = %d, want 200", w.Code)
		}

		w = httptest.NewRecorder()
		proxyHandler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/products/1", nil))
		if got := w.Header().Get(proxy.HeaderCache); got != proxy.CacheMiss {
			t.Errorf("X-Cache after clear = %q, want MISS", got)
		}
	})

	t.Run("custom methods reach the engine", func(t *testing.T) {
		proxyHandler, _, err := newHandlers(config.Config{Port: 3000, Origin: origin.URL()})
		if err != nil {
			t.Fatalf("newHandlers() error = %v", err)
		}

		w := httptest.NewRecorder()
		proxyHandler.ServeHTTP(w, httptest.NewRequest("PURGE", "/products/1", nil))
		if got := w.Header().Get(proxy.HeaderCache); got != proxy.CacheMiss {
			t.Errorf("X-Cache = %q, want MISS", got)
		}
	})
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to find free port: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestRun_ServesUntilCancelled(t *testing.T) {
	origin := testutil.NewMockOrigin()
	defer origin.Close()
	origin.SetResponse("/products/1", testutil.NewJSONResponse(`{"id":1}`))

	cfg := config.Default()
	cfg.Port = freePort(t)
	cfg.Origin = origin.URL()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- run(ctx, cfg, zerolog.Nop())
	}()

	url := fmt.Sprintf("http://127.0.0.1:%d/products/1", cfg.Port)
	var resp *http.Response
	var err error
	for i := 0; i < 50; i++ {
		resp, err = http.Get(url)
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		cancel()
		t.Fatalf("proxy never became reachable: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if string(body) != `{"id":1}` {
		t.Errorf("body = %q, want {\"id\":1}", body)
	}
	if got := resp.Header.Get(proxy.HeaderCache); got != proxy.CacheMiss {
		t.Errorf("X-Cache = %q, want MISS", got)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop after cancel")
	}
}

func TestRun_ListenFailure(t *testing.T) {
	l, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}
	defer l.Close()

	cfg := config.Default()
	cfg.Port = l.Addr().(*net.TCPAddr).Port
	cfg.Origin = "http://dummyjson.com"

	done := make(chan error, 1)
	go func() {
		done <- run(context.Background(), cfg, zerolog.Nop())
	}()

	select {
	case err := <-done:
		if err == nil {
			t.Error("run() should fail when the port is taken")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return on listen failure")
	}
}
