//go:build integration

package proxy

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Sternrassler/caching-proxy/pkg/cache"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupOriginContainer starts an nginx container to act as the origin.
func setupOriginContainer(t *testing.T) (string, func()) {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "nginx:alpine",
		ExposedPorts: []string{"80/tcp"},
		WaitingFor:   wait.ForHTTP("/").WithPort("80/tcp"),
	}

	originContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start origin container: %v", err)
	}

	host, err := originContainer.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := originContainer.MappedPort(ctx, "80")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	cleanup := func() {
		originContainer.Terminate(ctx)
	}

	return "http://" + host + ":" + port.Port() + "/", cleanup
}

func TestIntegration_ContainerOrigin(t *testing.T) {
	originURL, cleanup := setupOriginContainer(t)
	defer cleanup()

	store := cache.NewStore()
	engine, err := New(Config{Origin: originURL, Store: store})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	server := httptest.NewServer(engine)
	defer server.Close()

	get := func(path string) (*http.Response, []byte) {
		t.Helper()
		resp, err := http.Get(server.URL + path)
		if err != nil {
			t.Fatalf("GET %s failed: %v", path, err)
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			t.Fatalf("Failed to read body: %v", err)
		}
		return resp, body
	}

	first, firstBody := get("/")
	if first.StatusCode != http.StatusOK {
		t.Fatalf("first status = %d, want 200", first.StatusCode)
	}
	if got := first.Header.Get(HeaderCache); got != CacheMiss {
		t.Errorf("first X-Cache = %q, want MISS", got)
	}

	second, secondBody := get("/")
	if got := second.Header.Get(HeaderCache); got != CacheHit {
		t.Errorf("second X-Cache = %q, want HIT", got)
	}
	if string(secondBody) != string(firstBody) {
		t.Error("HIT body differs from MISS body")
	}

	// The trailing slash on the origin must not double up in the key.
	if _, ok := store.Lookup(cache.DeriveKey(originURL, "/")); !ok {
		t.Error("entry not stored under the derived key")
	}

	// nginx answers unknown paths with 404, which is never cached.
	for i := 0; i < 2; i++ {
		resp, _ := get("/missing.html")
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("status = %d, want 404", resp.StatusCode)
		}
		if got := resp.Header.Get(HeaderCache); got != CacheMiss {
			t.Errorf("X-Cache = %q, want MISS", got)
		}
	}
}
