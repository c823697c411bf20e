package routes

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/wu-wayne/tiny-service/internal/config"
	"github.com/wu-wayne/tiny-service/internal/metrics"
	"github.com/wu-wayne/tiny-service/internal/server"
)

func TestBlobLifecycle(t *testing.T) {
	app, _ := newRoutesApp(t)

	resp := doRequest(t, app, "PUT", "/-/blob/greeting", "hello")
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if tier := resp.Header.Get("X-Cache-Tier"); tier != server.MemoryCacheName {
		t.Fatalf("small blob should be stored in memory, got %s", tier)
	}

	resp = doRequest(t, app, "GET", "/-/blob/greeting", "")
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != fiber.StatusOK || string(body) != "hello" {
		t.Fatalf("expected stored blob, got %d %s", resp.StatusCode, string(body))
	}

	resp = doRequest(t, app, "DELETE", "/-/blob/greeting", "")
	if resp.StatusCode != fiber.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}

	resp = doRequest(t, app, "GET", "/-/blob/greeting", "")
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("deleted blob should 404, got %d", resp.StatusCode)
	}
	resp = doRequest(t, app, "DELETE", "/-/blob/greeting", "")
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("second delete should 404, got %d", resp.StatusCode)
	}
}

func TestBlobSpillsToDiskAndRejectsOversized(t *testing.T) {
	app, _ := newRoutesApp(t)

	resp := doRequest(t, app, "PUT", "/-/blob/medium", strings.Repeat("m", 100))
	if resp.StatusCode != fiber.StatusCreated || resp.Header.Get("X-Cache-Tier") != server.DiskCacheName {
		t.Fatalf("medium blob should be stored on disk, got %d %s", resp.StatusCode, resp.Header.Get("X-Cache-Tier"))
	}

	resp = doRequest(t, app, "GET", "/-/blob/medium", "")
	if resp.Header.Get("X-Cache-Tier") != server.DiskCacheName {
		t.Fatalf("medium blob should be read from disk")
	}

	resp = doRequest(t, app, "PUT", "/-/blob/huge", strings.Repeat("h", 1024))
	if resp.StatusCode != fiber.StatusInsufficientStorage {
		t.Fatalf("expected 507, got %d", resp.StatusCode)
	}
}

func TestCacheSummaryEndpoint(t *testing.T) {
	app, _ := newRoutesApp(t)
	doRequest(t, app, "PUT", "/-/blob/a", "0123456789")

	resp := doRequest(t, app, "GET", "/-/cache", "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var payload struct {
		Caches []server.CacheSummary `json:"caches"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Caches) != 3 {
		t.Fatalf("expected 3 caches, got %d", len(payload.Caches))
	}
	memory := payload.Caches[0]
	if memory.Name != server.MemoryCacheName || memory.Entries != 1 || memory.Capacity != 10 {
		t.Fatalf("unexpected memory summary %+v", memory)
	}
	if memory.Summary != "Cache(1): 64(15.62%) Age:30s" {
		t.Fatalf("unexpected summary string %s", memory.Summary)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	app, _ := newRoutesApp(t)
	doRequest(t, app, "GET", "/-/blob/nothing", "")

	resp := doRequest(t, app, "GET", "/-/metrics", "")
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !bytes.Contains(body, []byte(`tiny_cache_misses_total{cache="memory"} 1`)) {
		t.Fatalf("expected memory miss counter, got %s", string(body))
	}
}

func newRoutesApp(t *testing.T) (*fiber.App, *server.CacheRegistry) {
	t.Helper()

	dir := t.TempDir()
	public := filepath.Join(dir, "public")
	if err := os.MkdirAll(public, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	cfg := &config.Config{
		Global:      config.GlobalConfig{ResourceRoot: public},
		MemoryCache: config.MemoryCacheConfig{SizeLimit: 64, MaxAge: config.Duration(30 * time.Second)},
		DiskCache: config.DiskCacheConfig{
			Root:      filepath.Join(dir, "blobs"),
			SizeLimit: 512,
			MaxAge:    config.Duration(time.Hour),
		},
		FileCache: config.FileCacheConfig{Capacity: 4},
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	reg := prometheus.NewRegistry()
	registry, err := server.NewCacheRegistry(cfg, logger, metrics.NewMetrics(reg))
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	t.Cleanup(registry.Close)

	app, err := server.NewApp(server.AppOptions{Logger: logger, Caches: registry})
	if err != nil {
		t.Fatalf("app: %v", err)
	}
	RegisterDiagnosticRoutes(app, registry, reg)
	RegisterBlobRoutes(app, registry, logger)
	return app, registry
}

func doRequest(t *testing.T, app *fiber.App, method, target, body string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	resp, err := app.Test(httptest.NewRequest(method, target, reader))
	if err != nil {
		t.Fatalf("%s %s: %v", method, target, err)
	}
	return resp
}
