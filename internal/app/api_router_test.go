package app

import (
	"compress/gzip"
	"context"
	stdErrors "errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kapu/rinaorc-staff-bot-go/internal/config"
	"github.com/kapu/rinaorc-staff-bot-go/internal/domain"
	"github.com/kapu/rinaorc-staff-bot-go/internal/health"
	"github.com/kapu/rinaorc-staff-bot-go/internal/service/tracker"
)

type staticFetcher struct {
	snap domain.Snapshot
}

func (f staticFetcher) FetchSnapshot(context.Context) (domain.Snapshot, error) {
	return f.snap, nil
}

func newTestRouterDeps(t *testing.T, checks map[string]health.Check) (routerDeps, *tracker.Watcher) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	registry := ProvideMetricsRegistry()
	metrics, err := tracker.NewMetrics(registry)
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}

	cfg := &config.Config{Poll: config.PollConfig{Interval: time.Minute, FetchTimeout: 5 * time.Second}}
	fetcher := staticFetcher{snap: domain.MustSnapshot(domain.Role{Name: "Admin", Players: []string{"alice"}})}
	watcher, err := ProvideWatcher(cfg, fetcher, nil, metrics, logger)
	if err != nil {
		t.Fatalf("watcher: %v", err)
	}

	return routerDeps{watcher: watcher, registry: registry, checks: checks}, watcher
}

func serve(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestProvideAPIRouter_Routes(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	deps, watcher := newTestRouterDeps(t, nil)

	if _, err := watcher.RunCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}

	router, err := ProvideAPIRouter(context.Background(), &config.Config{}, logger, deps)
	if err != nil {
		t.Fatalf("router: %v", err)
	}

	if rec := serve(t, router, "/health"); rec.Code != http.StatusOK {
		t.Fatalf("health: expected 200, got %d", rec.Code)
	}

	rec := serve(t, router, "/api/staff")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"alice"`) {
		t.Fatalf("staff: unexpected response %d %s", rec.Code, rec.Body.String())
	}

	if rec := serve(t, router, "/api/staff/last-cycle"); rec.Code != http.StatusOK {
		t.Fatalf("last-cycle: expected 200, got %d", rec.Code)
	}

	if rec := serve(t, router, "/api/staff/history"); rec.Code != http.StatusNotFound {
		t.Fatalf("history: expected 404 when disabled, got %d", rec.Code)
	}

	rec = serve(t, router, "/metrics")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "staff_watch_cycles_total") {
		t.Fatalf("metrics: unexpected response %d", rec.Code)
	}
}

func TestProvideAPIRouter_GzipFollowsAcceptEncoding(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	deps, watcher := newTestRouterDeps(t, nil)
	if _, err := watcher.RunCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}

	router, err := ProvideAPIRouter(context.Background(), &config.Config{}, logger, deps)
	if err != nil {
		t.Fatalf("router: %v", err)
	}

	for _, path := range []string{"/api/staff", "/metrics"} {
		rec := serve(t, router, path)
		if enc := rec.Header().Get("Content-Encoding"); enc != "" {
			t.Fatalf("%s: expected plain body without Accept-Encoding, got %q", path, enc)
		}
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/staff", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	router.ServeHTTP(rec, req)

	if rec.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("expected gzip encoding, got %q", rec.Header().Get("Content-Encoding"))
	}
	zr, err := gzip.NewReader(rec.Body)
	if err != nil {
		t.Fatalf("gzip reader: %v", err)
	}
	defer zr.Close()
	body, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("read gzip body: %v", err)
	}
	if !strings.Contains(string(body), `"alice"`) {
		t.Fatalf("unexpected decompressed body %s", body)
	}
}

func TestProvideAPIRouter_DegradedHealth(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	deps, _ := newTestRouterDeps(t, map[string]health.Check{
		"valkey": func(context.Context) error { return stdErrors.New("connection refused") },
	})

	router, err := ProvideAPIRouter(context.Background(), &config.Config{}, logger, deps)
	if err != nil {
		t.Fatalf("router: %v", err)
	}

	rec := serve(t, router, "/health")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "degraded") {
		t.Fatalf("expected degraded body, got %s", rec.Body.String())
	}
}

func TestProvideAPIRouter_RequiresWatcher(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if _, err := ProvideAPIRouter(context.Background(), &config.Config{}, logger, routerDeps{}); err == nil {
		t.Fatal("expected error for missing watcher")
	}
}

func TestBuildRuntime_MinimalConfig(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{
		StaffAPI: config.StaffAPIConfig{URL: "http://127.0.0.1:1/staff", APIKey: "k", KeyHeader: "API-Key"},
		Poll:     config.PollConfig{Interval: time.Minute, FetchTimeout: 5 * time.Second},
		Server:   config.ServerConfig{Enabled: true, Port: 18080},
	}

	runtime, err := BuildRuntime(context.Background(), cfg, logger)
	if err != nil {
		t.Fatalf("build runtime: %v", err)
	}
	defer runtime.Close()

	if runtime.Watcher == nil || runtime.APIServer == nil {
		t.Fatalf("expected watcher and api server, got %+v", runtime)
	}
	if runtime.APIAddr != ":18080" {
		t.Fatalf("unexpected addr %q", runtime.APIAddr)
	}
}

func TestBuildRuntime_RejectsNil(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if _, err := BuildRuntime(context.Background(), nil, logger); err == nil {
		t.Fatal("expected error for nil config")
	}
	if _, err := BuildRuntime(context.Background(), &config.Config{}, nil); err == nil {
		t.Fatal("expected error for nil logger")
	}
}
