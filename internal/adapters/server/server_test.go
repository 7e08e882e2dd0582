package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/evanschultz/lanes/internal/adapters/metrics"
	"github.com/evanschultz/lanes/internal/adapters/server/common"
	"github.com/evanschultz/lanes/internal/app"
	"github.com/evanschultz/lanes/internal/domain"
	"github.com/evanschultz/lanes/internal/generator"
)

// newBoard builds one seeded board service for composition tests.
func newBoard(t *testing.T, observer app.Observer) common.BoardService {
	t.Helper()
	n := 0
	gen := generator.New(generator.Config{Seed: 7}, func() string {
		n++
		return fmt.Sprintf("t-%d", n)
	}, func() time.Time {
		return time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)
	})
	seed, err := gen.Seed(40, domain.Lanes())
	if err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	opts := []app.Option{}
	if observer != nil {
		opts = append(opts, app.WithObserver(observer))
	}
	svc, err := app.NewService(gen, seed, app.ServiceConfig{Categories: gen.Categories()}, opts...)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	return common.NewAppServiceAdapter(svc)
}

func get(t *testing.T, handler http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

// TestNormalizeConfigDefaults verifies endpoint defaults and normalization.
func TestNormalizeConfigDefaults(t *testing.T) {
	cfg, err := normalizeConfig(Config{APIEndpoint: "api/v2/", MCPEndpoint: " "})
	if err != nil {
		t.Fatalf("normalizeConfig() error = %v", err)
	}
	if cfg.HTTPBind != defaultBindAddress || cfg.APIEndpoint != "/api/v2" || cfg.MCPEndpoint != "/mcp" || cfg.MetricsEndpoint != "/metrics" {
		t.Fatalf("unexpected config %#v", cfg)
	}
	if cfg.ServerName != "lanes" || cfg.ServerVersion != "dev" {
		t.Fatalf("unexpected server identity %#v", cfg)
	}
}

// TestNormalizeConfigRejectsCollisions verifies endpoint collision checks.
func TestNormalizeConfigRejectsCollisions(t *testing.T) {
	cases := []Config{
		{APIEndpoint: "/x", MCPEndpoint: "/x"},
		{MetricsEndpoint: "/mcp"},
		{MetricsEndpoint: "/api/v1"},
		{MetricsEndpoint: "/healthz"},
	}
	for _, cfg := range cases {
		if _, err := normalizeConfig(cfg); err == nil {
			t.Fatalf("expected collision error for %#v", cfg)
		}
	}
}

// TestNewHandlerRequiresBoard verifies dependency validation.
func TestNewHandlerRequiresBoard(t *testing.T) {
	if _, _, err := NewHandler(Config{}, Dependencies{}); err == nil {
		t.Fatal("expected missing board error")
	}
}

// TestNewHandlerRoutesHealthAndAPI verifies mux composition without metrics.
func TestNewHandlerRoutesHealthAndAPI(t *testing.T) {
	handler, _, err := NewHandler(Config{}, Dependencies{Board: newBoard(t, nil)})
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	if rec := get(t, handler, "/healthz"); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("healthz = %d %q", rec.Code, rec.Body.String())
	}
	rec := get(t, handler, "/api/v1/board")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"total":40`) {
		t.Fatalf("board = %d %q", rec.Code, rec.Body.String())
	}
	if rec := get(t, handler, "/metrics"); rec.Code != http.StatusNotFound {
		t.Fatalf("metrics without registry = %d, want 404", rec.Code)
	}
}

// TestNewHandlerExposesMetrics verifies board and request metrics are scraped.
func TestNewHandlerExposesMetrics(t *testing.T) {
	m := metrics.New()
	handler, _, err := NewHandler(Config{}, Dependencies{Board: newBoard(t, m), Metrics: m})
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	if rec := get(t, handler, "/api/v1/lanes/BACKLOG/items?limit=5"); rec.Code != http.StatusOK {
		t.Fatalf("window = %d %q", rec.Code, rec.Body.String())
	}

	rec := get(t, handler, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics = %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{"lanes_http_requests_total", "lanes_board_view_builds_total", "lanes_board_lane_size"} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
}

// TestRunStopsOnCancel verifies graceful shutdown on context cancellation.
func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, Config{HTTPBind: "127.0.0.1:0"}, Dependencies{Board: newBoard(t, nil)})
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}
