package admin

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"kyctrust/internal/config"
	"kyctrust/internal/resource"
	"kyctrust/internal/state"
	"kyctrust/internal/store"
)

func testHandler(t *testing.T) (*fiber.App, *store.Store) {
	t.Helper()
	ctx := context.Background()

	s, err := store.New(ctx, config.DatabaseConfig{
		Driver: "sqlite",
		Name:   "admin_test",
		Path:   t.TempDir(),
	})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(s.Close)
	if err := s.Bootstrap(ctx); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	appState := state.New(state.Defaults())
	h := NewHandler(s, appState, resource.Builtin(), config.StateConfig{
		AdminStatsMaxAge: time.Minute,
	})

	app := fiber.New()
	RegisterAdminRoutes(app, h)
	return app, s
}

func getStats(t *testing.T, app *fiber.App) map[string]any {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func TestStatsComputesCounts(t *testing.T) {
	app, s := testHandler(t)
	ctx := context.Background()

	_, err := s.DB.ExecContext(ctx,
		"INSERT INTO orders (id, customer_name, status) VALUES (?1, ?2, ?3)",
		"o-1", "Ali", "pending")
	if err != nil {
		t.Fatalf("seed order: %v", err)
	}

	body := getStats(t, app)
	if body["cached"] != false {
		t.Fatalf("first call should be computed, got %v", body["cached"])
	}
	stats, ok := body["stats"].(map[string]any)
	if !ok {
		t.Fatalf("stats missing: %v", body)
	}
	if stats["orders"] != float64(1) {
		t.Fatalf("orders count = %v", stats["orders"])
	}
	if stats["pending_orders"] != float64(1) {
		t.Fatalf("pending_orders = %v", stats["pending_orders"])
	}
	if stats["services"] != float64(0) {
		t.Fatalf("services count = %v", stats["services"])
	}
}

func TestStatsSecondCallServesFromCache(t *testing.T) {
	app, s := testHandler(t)
	ctx := context.Background()

	first := getStats(t, app)
	if first["cached"] != false {
		t.Fatalf("first call should be computed, got %v", first["cached"])
	}

	// New rows don't show until the cache entry goes stale
	_, err := s.DB.ExecContext(ctx,
		"INSERT INTO services (id, name) VALUES (?1, ?2)", "s-1", "Wise")
	if err != nil {
		t.Fatalf("seed service: %v", err)
	}

	second := getStats(t, app)
	if second["cached"] != true {
		t.Fatalf("second call should hit the cache, got %v", second["cached"])
	}
	stats := second["stats"].(map[string]any)
	if stats["services"] != float64(0) {
		t.Fatalf("cached stats should be stale, got %v", stats["services"])
	}
}
