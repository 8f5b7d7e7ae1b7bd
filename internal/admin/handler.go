package admin

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"kyctrust/internal/config"
	"kyctrust/internal/resource"
	"kyctrust/internal/state"
	"kyctrust/internal/store"
)

const statsCacheKey = "admin:stats"

// Handler serves the dashboard stats endpoint. Computed stats are cached in
// the application state store so a busy dashboard doesn't hammer the
// database.
type Handler struct {
	store     *store.Store
	appState  *state.Store
	resources []*resource.Resource
	cfg       config.StateConfig
}

func NewHandler(s *store.Store, appState *state.Store, resources []*resource.Resource, cfg config.StateConfig) *Handler {
	return &Handler{store: s, appState: appState, resources: resources, cfg: cfg}
}

// Stats handles GET /api/admin/stats.
func (h *Handler) Stats(c *fiber.Ctx) error {
	if cached, ok := h.appState.GetCache(statsCacheKey, h.cfg.AdminStatsMaxAge); ok {
		return c.JSON(fiber.Map{"stats": cached, "cached": true})
	}

	stats, err := h.computeStats(c.Context())
	if err != nil {
		return resource.InternalError("compute stats", err)
	}

	h.appState.SetCache(statsCacheKey, stats)
	return c.JSON(fiber.Map{"stats": stats, "cached": false})
}

func (h *Handler) computeStats(ctx context.Context) (map[string]any, error) {
	stats := make(map[string]any, len(h.resources)+1)
	for _, r := range h.resources {
		var count int64
		sqlStr := fmt.Sprintf("SELECT COUNT(*) FROM %s", r.Table)
		if err := h.store.DB.QueryRowContext(ctx, sqlStr).Scan(&count); err != nil {
			return nil, fmt.Errorf("count %s: %w", r.Plural, err)
		}
		stats[r.Plural] = count
	}

	pb := h.store.Dialect.NewParamBuilder()
	var pending int64
	sqlStr := fmt.Sprintf("SELECT COUNT(*) FROM orders WHERE status = %s", pb.Add("pending"))
	if err := h.store.DB.QueryRowContext(ctx, sqlStr, pb.Params()...).Scan(&pending); err != nil {
		return nil, fmt.Errorf("count pending orders: %w", err)
	}
	stats["pending_orders"] = pending

	return stats, nil
}

// RegisterAdminRoutes mounts the admin endpoints behind the given middleware.
func RegisterAdminRoutes(app *fiber.App, h *Handler, middleware ...fiber.Handler) {
	grp := app.Group("/api/admin", middleware...)
	grp.Get("/stats", h.Stats)
}
