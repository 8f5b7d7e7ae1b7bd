package resource

import "github.com/gofiber/fiber/v2"

// Register mounts every resource under /api/<plural> with a single dispatch
// handler per path. Dispatch by method keeps the Allow header exact: it lists
// only the operations the resource registered.
func Register(app *fiber.App, h *Handler, resources []*Resource) {
	api := app.Group("/api")
	for _, r := range resources {
		api.All("/"+r.Plural, h.Dispatch(r))
	}
}

// Dispatch routes one HTTP method to one registered CRUD operation.
// Unregistered methods get 405 with the Allow header; OPTIONS never reaches
// here (the CORS middleware answers it).
func (h *Handler) Dispatch(r *Resource) fiber.Handler {
	return func(c *fiber.Ctx) error {
		switch c.Method() {
		case fiber.MethodGet:
			if r.Allows(OpList) {
				return h.list(c, r)
			}
		case fiber.MethodPost:
			if r.Allows(OpCreate) {
				if r.UpsertKey != "" {
					return h.upsertByKey(c, r)
				}
				return h.create(c, r)
			}
		case fiber.MethodPut:
			if r.Allows(OpUpdate) {
				return h.update(c, r)
			}
		case fiber.MethodDelete:
			if r.Allows(OpDelete) {
				return h.delete(c, r)
			}
		}

		c.Set(fiber.HeaderAllow, r.AllowHeader())
		return MethodNotAllowedError(c.Method())
	}
}
