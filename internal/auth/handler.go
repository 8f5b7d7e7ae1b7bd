package auth

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"kyctrust/internal/resource"
	"kyctrust/internal/store"
)

// Handler serves the admin login endpoint.
type Handler struct {
	store     *store.Store
	jwtSecret string
}

func NewHandler(s *store.Store, jwtSecret string) *Handler {
	return &Handler{store: s, jwtSecret: jwtSecret}
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(c *fiber.Ctx) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&body); err != nil {
		return resource.InvalidPayloadError("invalid JSON body")
	}
	if body.Email == "" || body.Password == "" {
		return resource.UnauthorizedError("email and password are required")
	}

	user, err := h.findUserByEmail(c.Context(), body.Email)
	if err != nil {
		return resource.UnauthorizedError("invalid email or password")
	}

	passwordHash, _ := user["password_hash"].(string)
	if !CheckPassword(body.Password, passwordHash) {
		return resource.UnauthorizedError("invalid email or password")
	}

	userID, _ := user["id"].(string)
	token, err := GenerateAccessToken(userID, h.jwtSecret)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"access_token": token})
}

func (h *Handler) findUserByEmail(ctx context.Context, email string) (map[string]any, error) {
	pb := h.store.Dialect.NewParamBuilder()
	sqlStr := fmt.Sprintf("SELECT id, email, password_hash FROM admin_users WHERE email = %s", pb.Add(email))
	return store.QueryRow(ctx, h.store.DB, sqlStr, pb.Params()...)
}

// RegisterAuthRoutes mounts the auth endpoints.
func RegisterAuthRoutes(app *fiber.App, h *Handler) {
	app.Post("/api/auth/login", h.Login)
}
