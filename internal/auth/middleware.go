package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"kyctrust/internal/resource"
)

// Middleware returns a Fiber middleware that validates bearer JWT tokens
// and stores the admin user id on the request.
func Middleware(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		if header == "" {
			return resource.UnauthorizedError("missing auth token")
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return resource.UnauthorizedError("invalid auth header format")
		}

		claims, err := ParseAccessToken(parts[1], secret)
		if err != nil {
			return resource.UnauthorizedError("invalid or expired token")
		}

		c.Locals("user_id", claims.Subject)
		return c.Next()
	}
}
