package resource

import "github.com/gofiber/fiber/v2"

// CORS adds permissive cross-origin headers to every response and answers
// pre-flight OPTIONS immediately with 200 and no body. The stock fiber cors
// middleware replies 204 to pre-flight, which this API's contract does not
// allow, so the handful of headers is set by hand.
func CORS() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("Access-Control-Allow-Origin", "*")
		c.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Method() == fiber.MethodOptions {
			return c.Status(fiber.StatusOK).SendString("")
		}
		return c.Next()
	}
}
