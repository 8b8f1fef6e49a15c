package auth

import "github.com/gofiber/fiber/v2"

// Request identity helpers. The auth gateway in front of this service
// populates these headers after validating the session; we only read them.

func UserID(c *fiber.Ctx) string {
	if v, ok := c.Locals("user_id").(string); ok && v != "" {
		return v
	}
	return c.Get("X-User-Id")
}

func TerminalID(c *fiber.Ctx) string {
	if v, ok := c.Locals("terminal_id").(string); ok && v != "" {
		return v
	}
	return c.Get("X-Terminal-Id")
}
