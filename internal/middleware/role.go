package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// RequireRoles allows the request through when the caller holds at least one
// of the allowed roles. Membership is exact lowercase string comparison; no
// role implies another.
func RequireRoles(allowed ...string) fiber.Handler {
	allowedSet := map[string]bool{}
	for _, r := range allowed {
		allowedSet[strings.ToLower(r)] = true
	}

	return func(c *fiber.Ctx) error {
		roles, ok := c.Locals("roles").([]string)
		if !ok || len(roles) == 0 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Not authorized, no token",
			})
		}

		for _, r := range roles {
			if allowedSet[r] {
				return c.Next()
			}
		}

		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "Access denied. Required role missing.",
		})
	}
}
