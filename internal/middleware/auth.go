package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/saisidhanth1551/CommUnity-care/internal/utils"
)

// Protect resolves the caller's identity from the Authorization header.
// Trust is recomputed from the signature and expiry only; the role claims
// reflect the token's issuance time, which is why tokens are kept
// short-lived (JWT_EXPIRES_MIN).
func Protect(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Not authorized, no token",
			})
		}

		tokenStr := strings.TrimPrefix(header, "Bearer ")
		claims, err := utils.ParseJWT(secret, tokenStr)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Not authorized, token failed",
			})
		}

		uid := strings.TrimSpace(claims.UserID)
		if uid == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Not authorized, token failed",
			})
		}

		roles := make([]string, 0, len(claims.Roles))
		for _, r := range claims.Roles {
			roles = append(roles, strings.ToLower(strings.TrimSpace(r)))
		}

		c.Locals("userId", uid)
		c.Locals("roles", roles)
		return c.Next()
	}
}
