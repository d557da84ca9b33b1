package handlers

import (
	"github.com/gofiber/fiber/v2"

	"curio/internal/auth"
	applog "curio/internal/log"
)

// RequireUser verifies the bearer token and stashes the verified identity in
// Locals. The core never issues tokens; it only checks them.
func RequireUser(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := auth.FromBearer(secret, c.Get("Authorization"))
		if err != nil {
			applog.Security(c, "access.denied.token", map[string]any{"reason": err.Error()})
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
		}
		c.Locals("userID", claims.UserID)
		c.Locals("role", claims.Role)
		return c.Next()
	}
}

// RequireStaff additionally enforces the STAFF role.
func RequireStaff(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := auth.FromBearer(secret, c.Get("Authorization"))
		if err != nil {
			applog.Security(c, "access.denied.token", map[string]any{"reason": err.Error()})
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
		}
		if claims.Role != auth.RoleStaff {
			applog.Security(c, "access.denied.staff", map[string]any{"user_id": claims.UserID})
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden"})
		}
		c.Locals("userID", claims.UserID)
		c.Locals("role", claims.Role)
		return c.Next()
	}
}

func userID(c *fiber.Ctx) string {
	uid, _ := c.Locals("userID").(string)
	return uid
}
