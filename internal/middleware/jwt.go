package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/agbado/agbado/internal/auth"
)

// JWTAuth validates bearer access tokens and stores the authenticated user
// id in the request locals.
func JWTAuth(tokens *auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}
		tokenStr := strings.TrimSpace(authz[len("Bearer "):])

		user, err := tokens.VerifyAccess(c.UserContext(), tokenStr)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		c.Locals("user_id", user.ID)
		return c.Next()
	}
}
