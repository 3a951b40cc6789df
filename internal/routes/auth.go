package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/agbado/agbado/internal/auth"
)

// RegisterAuthRoutes wires registration and session endpoints. Logout is the
// only one that needs an authenticated caller.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, loginLimiter, jwtAuth fiber.Handler) {
	grp := r.Group("/auth")
	grp.Post("/register", h.Register)
	grp.Post("/login", loginLimiter, h.Login)
	grp.Post("/refresh", h.Refresh)
	grp.Post("/logout", jwtAuth, h.Logout)
}
