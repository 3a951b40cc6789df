package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/agbado/agbado/internal/withdrawal"
)

// RegisterWithdrawalRoutes wires the payout endpoints.
func RegisterWithdrawalRoutes(r fiber.Router, h *withdrawal.Handler) {
	grp := r.Group("/withdrawals")
	grp.Post("/", h.Create)
	grp.Get("/", h.List)
	grp.Get("/:id", h.Get)
}
