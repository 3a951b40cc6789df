package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/agbado/agbado/internal/bank"
)

// RegisterBankRoutes wires the supported-banks directory endpoints.
func RegisterBankRoutes(r fiber.Router, h *bank.Handler) {
	grp := r.Group("/banks")
	grp.Get("/", h.List)
	grp.Post("/refresh", h.Refresh)
}
