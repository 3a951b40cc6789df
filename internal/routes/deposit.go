package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/agbado/agbado/internal/funding"
)

// RegisterDepositRoutes wires the client-side deposit endpoints.
func RegisterDepositRoutes(r fiber.Router, h *funding.Handler) {
	r.Post("/deposits/verify", h.VerifyDeposit)
}
