package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/agbado/agbado/internal/webhook"
)

// RegisterWebhookRoutes wires the gateway callback ingress.
func RegisterWebhookRoutes(r fiber.Router, h *webhook.Handler) {
	r.Post("/webhooks/paystack", h.Receive)
}
