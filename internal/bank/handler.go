package bank

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/agbado/agbado/internal/gateway"
)

// Handler exposes the bank directory endpoints.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// List handles GET /banks.
func (h *Handler) List(c *fiber.Ctx) error {
	banks, err := h.service.List(c.Context())
	if err != nil {
		if errors.Is(err, gateway.ErrGatewayTimeout) {
			return c.Status(fiber.StatusGatewayTimeout).JSON(fiber.Map{"error": "payment gateway timed out"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not load bank directory"})
	}
	if banks == nil {
		banks = []Bank{}
	}
	return c.JSON(fiber.Map{"banks": banks})
}

// Refresh handles POST /banks/refresh.
func (h *Handler) Refresh(c *fiber.Ctx) error {
	banks, err := h.service.Refresh(c.Context())
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "could not refresh bank directory"})
	}
	return c.JSON(fiber.Map{"banks": banks, "count": len(banks)})
}
