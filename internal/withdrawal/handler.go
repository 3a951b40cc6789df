package withdrawal

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/agbado/agbado/internal/gateway"
	"github.com/agbado/agbado/internal/ledger"
	"github.com/agbado/agbado/internal/wallet"
)

// Handler exposes the withdrawal endpoints.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Create handles POST /withdrawals. Accepted withdrawals return 202; the
// final state arrives later through the gateway webhook.
func (h *Handler) Create(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthenticated"})
	}

	var req Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	wd, err := h.service.Request(c.Context(), userID, req)
	if err != nil {
		var verr validator.ValidationErrors
		switch {
		case errors.As(err, &verr):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": verr.Error()})
		case errors.Is(err, ErrUnknownBank):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, ledger.ErrInsufficientFunds):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "insufficient funds"})
		case errors.Is(err, wallet.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "wallet not found"})
		case errors.Is(err, gateway.ErrGatewayTimeout):
			return c.Status(fiber.StatusGatewayTimeout).JSON(fiber.Map{"error": "payment gateway timed out, funds were not deducted"})
		case errors.Is(err, gateway.ErrGatewayRejected):
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not process withdrawal"})
		}
	}

	return c.Status(fiber.StatusAccepted).JSON(wd)
}

// Get handles GET /withdrawals/:id.
func (h *Handler) Get(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthenticated"})
	}

	wd, err := h.service.Get(c.Context(), userID, c.Params("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrNotOwner) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "withdrawal not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not load withdrawal"})
	}
	return c.JSON(wd)
}

// List handles GET /withdrawals.
func (h *Handler) List(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthenticated"})
	}

	items, err := h.service.List(c.Context(), userID, c.QueryInt("limit", 50))
	if err != nil {
		if errors.Is(err, wallet.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "wallet not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not list withdrawals"})
	}
	if items == nil {
		items = []Withdrawal{}
	}
	return c.JSON(fiber.Map{"withdrawals": items})
}
