package funding

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/agbado/agbado/internal/gateway"
	"github.com/agbado/agbado/internal/ledger"
	"github.com/agbado/agbado/internal/wallet"
)

// Handler exposes the client-facing deposit verification endpoint.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type verifyDepositRequest struct {
	Reference string `json:"reference"`
}

// VerifyDeposit handles POST /deposits/verify. The caller supplies the
// checkout reference; the gateway is the source of truth for the amount.
func (h *Handler) VerifyDeposit(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthenticated"})
	}

	var req verifyDepositRequest
	if err := c.BodyParser(&req); err != nil || req.Reference == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "reference is required"})
	}

	result, err := h.service.VerifyDeposit(c.Context(), userID, req.Reference)
	if err != nil {
		switch {
		case errors.Is(err, ErrChargeNotSuccessful):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, ErrNotChargeOwner):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "charge belongs to a different customer"})
		case errors.Is(err, gateway.ErrGatewayTimeout):
			return c.Status(fiber.StatusGatewayTimeout).JSON(fiber.Map{"error": "payment gateway timed out"})
		case errors.Is(err, gateway.ErrGatewayRejected):
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, wallet.ErrNotFound), errors.Is(err, ledger.ErrWalletNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "wallet not found"})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not verify deposit"})
		}
	}

	status := fiber.StatusCreated
	if result.Duplicate {
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(fiber.Map{
		"entry_id":  result.Entry.ID,
		"amount":    result.Entry.Amount,
		"reference": result.Entry.ExternalRef,
		"balance":   result.Entry.ResultingBalance,
		"duplicate": result.Duplicate,
	})
}
