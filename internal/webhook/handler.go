package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/agbado/agbado/internal/funding"
	"github.com/agbado/agbado/internal/gateway"
	"github.com/agbado/agbado/internal/logging"
)

// TransferApplier applies verified transfer events to withdrawal state.
type TransferApplier interface {
	HandleTransferEvent(ctx context.Context, event string, data gateway.TransferData) error
}

// Handler is the single ingress for gateway callbacks. Signature verification
// happens before the payload is even parsed; nothing downstream runs for an
// unauthenticated body.
type Handler struct {
	verifier    *gateway.Verifier
	deposits    *funding.Service
	withdrawals TransferApplier
	logger      *slog.Logger
}

func NewHandler(verifier *gateway.Verifier, deposits *funding.Service, withdrawals TransferApplier, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Handler{verifier: verifier, deposits: deposits, withdrawals: withdrawals, logger: logger}
}

// Receive handles POST /webhooks/paystack.
func (h *Handler) Receive(c *fiber.Ctx) error {
	event, err := h.verifier.Verify(c.Body(), c.Get(gateway.SignatureHeader))
	if err != nil {
		if errors.Is(err, gateway.ErrStaleEvent) {
			h.logger.Warn("stale webhook dropped")
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "stale event"})
		}
		h.logger.Warn("webhook signature rejected", slog.String("ip", c.IP()))
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid signature"})
	}

	switch event.Event {
	case gateway.EventChargeSuccess:
		return h.applyCharge(c, event.Data)
	case gateway.EventTransferSuccess, gateway.EventTransferFailed, gateway.EventTransferReversed:
		return h.applyTransfer(c, event.Event, event.Data)
	default:
		// Unrecognized events are acknowledged so the gateway stops retrying.
		h.logger.Debug("webhook event ignored", slog.String("event", event.Event))
		return c.SendStatus(fiber.StatusOK)
	}
}

func (h *Handler) applyCharge(c *fiber.Ctx, raw json.RawMessage) error {
	var data gateway.ChargeData
	if err := json.Unmarshal(raw, &data); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed charge payload"})
	}

	result, err := h.deposits.CreditByEmail(c.Context(), data.Customer.Email, data.Amount, data.Reference)
	if err != nil {
		if errors.Is(err, funding.ErrUnknownCustomer) {
			// Acknowledge; retrying will not make the customer appear.
			h.logger.Warn("charge for unknown customer", slog.String("reference", data.Reference))
			return c.SendStatus(fiber.StatusOK)
		}
		h.logger.Error("charge webhook failed",
			slog.String("reference", data.Reference),
			slog.String("error", err.Error()))
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	if result.Duplicate {
		h.logger.Info("charge webhook redelivered", slog.String("reference", data.Reference))
	}
	return c.SendStatus(fiber.StatusOK)
}

func (h *Handler) applyTransfer(c *fiber.Ctx, event string, raw json.RawMessage) error {
	var data gateway.TransferData
	if err := json.Unmarshal(raw, &data); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed transfer payload"})
	}

	if err := h.withdrawals.HandleTransferEvent(c.Context(), event, data); err != nil {
		h.logger.Error("transfer webhook failed",
			slog.String("reference", data.Reference),
			slog.String("error", err.Error()))
		return c.SendStatus(fiber.StatusInternalServerError)
	}
	return c.SendStatus(fiber.StatusOK)
}
