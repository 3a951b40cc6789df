package wallet

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/agbado/agbado/internal/ledger"
)

// Handler exposes wallet HTTP endpoints. All routes operate on the
// authenticated owner's wallet; ownership comes from the JWT middleware.
type Handler struct {
	service    *Service
	reconciler *ledger.Reconciler
}

// NewHandler builds a wallet HTTP handler.
func NewHandler(service *Service, reconciler *ledger.Reconciler) *Handler {
	return &Handler{service: service, reconciler: reconciler}
}

type walletResponse struct {
	ID       string `json:"id"`
	OwnerID  string `json:"owner_id"`
	Currency string `json:"currency"`
}

type entryResponse struct {
	ID               string `json:"id"`
	Amount           int64  `json:"amount"`
	Kind             string `json:"kind"`
	Reference        string `json:"reference,omitempty"`
	ResultingBalance int64  `json:"resulting_balance"`
	CreatedAt        string `json:"created_at"`
}

func (h *Handler) ownerWallet(c *fiber.Ctx) (Wallet, error) {
	userID, _ := c.Locals("user_id").(string)
	w, err := h.service.GetByOwner(c.UserContext(), userID)
	if err != nil {
		return Wallet{}, fiber.NewError(http.StatusNotFound, "wallet not found")
	}
	return w, nil
}

// Me returns the wallet, its cached balance, and recent transactions.
func (h *Handler) Me(c *fiber.Ctx) error {
	w, err := h.ownerWallet(c)
	if err != nil {
		return err
	}
	balance, err := h.service.Balance(c.UserContext(), w.ID)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	recent, err := h.service.Transactions(c.UserContext(), w.ID, 5)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{
		"wallet":              walletResponse{ID: w.ID, OwnerID: w.OwnerID, Currency: w.Currency},
		"balance":             balance,
		"recent_transactions": toEntryResponses(recent),
	})
}

// Balance returns the cached balance for the owner's wallet.
func (h *Handler) Balance(c *fiber.Ctx) error {
	w, err := h.ownerWallet(c)
	if err != nil {
		return err
	}
	balance, err := h.service.Balance(c.UserContext(), w.ID)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(balance)
}

// Transactions lists ledger entries for the owner's wallet.
func (h *Handler) Transactions(c *fiber.Ctx) error {
	w, err := h.ownerWallet(c)
	if err != nil {
		return err
	}
	limit := c.QueryInt("limit", 50)
	entries, err := h.service.Transactions(c.UserContext(), w.ID, limit)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"transactions": toEntryResponses(entries)})
}

// Reconcile recomputes the balance from the entry log and reports drift.
// Drift is returned as a 409 with the report; it is never auto-corrected.
func (h *Handler) Reconcile(c *fiber.Ctx) error {
	w, err := h.ownerWallet(c)
	if err != nil {
		return err
	}
	report, err := h.reconciler.Check(c.UserContext(), w.ID)
	if err != nil {
		if errors.Is(err, ledger.ErrConsistencyFault) {
			return c.Status(http.StatusConflict).JSON(report)
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(report)
}

func toEntryResponses(entries []ledger.Entry) []entryResponse {
	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryResponse{
			ID:               e.ID,
			Amount:           e.Amount,
			Kind:             string(e.Kind),
			Reference:        e.ExternalRef,
			ResultingBalance: e.ResultingBalance,
			CreatedAt:        e.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	return out
}
