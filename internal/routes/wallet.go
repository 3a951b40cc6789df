package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/agbado/agbado/internal/wallet"
)

// RegisterWalletRoutes wires the caller's wallet endpoints.
func RegisterWalletRoutes(r fiber.Router, h *wallet.Handler) {
	grp := r.Group("/wallet")
	grp.Get("/", h.Me)
	grp.Get("/balance", h.Balance)
	grp.Get("/transactions", h.Transactions)
	grp.Post("/reconcile", h.Reconcile)
}
