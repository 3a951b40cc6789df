package ledger

import (
	"context"
	"log/slog"
)

// Report captures the outcome of comparing a wallet's cached balance against
// the sum of its entries.
type Report struct {
	WalletID   string `json:"wallet_id"`
	Cached     int64  `json:"cached_balance"`
	Recomputed int64  `json:"recomputed_balance"`
	Drift      int64  `json:"drift"`
}

// Consistent reports whether the cached and recomputed balances agree.
func (r Report) Consistent() bool {
	return r.Drift == 0
}

// Reconciler detects drift between the cached wallet balance and the folded
// entry log. Drift is reported, never repaired: a mismatch means an append
// happened outside the atomic path and needs operator attention.
type Reconciler struct {
	store  Store
	logger *slog.Logger
}

// NewReconciler builds a reconciler over the given store.
func NewReconciler(store Store, logger *slog.Logger) *Reconciler {
	return &Reconciler{store: store, logger: logger}
}

// Check compares balances for one wallet. Returns ErrConsistencyFault
// alongside the report when they disagree.
func (r *Reconciler) Check(ctx context.Context, walletID string) (Report, error) {
	cached, err := r.store.Balance(ctx, walletID)
	if err != nil {
		return Report{}, err
	}
	recomputed, err := r.store.Recompute(ctx, walletID)
	if err != nil {
		return Report{}, err
	}

	report := Report{
		WalletID:   walletID,
		Cached:     cached,
		Recomputed: recomputed,
		Drift:      cached - recomputed,
	}
	if !report.Consistent() {
		if r.logger != nil {
			r.logger.Error("ledger drift detected",
				slog.String("wallet_id", walletID),
				slog.Int64("cached", cached),
				slog.Int64("recomputed", recomputed))
		}
		return report, ErrConsistencyFault
	}
	return report, nil
}
