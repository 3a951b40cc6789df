package ledger

import "context"

// SeedBalance is a test helper that sets the cached balance for a wallet when
// using the in-memory store, without recording an entry. A seeded balance has
// no backing entries, so Recompute will disagree with it; tests that need a
// consistent ledger should use Fund instead.
func SeedBalance(s Store, walletID string, amount int64) {
	if mem, ok := s.(*inMemoryStore); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		if _, exists := mem.wallets[walletID]; !exists {
			mem.wallets[walletID] = &walletState{}
		}
		mem.wallets[walletID].balance = amount
	}
}

// Fund is a test helper that credits a wallet through the normal append path
// so the cached balance and the entry log stay consistent.
func Fund(s Store, walletID string, amount int64) error {
	ctx := context.Background()
	if err := s.EnsureWallet(ctx, walletID); err != nil {
		return err
	}
	_, err := s.Append(ctx, walletID, amount, KindDeposit, "")
	return err
}
