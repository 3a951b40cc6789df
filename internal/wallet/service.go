package wallet

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/agbado/agbado/internal/ledger"
)

const defaultCurrency = "NGN"

// Service exposes wallet operations backed by the ledger.
type Service struct {
	repo   Repository
	ledger ledger.Store
}

// NewService builds a wallet service instance.
func NewService(repo Repository, store ledger.Store) *Service {
	return &Service{repo: repo, ledger: store}
}

// Create provisions a wallet for a user. Called once at registration; the
// wallet's lifecycle is tied to the account.
func (s *Service) Create(ctx context.Context, ownerID, currency string) (Wallet, error) {
	if currency == "" {
		currency = defaultCurrency
	}
	w := Wallet{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Currency:  currency,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, w); err != nil {
		return Wallet{}, err
	}
	if err := s.ledger.EnsureWallet(ctx, w.ID); err != nil {
		return Wallet{}, err
	}
	return w, nil
}

// Get retrieves wallet metadata.
func (s *Service) Get(ctx context.Context, id string) (Wallet, error) {
	return s.repo.Get(ctx, id)
}

// GetByOwner retrieves the wallet belonging to a user.
func (s *Service) GetByOwner(ctx context.Context, ownerID string) (Wallet, error) {
	return s.repo.GetByOwner(ctx, ownerID)
}

// Balance serves the cached wallet balance.
func (s *Service) Balance(ctx context.Context, id string) (Balance, error) {
	w, err := s.repo.Get(ctx, id)
	if err != nil {
		return Balance{}, err
	}
	amount, err := s.ledger.Balance(ctx, w.ID)
	if err != nil {
		return Balance{}, err
	}
	return Balance{WalletID: w.ID, Amount: amount, Currency: w.Currency, AsOf: time.Now().UTC()}, nil
}

// Transactions lists recent ledger entries for the wallet, newest first.
func (s *Service) Transactions(ctx context.Context, id string, limit int) ([]ledger.Entry, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.ledger.Entries(ctx, id, limit)
}
