package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type walletState struct {
	balance int64
	version int64
}

type inMemoryStore struct {
	mu      sync.RWMutex
	wallets map[string]*walletState
	entries map[string][]Entry // wallet id -> append order
	byRef   map[string]Entry
}

// NewInMemory creates a concurrency-safe in-memory ledger store useful for unit tests.
func NewInMemory() Store {
	return &inMemoryStore{
		wallets: make(map[string]*walletState),
		entries: make(map[string][]Entry),
		byRef:   make(map[string]Entry),
	}
}

func (s *inMemoryStore) EnsureWallet(_ context.Context, walletID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.wallets[walletID]; !ok {
		s.wallets[walletID] = &walletState{}
	}
	return nil
}

func (s *inMemoryStore) Append(_ context.Context, walletID string, amount int64, kind Kind, externalRef string) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.wallets[walletID]
	if !ok {
		return Entry{}, ErrWalletNotFound
	}

	// Same precedence as the Postgres store: the overdraft check runs
	// before the reference claim, so an append that is both reports
	// ErrInsufficientFunds.
	resulting := w.balance + amount
	if amount < 0 && resulting < 0 {
		return Entry{}, ErrInsufficientFunds
	}
	if externalRef != "" {
		if _, exists := s.byRef[externalRef]; exists {
			return Entry{}, ErrDuplicateReference
		}
	}

	entry := Entry{
		ID:               uuid.NewString(),
		WalletID:         walletID,
		Amount:           amount,
		Kind:             kind,
		ExternalRef:      externalRef,
		ResultingBalance: resulting,
		CreatedAt:        time.Now().UTC(),
	}

	w.balance = resulting
	w.version++
	s.entries[walletID] = append(s.entries[walletID], entry)
	if externalRef != "" {
		s.byRef[externalRef] = entry
	}
	return entry, nil
}

func (s *inMemoryStore) FindByReference(_ context.Context, externalRef string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.byRef[externalRef]
	if !ok {
		return Entry{}, ErrReferenceNotFound
	}
	return entry, nil
}

func (s *inMemoryStore) Entries(_ context.Context, walletID string, limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.wallets[walletID]; !ok {
		return nil, ErrWalletNotFound
	}
	stored := s.entries[walletID]
	out := make([]Entry, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		out = append(out, stored[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *inMemoryStore) Balance(_ context.Context, walletID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.wallets[walletID]
	if !ok {
		return 0, ErrWalletNotFound
	}
	return w.balance, nil
}

func (s *inMemoryStore) Recompute(_ context.Context, walletID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.wallets[walletID]; !ok {
		return 0, ErrWalletNotFound
	}
	var sum int64
	for _, entry := range s.entries[walletID] {
		sum += entry.Amount
	}
	return sum, nil
}
