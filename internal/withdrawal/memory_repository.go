package withdrawal

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepository is an in-memory Repository for tests.
type MemoryRepository struct {
	mu    sync.RWMutex
	byID  map[string]Withdrawal
	byRef map[string]string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:  make(map[string]Withdrawal),
		byRef: make(map[string]string),
	}
}

func (r *MemoryRepository) Create(ctx context.Context, w Withdrawal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w.UpdatedAt = w.CreatedAt
	r.byID[w.ID] = w
	r.byRef[w.Reference] = w.ID
	return nil
}

func (r *MemoryRepository) Get(ctx context.Context, id string) (Withdrawal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.byID[id]
	if !ok {
		return Withdrawal{}, ErrNotFound
	}
	return w, nil
}

func (r *MemoryRepository) GetByReference(ctx context.Context, reference string) (Withdrawal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byRef[reference]
	if !ok {
		return Withdrawal{}, ErrNotFound
	}
	return r.byID[id], nil
}

func (r *MemoryRepository) ListByWallet(ctx context.Context, walletID string, limit int) ([]Withdrawal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Withdrawal
	for _, w := range r.byID {
		if w.WalletID == walletID {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepository) UpdateStatus(ctx context.Context, id string, status Status, failureReason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	w.Status = status
	w.FailureReason = failureReason
	w.UpdatedAt = time.Now().UTC()
	r.byID[id] = w
	return nil
}

func (r *MemoryRepository) UpdateGatewayDetails(ctx context.Context, id, recipientCode, transferCode string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	w.RecipientCode = recipientCode
	w.TransferCode = transferCode
	w.UpdatedAt = time.Now().UTC()
	r.byID[id] = w
	return nil
}

func (r *MemoryRepository) ListStaleProcessing(ctx context.Context, olderThan time.Time) ([]Withdrawal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Withdrawal
	for _, w := range r.byID {
		if w.Status == StatusProcessing && w.UpdatedAt.Before(olderThan) {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	return out, nil
}

func (r *MemoryRepository) ListFailed(ctx context.Context) ([]Withdrawal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Withdrawal
	for _, w := range r.byID {
		if w.Status == StatusFailed {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	return out, nil
}

// setUpdatedAt backdates a record so reaper tests can build stale fixtures.
func (r *MemoryRepository) setUpdatedAt(id string, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w := r.byID[id]
	w.UpdatedAt = at
	r.byID[id] = w
}
