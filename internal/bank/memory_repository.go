package bank

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepository is an in-memory Repository for tests.
type MemoryRepository struct {
	mu     sync.RWMutex
	banks  map[string]Bank
	active map[string]bool
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{banks: make(map[string]Bank), active: make(map[string]bool)}
}

func (r *MemoryRepository) Upsert(ctx context.Context, banks []Bank) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for code := range r.active {
		r.active[code] = false
	}
	for _, b := range banks {
		r.banks[b.Code] = b
		r.active[b.Code] = true
	}
	return nil
}

func (r *MemoryRepository) ListActive(ctx context.Context) ([]Bank, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Bank
	for code, b := range r.banks {
		if r.active[code] {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *MemoryRepository) Exists(ctx context.Context, code string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active[code], nil
}
