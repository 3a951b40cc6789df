package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestInMemoryStore_AppendMovesBalance(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	if err := s.EnsureWallet(ctx, "w1"); err != nil {
		t.Fatalf("ensure wallet: %v", err)
	}

	first, err := s.Append(ctx, "w1", 5_000, KindDeposit, "tx1")
	if err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	if first.ResultingBalance != 5_000 {
		t.Fatalf("expected resulting balance 5000, got %d", first.ResultingBalance)
	}

	second, err := s.Append(ctx, "w1", -1_500, KindWithdrawal, "")
	if err != nil {
		t.Fatalf("withdrawal failed: %v", err)
	}
	if second.ResultingBalance != 3_500 {
		t.Fatalf("expected resulting balance 3500, got %d", second.ResultingBalance)
	}

	balance, err := s.Balance(ctx, "w1")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 3_500 {
		t.Fatalf("expected cached balance 3500, got %d", balance)
	}
}

func TestInMemoryStore_InsufficientFunds(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	s.EnsureWallet(ctx, "w1")

	if _, err := s.Append(ctx, "w1", 5_000, KindDeposit, "tx1"); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	if _, err := s.Append(ctx, "w1", -6_000, KindWithdrawal, ""); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}

	// The rejected withdrawal must not leave an entry behind.
	entries, err := s.Entries(ctx, "w1", 0)
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	balance, _ := s.Balance(ctx, "w1")
	if balance != 5_000 {
		t.Fatalf("balance moved on rejected withdrawal: %d", balance)
	}
}

func TestInMemoryStore_DuplicateReference(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	s.EnsureWallet(ctx, "w1")

	if _, err := s.Append(ctx, "w1", 5_000, KindDeposit, "tx1"); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	if _, err := s.Append(ctx, "w1", 5_000, KindDeposit, "tx1"); !errors.Is(err, ErrDuplicateReference) {
		t.Fatalf("expected duplicate reference, got %v", err)
	}

	prior, err := s.FindByReference(ctx, "tx1")
	if err != nil {
		t.Fatalf("find by reference: %v", err)
	}
	if prior.Amount != 5_000 || prior.Kind != KindDeposit {
		t.Fatalf("unexpected prior entry: %+v", prior)
	}

	balance, _ := s.Balance(ctx, "w1")
	if balance != 5_000 {
		t.Fatalf("duplicate reference moved balance: %d", balance)
	}
}

func TestInMemoryStore_OverdraftCheckedBeforeReferenceClaim(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	s.EnsureWallet(ctx, "w1")

	if _, err := s.Append(ctx, "w1", 1_000, KindDeposit, ""); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	if _, err := s.Append(ctx, "w1", -4_000, KindWithdrawal, "wd1"); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}

	// The rejected append must not have claimed the reference.
	if _, err := s.FindByReference(ctx, "wd1"); !errors.Is(err, ErrReferenceNotFound) {
		t.Fatalf("rejected append claimed reference: %v", err)
	}

	// An append that is both overdrawn and a duplicate reports the
	// overdraft, matching the Postgres store's check ordering.
	if _, err := s.Append(ctx, "w1", -500, KindWithdrawal, "wd2"); err != nil {
		t.Fatalf("withdrawal failed: %v", err)
	}
	if _, err := s.Append(ctx, "w1", -900, KindWithdrawal, "wd2"); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
}

func TestInMemoryStore_RecomputeMatchesCached(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	s.EnsureWallet(ctx, "w1")

	amounts := []int64{4_000, -1_000, 2_500, -500}
	kinds := []Kind{KindDeposit, KindWithdrawal, KindDeposit, KindFee}
	for i := range amounts {
		if _, err := s.Append(ctx, "w1", amounts[i], kinds[i], ""); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	cached, _ := s.Balance(ctx, "w1")
	recomputed, err := s.Recompute(ctx, "w1")
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if cached != recomputed {
		t.Fatalf("cached %d != recomputed %d", cached, recomputed)
	}
	if cached != 5_000 {
		t.Fatalf("expected 5000, got %d", cached)
	}
}

func TestInMemoryStore_ConcurrentAppendsConverge(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	s.EnsureWallet(ctx, "w1")
	if _, err := s.Append(ctx, "w1", 100_000, KindDeposit, ""); err != nil {
		t.Fatalf("seed deposit: %v", err)
	}

	const workers = 10
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := s.Append(ctx, "w1", 500, KindDeposit, fmt.Sprintf("dep-%d", i)); err != nil {
				t.Errorf("deposit %d: %v", i, err)
			}
			if _, err := s.Append(ctx, "w1", -500, KindWithdrawal, ""); err != nil {
				t.Errorf("withdrawal %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	cached, _ := s.Balance(ctx, "w1")
	recomputed, _ := s.Recompute(ctx, "w1")
	if cached != recomputed {
		t.Fatalf("lost update: cached %d recomputed %d", cached, recomputed)
	}
	if cached != 100_000 {
		t.Fatalf("expected 100000 after balanced ops, got %d", cached)
	}
}

// Matches the documented scenario: a deposit webhook delivered twice
// concurrently credits once; an over-balance withdrawal changes nothing.
func TestInMemoryStore_DoubleDeliveryThenOverdraw(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	s.EnsureWallet(ctx, "w1")

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = s.Append(ctx, "w1", 5_000, KindDeposit, "tx1")
		}(i)
	}
	wg.Wait()

	var fresh, dup int
	for _, err := range results {
		switch {
		case err == nil:
			fresh++
		case errors.Is(err, ErrDuplicateReference):
			dup++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if fresh != 1 || dup != 1 {
		t.Fatalf("expected one fresh and one duplicate, got fresh=%d dup=%d", fresh, dup)
	}

	if _, err := s.Append(ctx, "w1", -6_000, KindWithdrawal, ""); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}

	balance, _ := s.Balance(ctx, "w1")
	if balance != 5_000 {
		t.Fatalf("expected balance 5000, got %d", balance)
	}
	entries, _ := s.Entries(ctx, "w1", 0)
	if len(entries) != 1 {
		t.Fatalf("expected exactly one entry, got %d", len(entries))
	}
}

func TestInMemoryStore_EntriesNewestFirst(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	s.EnsureWallet(ctx, "w1")

	for i := 0; i < 5; i++ {
		if _, err := s.Append(ctx, "w1", int64(1_000*(i+1)), KindDeposit, ""); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	entries, err := s.Entries(ctx, "w1", 2)
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Amount != 5_000 || entries[1].Amount != 4_000 {
		t.Fatalf("entries not newest first: %+v", entries)
	}
}
