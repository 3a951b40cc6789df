package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/agbado/agbado/internal/logging"
)

func TestReconcilerConsistent(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	if err := Fund(s, "w1", 7_500); err != nil {
		t.Fatalf("fund: %v", err)
	}

	rec := NewReconciler(s, logging.Discard())
	report, err := rec.Check(ctx, "w1")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !report.Consistent() || report.Cached != 7_500 || report.Recomputed != 7_500 {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestReconcilerDetectsDrift(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	if err := Fund(s, "w1", 7_500); err != nil {
		t.Fatalf("fund: %v", err)
	}

	// Force the cached balance away from the entry log.
	SeedBalance(s, "w1", 9_000)

	rec := NewReconciler(s, logging.Discard())
	report, err := rec.Check(ctx, "w1")
	if !errors.Is(err, ErrConsistencyFault) {
		t.Fatalf("expected consistency fault, got %v", err)
	}
	if report.Drift != 1_500 {
		t.Fatalf("expected drift 1500, got %d", report.Drift)
	}
}

func TestReconcilerUnknownWallet(t *testing.T) {
	rec := NewReconciler(NewInMemory(), logging.Discard())
	if _, err := rec.Check(context.Background(), "missing"); !errors.Is(err, ErrWalletNotFound) {
		t.Fatalf("expected wallet not found, got %v", err)
	}
}
