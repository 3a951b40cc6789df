package ledger

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInsufficientFunds occurs when a debit would drive the wallet
	// balance below zero. Nothing is written when it is returned.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrDuplicateReference indicates the external reference has already
	// produced an entry; callers should fetch and return the prior result
	// instead of reprocessing.
	ErrDuplicateReference = errors.New("duplicate external reference")

	// ErrWalletNotFound indicates the wallet has no ledger record.
	ErrWalletNotFound = errors.New("wallet not found")

	// ErrReferenceNotFound indicates no entry exists for the reference.
	ErrReferenceNotFound = errors.New("reference not found")

	// ErrConsistencyFault signals that the cached wallet balance disagrees
	// with the sum of its entries. It is surfaced to operators and never
	// corrected silently.
	ErrConsistencyFault = errors.New("ledger consistency fault")
)

// Kind classifies a balance-affecting entry.
type Kind string

const (
	KindDeposit    Kind = "deposit"
	KindWithdrawal Kind = "withdrawal"
	KindFee        Kind = "fee"
	KindReversal   Kind = "reversal"
)

// Entry is an immutable record of a single balance-affecting event.
// Amounts are signed integers in minor units (kobo).
type Entry struct {
	ID               string
	WalletID         string
	Amount           int64
	Kind             Kind
	ExternalRef      string
	ResultingBalance int64
	CreatedAt        time.Time
}

// Store is the contract implemented by ledger backends.
//
// Append is the only way a wallet balance changes: it inserts the entry and
// updates the cached balance and version counter in one atomic unit, with
// mutations on the same wallet serialized. An empty externalRef records an
// internal entry; a non-empty one doubles as the idempotency claim, taken by
// a unique-constraint insert rather than a read-then-write check.
type Store interface {
	// EnsureWallet guarantees a ledger record exists for the wallet.
	EnsureWallet(ctx context.Context, walletID string) error

	// Append atomically posts an entry and moves the cached balance.
	// Fails with ErrInsufficientFunds when amount would drive the balance
	// negative and ErrDuplicateReference when externalRef already exists.
	Append(ctx context.Context, walletID string, amount int64, kind Kind, externalRef string) (Entry, error)

	// FindByReference returns the entry previously produced for the
	// external reference, or ErrReferenceNotFound.
	FindByReference(ctx context.Context, externalRef string) (Entry, error)

	// Entries lists the newest entries for a wallet, most recent first.
	// A limit <= 0 returns all entries.
	Entries(ctx context.Context, walletID string, limit int) ([]Entry, error)

	// Balance returns the cached wallet balance.
	Balance(ctx context.Context, walletID string) (int64, error)

	// Recompute re-derives the balance by folding every entry for the
	// wallet. Used for drift detection, never for serving reads.
	Recompute(ctx context.Context, walletID string) (int64, error)
}
