package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// PostgresStore persists ledger entries in PostgreSQL. The wallet row carries
// the cached balance and version counter; entry insert and balance update
// share one transaction with the wallet row locked.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres-backed ledger store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureWallet is satisfied by the wallet repository inserting the wallet
// row, which doubles as the ledger balance record.
func (s *PostgresStore) EnsureWallet(ctx context.Context, walletID string) error {
	var exists bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM wallets WHERE id = $1)`, walletID).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return ErrWalletNotFound
	}
	return nil
}

// Append posts an entry and moves the cached balance atomically.
func (s *PostgresStore) Append(ctx context.Context, walletID string, amount int64, kind Kind, externalRef string) (Entry, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Entry{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	var balance, version int64
	err = tx.QueryRow(ctx, `SELECT balance, version FROM wallets WHERE id = $1 FOR UPDATE`, walletID).Scan(&balance, &version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, ErrWalletNotFound
		}
		return Entry{}, err
	}

	resulting := balance + amount
	if amount < 0 && resulting < 0 {
		return Entry{}, ErrInsufficientFunds
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

	_, err = tx.Exec(ctx, `INSERT INTO ledger_entries (id, wallet_id, amount, kind, external_ref, resulting_balance, created_at)
        VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7)`,
		entry.ID, entry.WalletID, entry.Amount, string(entry.Kind), entry.ExternalRef, entry.ResultingBalance, entry.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return Entry{}, ErrDuplicateReference
		}
		return Entry{}, err
	}

	cmd, err := tx.Exec(ctx, `UPDATE wallets SET balance = $1, version = version + 1, updated_at = now()
        WHERE id = $2 AND version = $3`, resulting, walletID, version)
	if err != nil {
		return Entry{}, err
	}
	if cmd.RowsAffected() == 0 {
		// Cannot happen while the row lock is held; treat as a programming fault.
		return Entry{}, fmt.Errorf("wallet %s version moved under lock", walletID)
	}

	if err := tx.Commit(ctx); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// FindByReference returns the entry recorded for the external reference.
func (s *PostgresStore) FindByReference(ctx context.Context, externalRef string) (Entry, error) {
	if externalRef == "" {
		return Entry{}, ErrReferenceNotFound
	}
	row := s.db.QueryRow(ctx, `SELECT id, wallet_id, amount, kind, COALESCE(external_ref, ''), resulting_balance, created_at
        FROM ledger_entries WHERE external_ref = $1`, externalRef)
	return scanEntry(row)
}

// Entries lists entries for a wallet, newest first.
func (s *PostgresStore) Entries(ctx context.Context, walletID string, limit int) ([]Entry, error) {
	query := `SELECT id, wallet_id, amount, kind, COALESCE(external_ref, ''), resulting_balance, created_at
        FROM ledger_entries WHERE wallet_id = $1 ORDER BY created_at DESC`
	args := []any{walletID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Balance returns the cached balance from the wallet row.
func (s *PostgresStore) Balance(ctx context.Context, walletID string) (int64, error) {
	var balance int64
	err := s.db.QueryRow(ctx, `SELECT balance FROM wallets WHERE id = $1`, walletID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrWalletNotFound
		}
		return 0, err
	}
	return balance, nil
}

// Recompute folds every entry for the wallet.
func (s *PostgresStore) Recompute(ctx context.Context, walletID string) (int64, error) {
	if err := s.EnsureWallet(ctx, walletID); err != nil {
		return 0, err
	}
	var sum sql.NullInt64
	err := s.db.QueryRow(ctx, `SELECT SUM(amount) FROM ledger_entries WHERE wallet_id = $1`, walletID).Scan(&sum)
	if err != nil {
		return 0, err
	}
	return sum.Int64, nil
}

func scanEntry(row pgx.Row) (Entry, error) {
	var (
		entry     Entry
		kind      string
		createdAt time.Time
	)
	if err := row.Scan(&entry.ID, &entry.WalletID, &entry.Amount, &kind, &entry.ExternalRef, &entry.ResultingBalance, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, ErrReferenceNotFound
		}
		return Entry{}, err
	}
	entry.Kind = Kind(kind)
	entry.CreatedAt = createdAt.UTC()
	return entry, nil
}
