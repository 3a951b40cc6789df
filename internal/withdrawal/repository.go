package withdrawal

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates no withdrawal matches the lookup.
var ErrNotFound = errors.New("withdrawal not found")

// Repository persists withdrawal records.
type Repository interface {
	Create(ctx context.Context, w Withdrawal) error
	Get(ctx context.Context, id string) (Withdrawal, error)
	GetByReference(ctx context.Context, reference string) (Withdrawal, error)
	ListByWallet(ctx context.Context, walletID string, limit int) ([]Withdrawal, error)
	UpdateStatus(ctx context.Context, id string, status Status, failureReason string) error
	UpdateGatewayDetails(ctx context.Context, id, recipientCode, transferCode string) error
	ListStaleProcessing(ctx context.Context, olderThan time.Time) ([]Withdrawal, error)
	ListFailed(ctx context.Context) ([]Withdrawal, error)
}

// PostgresRepository stores withdrawals in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const withdrawalColumns = `id, wallet_id, user_id, amount, bank_code, account_number,
    account_name, recipient_code, reference, transfer_code, status, failure_reason,
    created_at, updated_at`

// Create inserts a withdrawal record.
func (r *PostgresRepository) Create(ctx context.Context, w Withdrawal) error {
	id, err := uuid.Parse(w.ID)
	if err != nil {
		return err
	}
	walletID, err := uuid.Parse(w.WalletID)
	if err != nil {
		return err
	}
	userID, err := uuid.Parse(w.UserID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO withdrawals
        (id, wallet_id, user_id, amount, bank_code, account_number, account_name,
         recipient_code, reference, transfer_code, status, failure_reason, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)`,
		id, walletID, userID, w.Amount, w.BankCode, w.AccountNumber, w.AccountName,
		w.RecipientCode, w.Reference, w.TransferCode, string(w.Status), w.FailureReason,
		w.CreatedAt.UTC())
	return err
}

// Get fetches a withdrawal by identifier.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Withdrawal, error) {
	wid, err := uuid.Parse(id)
	if err != nil {
		return Withdrawal{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT `+withdrawalColumns+` FROM withdrawals WHERE id = $1`, wid)
	return scanWithdrawal(row)
}

// GetByReference fetches a withdrawal by its payout reference.
func (r *PostgresRepository) GetByReference(ctx context.Context, reference string) (Withdrawal, error) {
	row := r.db.QueryRow(ctx, `SELECT `+withdrawalColumns+` FROM withdrawals WHERE reference = $1`, reference)
	return scanWithdrawal(row)
}

// ListByWallet returns a wallet's withdrawals, newest first.
func (r *PostgresRepository) ListByWallet(ctx context.Context, walletID string, limit int) ([]Withdrawal, error) {
	wid, err := uuid.Parse(walletID)
	if err != nil {
		return nil, ErrNotFound
	}
	rows, err := r.db.Query(ctx, `SELECT `+withdrawalColumns+` FROM withdrawals
        WHERE wallet_id = $1 ORDER BY created_at DESC LIMIT $2`, wid, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectWithdrawals(rows)
}

// UpdateStatus transitions the withdrawal and records a failure reason when
// one applies.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status Status, failureReason string) error {
	wid, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	tag, err := r.db.Exec(ctx, `UPDATE withdrawals
        SET status = $1, failure_reason = $2, updated_at = now() WHERE id = $3`,
		string(status), failureReason, wid)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateGatewayDetails records the recipient and transfer codes the gateway
// assigned to this payout.
func (r *PostgresRepository) UpdateGatewayDetails(ctx context.Context, id, recipientCode, transferCode string) error {
	wid, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	tag, err := r.db.Exec(ctx, `UPDATE withdrawals
        SET recipient_code = $1, transfer_code = $2, updated_at = now() WHERE id = $3`,
		recipientCode, transferCode, wid)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListStaleProcessing returns withdrawals stuck in processing since before
// the cutoff. The reaper fails these so their funds can be returned.
func (r *PostgresRepository) ListStaleProcessing(ctx context.Context, olderThan time.Time) ([]Withdrawal, error) {
	rows, err := r.db.Query(ctx, `SELECT `+withdrawalColumns+` FROM withdrawals
        WHERE status = $1 AND updated_at < $2 ORDER BY updated_at`,
		string(StatusProcessing), olderThan.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectWithdrawals(rows)
}

// ListFailed returns withdrawals stuck in failed. The reaper re-checks each
// one for a missing compensating entry.
func (r *PostgresRepository) ListFailed(ctx context.Context) ([]Withdrawal, error) {
	rows, err := r.db.Query(ctx, `SELECT `+withdrawalColumns+` FROM withdrawals
        WHERE status = $1 ORDER BY updated_at`, string(StatusFailed))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectWithdrawals(rows)
}

func scanWithdrawal(row pgx.Row) (Withdrawal, error) {
	var (
		id        uuid.UUID
		walletID  uuid.UUID
		userID    uuid.UUID
		status    string
		createdAt time.Time
		updatedAt time.Time
		w         Withdrawal
	)
	err := row.Scan(&id, &walletID, &userID, &w.Amount, &w.BankCode, &w.AccountNumber,
		&w.AccountName, &w.RecipientCode, &w.Reference, &w.TransferCode, &status,
		&w.FailureReason, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Withdrawal{}, ErrNotFound
		}
		return Withdrawal{}, err
	}
	w.ID = id.String()
	w.WalletID = walletID.String()
	w.UserID = userID.String()
	w.Status = Status(status)
	w.CreatedAt = createdAt.UTC()
	w.UpdatedAt = updatedAt.UTC()
	return w, nil
}

func collectWithdrawals(rows pgx.Rows) ([]Withdrawal, error) {
	var out []Withdrawal
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}
