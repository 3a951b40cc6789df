package bank

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrUnknownCode indicates a bank code outside the supported directory.
var ErrUnknownCode = errors.New("unknown bank code")

// Bank is one supported payout destination.
type Bank struct {
	Code string `json:"code"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Repository persists the bank directory.
type Repository interface {
	Upsert(ctx context.Context, banks []Bank) error
	ListActive(ctx context.Context) ([]Bank, error)
	Exists(ctx context.Context, code string) (bool, error)
}

// PostgresRepository stores the directory in PostgreSQL. A refresh marks
// codes missing from the gateway's list inactive rather than deleting them.
type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Upsert(ctx context.Context, banks []Bank) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `UPDATE banks SET active = FALSE`); err != nil {
		return err
	}
	now := time.Now().UTC()
	for _, b := range banks {
		_, err := tx.Exec(ctx, `INSERT INTO banks (code, name, slug, active, updated_at)
            VALUES ($1, $2, $3, TRUE, $4)
            ON CONFLICT (code) DO UPDATE SET name = $2, slug = $3, active = TRUE, updated_at = $4`,
			b.Code, b.Name, b.Slug, now)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *PostgresRepository) ListActive(ctx context.Context) ([]Bank, error) {
	rows, err := r.db.Query(ctx, `SELECT code, name, slug FROM banks WHERE active ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Bank
	for rows.Next() {
		var b Bank
		if err := rows.Scan(&b.Code, &b.Name, &b.Slug); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Exists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM banks WHERE code = $1 AND active)`, code).Scan(&exists)
	return exists, err
}
