package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bchsol/CryptoDragon/internal/domain"
)

// ActionStore implements domain.ActionStore using PostgreSQL. Every relay
// submission is journaled, including the failed ones.
type ActionStore struct {
	pool *pgxpool.Pool
}

// NewActionStore creates an ActionStore backed by the given connection pool.
func NewActionStore(pool *pgxpool.Pool) *ActionStore {
	return &ActionStore{pool: pool}
}

const actionSelectCols = `id, wallet, action, token_id, listing_id,
	tx_hash, task_id, status, error, created_at`

// Insert journals one relay submission.
func (s *ActionStore) Insert(ctx context.Context, rec domain.ActionRecord) error {
	const query = `
		INSERT INTO actions (
			id, wallet, action, token_id, listing_id,
			tx_hash, task_id, status, error, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := s.pool.Exec(ctx, query,
		rec.ID, rec.Wallet, string(rec.Action), rec.TokenID, rec.ListingID,
		rec.TxHash, rec.TaskID, string(rec.Status), rec.Error, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert action %s: %w", rec.ID, err)
	}
	return nil
}

// ListRecent returns the wallet's most recent actions, newest first.
func (s *ActionStore) ListRecent(ctx context.Context, wallet string, limit int) ([]domain.ActionRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT ` + actionSelectCols + `
		FROM actions WHERE wallet = $1
		ORDER BY created_at DESC LIMIT $2`

	rows, err := s.pool.Query(ctx, query, wallet, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list actions: %w", err)
	}
	defer rows.Close()

	var recs []domain.ActionRecord
	for rows.Next() {
		var r domain.ActionRecord
		var action, status string
		if err := rows.Scan(
			&r.ID, &r.Wallet, &action, &r.TokenID, &r.ListingID,
			&r.TxHash, &r.TaskID, &status, &r.Error, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan action: %w", err)
		}
		r.Action = domain.ActionType(action)
		r.Status = domain.ActionStatus(status)
		recs = append(recs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list actions: %w", err)
	}
	return recs, nil
}

// Compile-time interface check.
var _ domain.ActionStore = (*ActionStore)(nil)
