package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tracker000/gridtrack/internal/session"
)

type SessionsRepo struct {
	pool *pgxpool.Pool
}

func NewSessionsRepo(pool *pgxpool.Pool) *SessionsRepo {
	return &SessionsRepo{pool: pool}
}

func (r *SessionsRepo) Create(ctx context.Context, row session.TokenRow) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO sessions (id, account_id, token_hash, issued_at, expires_at, revoked_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		row.ID, row.AccountID, row.TokenHash, row.IssuedAt, row.ExpiresAt, row.RevokedAt,
	)

	return err
}

func (r *SessionsRepo) GetByHash(ctx context.Context, hash string) (session.TokenRow, error) {
	var row session.TokenRow

	err := r.pool.QueryRow(ctx,
		`SELECT id, account_id, token_hash, issued_at, expires_at, revoked_at
		 FROM sessions
		 WHERE token_hash = $1`,
		hash,
	).Scan(
		&row.ID,
		&row.AccountID,
		&row.TokenHash,
		&row.IssuedAt,
		&row.ExpiresAt,
		&row.RevokedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return session.TokenRow{}, session.ErrTokenNotFound
		}

		return session.TokenRow{}, err
	}

	return row, nil
}

// RevokeByHash is deliberately quiet about unknown hashes: zero rows updated
// is still a success, which keeps logout idempotent.
func (r *SessionsRepo) RevokeByHash(ctx context.Context, hash string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE sessions
		 SET revoked_at = NOW()
		 WHERE token_hash = $1 AND revoked_at IS NULL`,
		hash,
	)

	return err
}

func (r *SessionsRepo) RevokeAllForAccount(ctx context.Context, accountID string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE sessions
		 SET revoked_at = NOW()
		 WHERE account_id = $1 AND revoked_at IS NULL`,
		accountID,
	)

	return err
}
