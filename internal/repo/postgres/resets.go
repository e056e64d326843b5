package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tracker000/gridtrack/internal/auth"
)

type ResetsRepo struct {
	pool *pgxpool.Pool
}

func NewResetsRepo(pool *pgxpool.Pool) *ResetsRepo {
	return &ResetsRepo{pool: pool}
}

func (r *ResetsRepo) Create(ctx context.Context, row auth.ResetRow) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO password_resets (id, account_id, token_hash, expires_at, redeemed_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		row.ID, row.AccountID, row.TokenHash, row.ExpiresAt, row.RedeemedAt, row.CreatedAt,
	)

	return err
}

func (r *ResetsRepo) Get(ctx context.Context, jti string) (auth.ResetRow, error) {
	var row auth.ResetRow

	err := r.pool.QueryRow(ctx,
		`SELECT id, account_id, token_hash, expires_at, redeemed_at, created_at
		 FROM password_resets
		 WHERE id = $1`,
		jti,
	).Scan(
		&row.ID,
		&row.AccountID,
		&row.TokenHash,
		&row.ExpiresAt,
		&row.RedeemedAt,
		&row.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return auth.ResetRow{}, auth.ErrResetNotFound
		}

		return auth.ResetRow{}, err
	}

	return row, nil
}

// MarkRedeemed flips the row exactly once; a second redeem finds zero live
// rows and reports the token as gone.
func (r *ResetsRepo) MarkRedeemed(ctx context.Context, jti string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE password_resets
		 SET redeemed_at = NOW()
		 WHERE id = $1 AND redeemed_at IS NULL`,
		jti,
	)

	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return auth.ErrResetNotFound
	}

	return nil
}
