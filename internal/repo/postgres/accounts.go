package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tracker000/gridtrack/internal/domain/account"
)

const accountColumns = `id, email, username, password_hash, role, phone, profile_pic, created_at, updated_at`

type AccountsRepo struct {
	pool *pgxpool.Pool
}

func NewAccountsRepo(pool *pgxpool.Pool) *AccountsRepo {
	return &AccountsRepo{pool: pool}
}

func scanAccount(row pgx.Row) (account.Account, error) {
	var a account.Account

	err := row.Scan(
		&a.ID,
		&a.Email,
		&a.Username,
		&a.PasswordHash,
		&a.Role,
		&a.Phone,
		&a.ProfilePic,
		&a.CreatedAt,
		&a.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return account.Account{}, account.ErrNotFound
		}

		return account.Account{}, err
	}

	return a, nil
}

// GetByEmail does an exact, case-sensitive match on the email column.
func (r *AccountsRepo) GetByEmail(ctx context.Context, email string) (account.Account, error) {
	return scanAccount(r.pool.QueryRow(
		ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = $1`,
		email,
	))
}

func (r *AccountsRepo) GetByID(ctx context.Context, id string) (account.Account, error) {
	return scanAccount(r.pool.QueryRow(
		ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`,
		id,
	))
}

// Create inserts a fresh account. A duplicate email surfaces as ErrEmailTaken.
func (r *AccountsRepo) Create(ctx context.Context, email, username, passwordHash, role string) (account.Account, error) {
	now := time.Now().UTC()

	a := account.Account{
		ID:           uuid.NewString(),
		Email:        email,
		Username:     username,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO accounts (id, email, username, password_hash, role, phone, profile_pic, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, '', '', $6, $7)`,
		a.ID, a.Email, a.Username, a.PasswordHash, a.Role, a.CreatedAt, a.UpdatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError

		// 23505 = unique_violation (the email index)
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return account.Account{}, account.ErrEmailTaken
		}

		return account.Account{}, err
	}

	return a, nil
}

// UpdateProfile applies a partial edit: nil fields keep their stored value
// (COALESCE does the partial-update work server side).
func (r *AccountsRepo) UpdateProfile(ctx context.Context, id string, upd account.ProfileUpdate) (account.Account, error) {
	return scanAccount(r.pool.QueryRow(ctx,
		`UPDATE accounts
		 SET username    = COALESCE($2, username),
		     phone       = COALESCE($3, phone),
		     profile_pic = COALESCE($4, profile_pic),
		     updated_at  = NOW()
		 WHERE id = $1
		 RETURNING `+accountColumns,
		id, upd.Username, upd.Phone, upd.ProfilePic,
	))
}

func (r *AccountsRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE accounts SET password_hash = $2, updated_at = NOW() WHERE id = $1`,
		id, passwordHash,
	)

	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return account.ErrNotFound
	}

	return nil
}
