package db

import (
	"context"
	"errors"

	"github.com/tracker000/gridtrack/internal/config"
	"github.com/tracker000/gridtrack/internal/domain/account"
	"github.com/tracker000/gridtrack/internal/security"
)

// accountSeeder is the slice of the account store the seeder needs; it works
// the same against the postgres and the file driver.
type accountSeeder interface {
	GetByEmail(ctx context.Context, email string) (account.Account, error)
	Create(ctx context.Context, email, username, passwordHash, role string) (account.Account, error)
}

// EnsureAdminAccount creates the bootstrap admin when ADMIN_EMAIL and
// ADMIN_PASSWORD are configured and no such account exists yet.
func EnsureAdminAccount(ctx context.Context, store accountSeeder, cfg config.Config) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	_, err := store.GetByEmail(ctx, cfg.AdminEmail)

	if err == nil {
		return nil
	}

	if !errors.Is(err, account.ErrNotFound) {
		return err
	}

	hash, err := security.HashPassword(cfg.AdminPassword)

	if err != nil {
		return err
	}

	_, err = store.Create(ctx, cfg.AdminEmail, cfg.AdminName, hash, account.RoleAdmin)

	return err
}
