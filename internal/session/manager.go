package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/tracker000/gridtrack/internal/auth"
	"github.com/tracker000/gridtrack/internal/domain/account"
	"github.com/tracker000/gridtrack/internal/security"
)

var (
	// ErrInvalidCredentials is the single error Login returns for a bad
	// password AND for an unknown email, so callers cannot probe which
	// addresses have accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnauthenticated is returned by Resolve for anything that is not a
	// live token: unknown, malformed, revoked or expired.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrTokenNotFound is the sentinel token stores return on a miss.
	ErrTokenNotFound = errors.New("session token not found")
)

// AccountReader is the slice of the account store Login/Resolve need.
type AccountReader interface {
	GetByEmail(ctx context.Context, email string) (account.Account, error)
	GetByID(ctx context.Context, id string) (account.Account, error)
}

// TokenRow is the stored shape of one issued session token. Only the HMAC
// fingerprint of the token is kept; the raw value never touches the store.
type TokenRow struct {
	ID        string     `json:"id"`
	AccountID string     `json:"accountId"`
	TokenHash string     `json:"tokenHash"`
	IssuedAt  time.Time  `json:"issuedAt"`
	ExpiresAt time.Time  `json:"expiresAt"`
	RevokedAt *time.Time `json:"revokedAt,omitempty"`
}

// TokenStore persists token rows. Implementations must make RevokeByHash a
// no-op (nil error) when the hash is unknown.
type TokenStore interface {
	Create(ctx context.Context, row TokenRow) error
	GetByHash(ctx context.Context, hash string) (TokenRow, error)
	RevokeByHash(ctx context.Context, hash string) error
	RevokeAllForAccount(ctx context.Context, accountID string) error
}

// Manager issues, resolves and revokes bearer session tokens.
type Manager struct {
	accounts AccountReader
	tokens   TokenStore
	crypto   *auth.Manager
	ttl      time.Duration
}

func NewManager(accounts AccountReader, tokens TokenStore, crypto *auth.Manager, ttl time.Duration) *Manager {
	return &Manager{
		accounts: accounts,
		tokens:   tokens,
		crypto:   crypto,
		ttl:      ttl,
	}
}

// Login verifies the credentials and, on success, mints a fresh token bound
// to the account. The token binding is persisted before the raw token is
// returned. Multiple live tokens per account are allowed.
func (m *Manager) Login(ctx context.Context, email, password string) (string, account.Account, error) {
	acct, err := m.accounts.GetByEmail(ctx, email)

	if err != nil {
		// burn a hash comparison so this path costs the same as a wrong
		// password against a real account
		security.DummyCheck(password)
		return "", account.Account{}, ErrInvalidCredentials
	}

	if err := security.CheckPassword(acct.PasswordHash, password); err != nil {
		return "", account.Account{}, ErrInvalidCredentials
	}

	raw, err := m.crypto.NewToken()

	if err != nil {
		return "", account.Account{}, err
	}

	now := time.Now().UTC()

	row := TokenRow{
		ID:        uuid.NewString(),
		AccountID: acct.ID,
		TokenHash: m.crypto.Hash(raw),
		IssuedAt:  now,
		ExpiresAt: now.Add(m.ttl),
	}

	if err := m.tokens.Create(ctx, row); err != nil {
		return "", account.Account{}, err
	}

	return raw, acct, nil
}

// Resolve maps a presented bearer token back to its account. It is a pure
// lookup with no side effects; revoked and expired tokens resolve to nothing.
func (m *Manager) Resolve(ctx context.Context, raw string) (account.Account, error) {
	if raw == "" {
		return account.Account{}, ErrUnauthenticated
	}

	row, err := m.tokens.GetByHash(ctx, m.crypto.Hash(raw))

	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return account.Account{}, ErrUnauthenticated
		}
		return account.Account{}, err
	}

	if row.RevokedAt != nil {
		return account.Account{}, ErrUnauthenticated
	}

	if time.Now().UTC().After(row.ExpiresAt) {
		return account.Account{}, ErrUnauthenticated
	}

	acct, err := m.accounts.GetByID(ctx, row.AccountID)

	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return account.Account{}, ErrUnauthenticated
		}
		return account.Account{}, err
	}

	return acct, nil
}

// Revoke retires a token. Revoking an unknown or already-revoked token is a
// no-op, not an error, so logout stays idempotent.
func (m *Manager) Revoke(ctx context.Context, raw string) error {
	if raw == "" {
		return nil
	}

	return m.tokens.RevokeByHash(ctx, m.crypto.Hash(raw))
}

// RevokeAll retires every live token of one account. Used after a password
// reset so stolen sessions die with the old password.
func (m *Manager) RevokeAll(ctx context.Context, accountID string) error {
	return m.tokens.RevokeAllForAccount(ctx, accountID)
}
