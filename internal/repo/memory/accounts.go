// Package memory holds map-backed store implementations used by tests so
// the core logic can run without any durable I/O.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tracker000/gridtrack/internal/domain/account"
)

type AccountsRepo struct {
	mu   sync.RWMutex
	byID map[string]account.Account
}

func NewAccountsRepo() *AccountsRepo {
	return &AccountsRepo{byID: make(map[string]account.Account)}
}

func (r *AccountsRepo) GetByEmail(_ context.Context, email string) (account.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.byID {
		if a.Email == email {
			return a, nil
		}
	}

	return account.Account{}, account.ErrNotFound
}

func (r *AccountsRepo) GetByID(_ context.Context, id string) (account.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]

	if !ok {
		return account.Account{}, account.ErrNotFound
	}

	return a, nil
}

func (r *AccountsRepo) Create(_ context.Context, email, username, passwordHash, role string) (account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.byID {
		if a.Email == email {
			return account.Account{}, account.ErrEmailTaken
		}
	}

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

	r.byID[a.ID] = a

	return a, nil
}

func (r *AccountsRepo) UpdateProfile(_ context.Context, id string, upd account.ProfileUpdate) (account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]

	if !ok {
		return account.Account{}, account.ErrNotFound
	}

	if upd.Username != nil {
		a.Username = *upd.Username
	}
	if upd.Phone != nil {
		a.Phone = *upd.Phone
	}
	if upd.ProfilePic != nil {
		a.ProfilePic = *upd.ProfilePic
	}

	a.UpdatedAt = time.Now().UTC()
	r.byID[id] = a

	return a, nil
}

func (r *AccountsRepo) UpdatePassword(_ context.Context, id, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]

	if !ok {
		return account.ErrNotFound
	}

	a.PasswordHash = passwordHash
	a.UpdatedAt = time.Now().UTC()
	r.byID[id] = a

	return nil
}
