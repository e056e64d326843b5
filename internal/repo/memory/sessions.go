package memory

import (
	"context"
	"sync"
	"time"

	"github.com/tracker000/gridtrack/internal/session"
)

type SessionsRepo struct {
	mu     sync.RWMutex
	byHash map[string]session.TokenRow
}

func NewSessionsRepo() *SessionsRepo {
	return &SessionsRepo{byHash: make(map[string]session.TokenRow)}
}

func (r *SessionsRepo) Create(_ context.Context, row session.TokenRow) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byHash[row.TokenHash] = row

	return nil
}

func (r *SessionsRepo) GetByHash(_ context.Context, hash string) (session.TokenRow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	row, ok := r.byHash[hash]

	if !ok {
		return session.TokenRow{}, session.ErrTokenNotFound
	}

	return row, nil
}

func (r *SessionsRepo) RevokeByHash(_ context.Context, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	row, ok := r.byHash[hash]

	if !ok || row.RevokedAt != nil {
		return nil
	}

	now := time.Now().UTC()
	row.RevokedAt = &now
	r.byHash[hash] = row

	return nil
}

func (r *SessionsRepo) RevokeAllForAccount(_ context.Context, accountID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()

	for hash, row := range r.byHash {
		if row.AccountID == accountID && row.RevokedAt == nil {
			row.RevokedAt = &now
			r.byHash[hash] = row
		}
	}

	return nil
}
