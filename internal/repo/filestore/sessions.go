package filestore

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/tracker000/gridtrack/internal/session"
)

type Sessions struct {
	mu     sync.RWMutex
	path   string
	byHash map[string]session.TokenRow
}

func NewSessions(dir string) (*Sessions, error) {
	s := &Sessions{
		path:   filepath.Join(dir, "sessions.json"),
		byHash: make(map[string]session.TokenRow),
	}

	if err := loadSnapshot(s.path, &s.byHash); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Sessions) persist() error {
	return saveSnapshot(s.path, s.byHash)
}

func (s *Sessions) Create(_ context.Context, row session.TokenRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byHash[row.TokenHash] = row

	if err := s.persist(); err != nil {
		delete(s.byHash, row.TokenHash)
		return err
	}

	return nil
}

func (s *Sessions) GetByHash(_ context.Context, hash string) (session.TokenRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.byHash[hash]

	if !ok {
		return session.TokenRow{}, session.ErrTokenNotFound
	}

	return row, nil
}

// RevokeByHash is a no-op for unknown or already-revoked hashes.
func (s *Sessions) RevokeByHash(_ context.Context, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.byHash[hash]

	if !ok || prev.RevokedAt != nil {
		return nil
	}

	now := time.Now().UTC()
	row := prev
	row.RevokedAt = &now
	s.byHash[hash] = row

	if err := s.persist(); err != nil {
		s.byHash[hash] = prev
		return err
	}

	return nil
}

func (s *Sessions) RevokeAllForAccount(_ context.Context, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	reverted := make(map[string]session.TokenRow)

	for hash, row := range s.byHash {
		if row.AccountID == accountID && row.RevokedAt == nil {
			reverted[hash] = row
			row.RevokedAt = &now
			s.byHash[hash] = row
		}
	}

	if len(reverted) == 0 {
		return nil
	}

	if err := s.persist(); err != nil {
		for hash, row := range reverted {
			s.byHash[hash] = row
		}
		return err
	}

	return nil
}
