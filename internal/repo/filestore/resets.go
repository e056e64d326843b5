package filestore

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/tracker000/gridtrack/internal/auth"
)

type Resets struct {
	mu   sync.RWMutex
	path string
	byID map[string]auth.ResetRow
}

func NewResets(dir string) (*Resets, error) {
	s := &Resets{
		path: filepath.Join(dir, "password_resets.json"),
		byID: make(map[string]auth.ResetRow),
	}

	if err := loadSnapshot(s.path, &s.byID); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Resets) persist() error {
	return saveSnapshot(s.path, s.byID)
}

func (s *Resets) Create(_ context.Context, row auth.ResetRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byID[row.ID] = row

	if err := s.persist(); err != nil {
		delete(s.byID, row.ID)
		return err
	}

	return nil
}

func (s *Resets) Get(_ context.Context, jti string) (auth.ResetRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.byID[jti]

	if !ok {
		return auth.ResetRow{}, auth.ErrResetNotFound
	}

	return row, nil
}

func (s *Resets) MarkRedeemed(_ context.Context, jti string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.byID[jti]

	if !ok || prev.RedeemedAt != nil {
		return auth.ErrResetNotFound
	}

	now := time.Now().UTC()
	row := prev
	row.RedeemedAt = &now
	s.byID[jti] = row

	if err := s.persist(); err != nil {
		s.byID[jti] = prev
		return err
	}

	return nil
}
