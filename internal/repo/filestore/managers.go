package filestore

import (
	"context"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/tracker000/gridtrack/internal/domain/grid"
)

type Managers struct {
	mu   sync.RWMutex
	path string
	byID map[string]grid.Manager
}

func NewManagers(dir string) (*Managers, error) {
	s := &Managers{
		path: filepath.Join(dir, "managers.json"),
		byID: make(map[string]grid.Manager),
	}

	if err := loadSnapshot(s.path, &s.byID); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Managers) persist() error {
	return saveSnapshot(s.path, s.byID)
}

func (s *Managers) Create(_ context.Context, name string) (grid.Manager, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := grid.Manager{
		ID:   uuid.NewString(),
		Name: name,
	}

	s.byID[m.ID] = m

	if err := s.persist(); err != nil {
		delete(s.byID, m.ID)
		return grid.Manager{}, err
	}

	return m, nil
}

func (s *Managers) GetByID(_ context.Context, id string) (grid.Manager, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.byID[id]

	if !ok {
		return grid.Manager{}, grid.ErrManagerNotFound
	}

	return m, nil
}

func (s *Managers) List(_ context.Context) ([]grid.Manager, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	managers := make([]grid.Manager, 0, len(s.byID))

	for _, m := range s.byID {
		managers = append(managers, m)
	}

	sort.Slice(managers, func(i, j int) bool { return managers[i].Name < managers[j].Name })

	return managers, nil
}

// exists is the cheap membership probe the cells store uses on every upsert.
func (s *Managers) exists(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.byID[id]

	return ok
}
