package filestore

import (
	"context"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/tracker000/gridtrack/internal/domain/grid"
)

type cellKey struct {
	managerID string
	row       int
	col       int
}

type Cells struct {
	mu       sync.RWMutex
	path     string
	byKey    map[cellKey]grid.Cell
	managers *Managers
}

func NewCells(dir string, managers *Managers) (*Cells, error) {
	s := &Cells{
		path:     filepath.Join(dir, "cells.json"),
		byKey:    make(map[cellKey]grid.Cell),
		managers: managers,
	}

	// the snapshot is a flat slice; the keyed map is rebuilt on load
	var snapshot []grid.Cell

	if err := loadSnapshot(s.path, &snapshot); err != nil {
		return nil, err
	}

	for _, c := range snapshot {
		s.byKey[cellKey{c.ManagerID, c.Row, c.Col}] = c
	}

	return s, nil
}

func (s *Cells) snapshot() []grid.Cell {
	cells := make([]grid.Cell, 0, len(s.byKey))

	for _, c := range s.byKey {
		cells = append(cells, c)
	}

	sortCells(cells)

	return cells
}

func (s *Cells) persist() error {
	return saveSnapshot(s.path, s.snapshot())
}

// Upsert writes one cell, create-if-absent-else-overwrite. The write lock
// serializes concurrent writers to the same key: the later one wins and the
// snapshot on disk never holds a merge of the two.
func (s *Cells) Upsert(_ context.Context, managerID string, row, col int, value string) (grid.Cell, error) {
	if !s.managers.exists(managerID) {
		return grid.Cell{}, grid.ErrManagerNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := cellKey{managerID, row, col}
	prev, existed := s.byKey[key]

	c := grid.Cell{
		ManagerID: managerID,
		Row:       row,
		Col:       col,
		Value:     value,
		UpdatedAt: time.Now().UTC(),
	}

	s.byKey[key] = c

	if err := s.persist(); err != nil {
		if existed {
			s.byKey[key] = prev
		} else {
			delete(s.byKey, key)
		}
		return grid.Cell{}, err
	}

	return c, nil
}

// List returns all cells, optionally narrowed to one manager's grid.
func (s *Cells) List(_ context.Context, managerID string) ([]grid.Cell, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cells := []grid.Cell{}

	for _, c := range s.byKey {
		if managerID == "" || c.ManagerID == managerID {
			cells = append(cells, c)
		}
	}

	sortCells(cells)

	return cells, nil
}

func sortCells(cells []grid.Cell) {
	sort.Slice(cells, func(i, j int) bool {
		a, b := cells[i], cells[j]

		if a.ManagerID != b.ManagerID {
			return a.ManagerID < b.ManagerID
		}
		if a.Row != b.Row {
			return a.Row < b.Row
		}
		return a.Col < b.Col
	})
}
