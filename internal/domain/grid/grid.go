package grid

import (
	"errors"
	"time"
)

// MaxValueLen caps the stored content of a single cell so the grid cannot
// grow without bound through oversized writes.
const MaxValueLen = 255

var ErrManagerNotFound = errors.New("manager not found")

// Manager is a pure namespace for cells; it has no behavior of its own.
type Manager struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Cell is one value in a manager's grid, keyed by (managerId, row, col).
// Writes are upserts: at most one cell ever exists per key.
type Cell struct {
	ManagerID string    `json:"managerId"`
	Row       int       `json:"row"`
	Col       int       `json:"col"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updatedAt"`
}
