package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tracker000/gridtrack/internal/domain/grid"
)

type CellsRepo struct {
	pool *pgxpool.Pool
}

func NewCellsRepo(pool *pgxpool.Pool) *CellsRepo {
	return &CellsRepo{pool: pool}
}

// Upsert writes one cell with create-if-absent-else-overwrite semantics. The
// single ON CONFLICT statement means two concurrent writers to the same key
// serialize inside the database and the later one wins.
func (r *CellsRepo) Upsert(ctx context.Context, managerID string, row, col int, value string) (grid.Cell, error) {
	var c grid.Cell

	err := r.pool.QueryRow(ctx,
		`INSERT INTO cells (manager_id, row_idx, col_idx, value, updated_at)
		 VALUES ($1, $2, $3, $4, NOW())
		 ON CONFLICT (manager_id, row_idx, col_idx)
		 DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
		 RETURNING manager_id, row_idx, col_idx, value, updated_at`,
		managerID, row, col, value,
	).Scan(
		&c.ManagerID,
		&c.Row,
		&c.Col,
		&c.Value,
		&c.UpdatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError

		// 23503 = foreign_key_violation: the manager namespace does not exist
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return grid.Cell{}, grid.ErrManagerNotFound
		}

		return grid.Cell{}, err
	}

	return c, nil
}

// List returns all cells, optionally narrowed to one manager's grid.
func (r *CellsRepo) List(ctx context.Context, managerID string) ([]grid.Cell, error) {
	query := `SELECT manager_id, row_idx, col_idx, value, updated_at
	          FROM cells`
	args := []any{}

	if managerID != "" {
		query += ` WHERE manager_id = $1`
		args = append(args, managerID)
	}

	query += ` ORDER BY manager_id, row_idx, col_idx`

	rows, err := r.pool.Query(ctx, query, args...)

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	cells := []grid.Cell{}

	for rows.Next() {
		var c grid.Cell

		if err := rows.Scan(&c.ManagerID, &c.Row, &c.Col, &c.Value, &c.UpdatedAt); err != nil {
			return nil, err
		}

		cells = append(cells, c)
	}

	return cells, rows.Err()
}
