package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tracker000/gridtrack/internal/domain/grid"
)

type ManagersRepo struct {
	pool *pgxpool.Pool
}

func NewManagersRepo(pool *pgxpool.Pool) *ManagersRepo {
	return &ManagersRepo{pool: pool}
}

func (r *ManagersRepo) Create(ctx context.Context, name string) (grid.Manager, error) {
	m := grid.Manager{
		ID:   uuid.NewString(),
		Name: name,
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO managers (id, name) VALUES ($1, $2)`,
		m.ID, m.Name,
	)

	if err != nil {
		return grid.Manager{}, err
	}

	return m, nil
}

func (r *ManagersRepo) GetByID(ctx context.Context, id string) (grid.Manager, error) {
	var m grid.Manager

	err := r.pool.QueryRow(ctx,
		`SELECT id, name FROM managers WHERE id = $1`,
		id,
	).Scan(&m.ID, &m.Name)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return grid.Manager{}, grid.ErrManagerNotFound
		}

		return grid.Manager{}, err
	}

	return m, nil
}

func (r *ManagersRepo) List(ctx context.Context) ([]grid.Manager, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM managers ORDER BY name`)

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	managers := []grid.Manager{}

	for rows.Next() {
		var m grid.Manager

		if err := rows.Scan(&m.ID, &m.Name); err != nil {
			return nil, err
		}

		managers = append(managers, m)
	}

	return managers, rows.Err()
}
