package units

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
)

// Repository reads units.
type Repository interface {
	List(ctx context.Context) ([]Unit, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns the PostgreSQL backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) List(ctx context.Context) ([]Unit, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM units ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var units []Unit
	for rows.Next() {
		var u Unit
		if err := rows.Scan(&u.ID, &u.Name); err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, rows.Err()
}

type sqliteRepository struct {
	db *sqlx.DB
}

// NewSQLiteRepository returns a Repository over the SQLite catalog database.
func NewSQLiteRepository(conn *sqlx.DB) Repository {
	return &sqliteRepository{db: conn}
}

func (r *sqliteRepository) List(ctx context.Context) ([]Unit, error) {
	var units []Unit
	if err := r.db.SelectContext(ctx, &units, `SELECT id, name FROM units ORDER BY name, id`); err != nil {
		return nil, err
	}
	return units, nil
}
