package products

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gudang-app/gudang/internal/masterdata/shared"
	"github.com/gudang-app/gudang/internal/platform/db"
)

// Repository persists catalog products. List returns products in insertion order.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id string) (Product, error)
	UpsertBatch(ctx context.Context, products []Product) error
	Delete(ctx context.Context, id string) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns the PostgreSQL backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const selectProducts = `SELECT id, code, name, COALESCE(unit_id, ''), price::text, cost_price::text, color FROM catalog_products`

func (r *repository) List(ctx context.Context) ([]Product, error) {
	rows, err := r.pool.Query(ctx, selectProducts+` ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Code, &p.Name, &p.UnitID, &p.Price, &p.CostPrice, &p.Color); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *repository) Get(ctx context.Context, id string) (Product, error) {
	var p Product
	err := r.pool.QueryRow(ctx, selectProducts+` WHERE id = $1`, id).
		Scan(&p.ID, &p.Code, &p.Name, &p.UnitID, &p.Price, &p.CostPrice, &p.Color)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, shared.ErrNotFound
	}
	return p, err
}

func (r *repository) UpsertBatch(ctx context.Context, products []Product) error {
	const query = `INSERT INTO catalog_products (id, code, name, unit_id, price, cost_price, color, created_at, updated_at)
VALUES ($1, $2, $3, NULLIF($4, ''), $5::numeric, $6::numeric, $7, now(), now())
ON CONFLICT (id) DO UPDATE SET
	code = EXCLUDED.code,
	name = EXCLUDED.name,
	unit_id = EXCLUDED.unit_id,
	price = EXCLUDED.price,
	cost_price = EXCLUDED.cost_price,
	color = EXCLUDED.color,
	updated_at = now()`
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		for _, p := range products {
			if _, err := tx.Exec(ctx, query, p.ID, p.Code, p.Name, p.UnitID, p.Price, p.CostPrice, p.Color); err != nil {
				return mapPgError(err)
			}
		}
		return nil
	})
}

func (r *repository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM catalog_products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return shared.ErrDuplicate
		case "23503":
			return shared.ErrValidation
		}
	}
	return err
}
