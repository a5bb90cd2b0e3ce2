package products

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/gudang-app/gudang/internal/masterdata/shared"
	"github.com/gudang-app/gudang/internal/platform/db"
)

type sqliteRepository struct {
	db *sqlx.DB
}

// NewSQLiteRepository returns a Repository for the single-workstation SQLite catalog.
func NewSQLiteRepository(conn *sqlx.DB) Repository {
	return &sqliteRepository{db: conn}
}

const sqliteSelectProducts = `SELECT id, code, name, unit_id, price, cost_price, color FROM catalog_products`

func (r *sqliteRepository) List(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := r.db.SelectContext(ctx, &products, sqliteSelectProducts+` ORDER BY rowid`); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *sqliteRepository) Get(ctx context.Context, id string) (Product, error) {
	var p Product
	err := r.db.GetContext(ctx, &p, sqliteSelectProducts+` WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, shared.ErrNotFound
	}
	return p, err
}

func (r *sqliteRepository) UpsertBatch(ctx context.Context, products []Product) error {
	const query = `INSERT INTO catalog_products (id, code, name, unit_id, price, cost_price, color)
VALUES (:id, :code, :name, :unit_id, :price, :cost_price, :color)
ON CONFLICT(id) DO UPDATE SET
	code = excluded.code,
	name = excluded.name,
	unit_id = excluded.unit_id,
	price = excluded.price,
	cost_price = excluded.cost_price,
	color = excluded.color,
	updated_at = CURRENT_TIMESTAMP`
	return db.WithSQLTx(ctx, r.db, func(tx *sqlx.Tx) error {
		for _, p := range products {
			if _, err := tx.NamedExecContext(ctx, query, p); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *sqliteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM catalog_products WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return shared.ErrNotFound
	}
	return nil
}
