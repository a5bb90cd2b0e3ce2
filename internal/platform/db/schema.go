package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// PostgresSchema creates the catalog tables. Products keep insertion order through position.
const PostgresSchema = `
CREATE TABLE IF NOT EXISTS units (
	id   TEXT PRIMARY KEY,
	name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS catalog_products (
	position   BIGINT GENERATED ALWAYS AS IDENTITY,
	id         TEXT PRIMARY KEY,
	code       TEXT NOT NULL DEFAULT '',
	name       TEXT NOT NULL,
	unit_id    TEXT REFERENCES units (id) ON DELETE SET NULL,
	price      NUMERIC(18, 4) NOT NULL DEFAULT 0,
	cost_price NUMERIC(18, 4) NOT NULL DEFAULT 0,
	color      TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_catalog_products_code ON catalog_products (code);
CREATE INDEX IF NOT EXISTS idx_catalog_products_position ON catalog_products (position);
`

// DefaultUnit is reference data installed with a fresh catalog.
type DefaultUnit struct {
	ID   string
	Name string
}

// DefaultUnits are the units operators pick from before any are maintained by hand.
var DefaultUnits = []DefaultUnit{
	{ID: "pcs", Name: "قطعة"},
	{ID: "box", Name: "كرتونة"},
	{ID: "kg", Name: "كيلو"},
	{ID: "l", Name: "لتر"},
	{ID: "pack", Name: "Pack"},
}

// ApplyPostgresSchema creates the catalog tables and installs DefaultUnits.
func ApplyPostgresSchema(ctx context.Context, pool Beginner) error {
	return WithTx(ctx, pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, PostgresSchema); err != nil {
			return fmt.Errorf("platform/db: apply postgres schema: %w", err)
		}
		for _, u := range DefaultUnits {
			if _, err := tx.Exec(ctx, `INSERT INTO units (id, name) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`, u.ID, u.Name); err != nil {
				return fmt.Errorf("platform/db: seed unit %s: %w", u.ID, err)
			}
		}
		return nil
	})
}
