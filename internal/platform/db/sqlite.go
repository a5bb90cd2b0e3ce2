package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// catalogSchema mirrors the Postgres tables so both stores share queries shape.
const catalogSchema = `
CREATE TABLE IF NOT EXISTS units (
	id   TEXT PRIMARY KEY,
	name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS catalog_products (
	id         TEXT PRIMARY KEY,
	code       TEXT NOT NULL DEFAULT '',
	name       TEXT NOT NULL,
	unit_id    TEXT NOT NULL DEFAULT '',
	price      TEXT NOT NULL DEFAULT '0',
	cost_price TEXT NOT NULL DEFAULT '0',
	color      TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_catalog_products_code ON catalog_products (code);
`

// OpenSQLite opens a SQLite database through the pure-Go driver, applies the catalog
// schema and installs DefaultUnits.
// Use ":memory:" for an ephemeral database.
func OpenSQLite(ctx context.Context, path string) (*sqlx.DB, error) {
	dsn := path
	if path != ":memory:" {
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	conn, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("platform/db: open sqlite: %w", err)
	}
	// A single connection keeps ":memory:" databases shared across calls.
	conn.SetMaxOpenConns(1)

	if _, err := conn.ExecContext(ctx, catalogSchema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("platform/db: apply sqlite schema: %w", err)
	}
	for _, u := range DefaultUnits {
		if _, err := conn.ExecContext(ctx, `INSERT OR IGNORE INTO units (id, name) VALUES (?, ?)`, u.ID, u.Name); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("platform/db: seed unit %s: %w", u.ID, err)
		}
	}
	return conn, nil
}
