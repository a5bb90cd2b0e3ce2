package main

import (
	"context"
	"fmt"

	"github.com/gudang-app/gudang/internal/app"
	"github.com/gudang-app/gudang/internal/masterdata/products"
	"github.com/gudang-app/gudang/internal/masterdata/units"
	"github.com/gudang-app/gudang/internal/platform/db"
)

type catalogStores struct {
	products products.Repository
	units    units.Repository
	close    func()
}

// openStores connects the catalog backend selected by CATALOG_DRIVER.
func openStores(ctx context.Context, cfg *app.Config) (catalogStores, error) {
	switch cfg.CatalogDriver {
	case app.DriverPostgres:
		pool, err := db.New(ctx, cfg.PGDSN)
		if err != nil {
			return catalogStores{}, err
		}
		if err := db.ApplyPostgresSchema(ctx, pool); err != nil {
			pool.Close()
			return catalogStores{}, err
		}
		return catalogStores{
			products: products.NewRepository(pool),
			units:    units.NewRepository(pool),
			close:    pool.Close,
		}, nil
	case app.DriverSQLite:
		conn, err := db.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return catalogStores{}, err
		}
		return catalogStores{
			products: products.NewSQLiteRepository(conn),
			units:    units.NewSQLiteRepository(conn),
			close:    func() { _ = conn.Close() },
		}, nil
	default:
		return catalogStores{}, fmt.Errorf("unknown catalog driver %q", cfg.CatalogDriver)
	}
}
