// Command seed loads a product catalog spreadsheet into the configured catalog store.
//
//	go run ./scripts/seed -file catalog.xlsx
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/gudang-app/gudang/internal/app"
	"github.com/gudang-app/gudang/internal/masterdata/products"
	"github.com/gudang-app/gudang/internal/masterdata/units"
	"github.com/gudang-app/gudang/internal/platform/db"
	"github.com/gudang-app/gudang/internal/reconcile"
	"github.com/gudang-app/gudang/internal/sheets"
)

const (
	slotPrice     reconcile.Slot = "price"
	slotCostPrice reconcile.Slot = "costPrice"
)

var catalogSlots = []reconcile.SlotAliases{
	{Slot: reconcile.SlotCode, Aliases: []string{"code", "كود", "رمز", "sku", "barcode"}},
	{Slot: reconcile.SlotName, Aliases: []string{"name", "اسم", "صنف", "item", "product"}},
	{Slot: reconcile.SlotUnit, Aliases: []string{"unit", "وحدة"}},
	{Slot: slotCostPrice, Aliases: []string{"cost", "تكلفة", "شراء"}},
	{Slot: slotPrice, Aliases: []string{"price", "سعر", "بيع"}},
}

func main() {
	file := flag.String("file", "", "CSV or XLSX catalog export")
	encoding := flag.String("encoding", "", "CSV character set, e.g. windows-1256")
	flag.Parse()
	if *file == "" {
		log.Fatalf("seed: -file is required")
	}

	_ = godotenv.Load()
	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	ctx := context.Background()

	productRepo, unitRepo, closeStore := open(ctx, cfg)
	defer closeStore()

	fmt.Println("→ Reading", *file)
	f, err := os.Open(*file)
	if err != nil {
		log.Fatalf("open %s: %v", *file, err)
	}
	defer f.Close()
	records, err := sheets.Read(*file, f, sheets.Options{Encoding: *encoding})
	if err != nil {
		log.Fatalf("read %s: %v", *file, err)
	}

	unitList, err := unitRepo.List(ctx)
	if err != nil {
		log.Fatalf("list units: %v", err)
	}
	batch := catalogFromRecords(records, unitList)

	fmt.Printf("→ Upserting %d products...\n", len(batch))
	if err := products.NewService(productRepo, nil).UpsertAll(ctx, batch); err != nil {
		log.Fatalf("upsert catalog: %v", err)
	}
	fmt.Println("✓ Seed complete at", time.Now().Format(time.RFC3339))
}

// catalogFromRecords keeps rows with a name. Ids are minted by the service.
func catalogFromRecords(records []reconcile.ImportRecord, unitList []units.Unit) []products.Product {
	norm := reconcile.NewHeaderNormalizer(catalogSlots)
	matcher := reconcile.NewMatcher(reconcile.Catalog{Units: unitList}, reconcile.ExactName)
	batch := make([]products.Product, 0, len(records))
	for _, rec := range records {
		slots := norm.Normalize(rec)
		name := reconcile.CoerceName(slots[reconcile.SlotName], "")
		if name == "" {
			continue
		}
		price := slots[slotPrice]
		if costHeader, ok := norm.Header(rec, slotCostPrice); ok {
			// "Cost Price" also contains "price"; resolve the sale price without it.
			price = norm.Normalize(without(rec, costHeader))[slotPrice]
		}
		batch = append(batch, products.Product{
			Code:      reconcile.CoerceCode(slots[reconcile.SlotCode]),
			Name:      name,
			UnitID:    matcher.ResolveUnit(reconcile.CoerceUnitLabel(slots[reconcile.SlotUnit])),
			Price:     reconcile.CoerceCode(price),
			CostPrice: reconcile.CoerceCode(slots[slotCostPrice]),
		})
	}
	return batch
}

func without(rec reconcile.ImportRecord, header string) reconcile.ImportRecord {
	fields := make([]reconcile.Field, 0, len(rec.Fields))
	for _, f := range rec.Fields {
		if f.Header != header {
			fields = append(fields, f)
		}
	}
	return reconcile.NewImportRecord(fields...)
}

func open(ctx context.Context, cfg *app.Config) (products.Repository, units.Repository, func()) {
	if cfg.CatalogDriver == app.DriverPostgres {
		pool, err := db.New(ctx, cfg.PGDSN)
		if err != nil {
			log.Fatalf("connect postgres: %v", err)
		}
		if err := db.ApplyPostgresSchema(ctx, pool); err != nil {
			log.Fatalf("apply schema: %v", err)
		}
		return products.NewRepository(pool), units.NewRepository(pool), pool.Close
	}
	conn, err := db.OpenSQLite(ctx, cfg.SQLitePath)
	if err != nil {
		log.Fatalf("open sqlite: %v", err)
	}
	return products.NewSQLiteRepository(conn), units.NewSQLiteRepository(conn), func() { _ = conn.Close() }
}
