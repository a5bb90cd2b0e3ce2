package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/gudang-app/gudang/internal/app"
	"github.com/gudang-app/gudang/internal/extraction"
	"github.com/gudang-app/gudang/internal/masterdata/products"
	"github.com/gudang-app/gudang/internal/masterdata/units"
	"github.com/gudang-app/gudang/internal/observability"
	"github.com/gudang-app/gudang/internal/platform/cache"
	"github.com/gudang-app/gudang/internal/reconcile"
	"github.com/gudang-app/gudang/internal/sheets"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Default().Warn("load .env", slog.Any("error", err))
	}

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	stores, err := openStores(ctx, cfg)
	if err != nil {
		logger.Error("open catalog store", slog.String("driver", cfg.CatalogDriver), slog.Any("error", err))
		os.Exit(1)
	}
	defer stores.close()

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient, err = cache.New(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Warn("redis unavailable, catalog uncached and pending imports in memory", slog.Any("error", err))
			redisClient = nil
		} else {
			defer func() {
				if err := redisClient.Close(); err != nil {
					logger.Warn("redis close", slog.Any("error", err))
				}
			}()
		}
	}

	var pending reconcile.PendingStore = reconcile.NewMemoryPendingStore()
	var catalogCache, unitsCache *cache.Versioned
	if redisClient != nil {
		pending = reconcile.NewRedisPendingStore(redisClient)
		catalogCache = cache.NewVersioned(redisClient, "catalog", cfg.CatalogCacheTTL)
		unitsCache = cache.NewVersioned(redisClient, "units", cfg.CatalogCacheTTL)
	}

	metrics := observability.NewMetrics()

	productService := products.NewService(stores.products, catalogCache)
	unitService := units.NewService(stores.units, unitsCache)

	importService := reconcile.NewService(productService, unitService, logger, metrics, reconcile.ServiceConfig{})

	handlerCfg := reconcile.HandlerConfig{
		Tabular:        sheets.Opener(sheets.Options{}),
		MaxUploadBytes: cfg.ImportMaxUploadBytes,
	}
	if cfg.ExtractionURL != "" {
		client := extraction.NewClient(cfg.ExtractionURL, cfg.ExtractionAPIKey, cfg.ExtractionTimeout)
		if err := client.Ping(ctx); err != nil {
			logger.Warn("extraction service ping", slog.Any("error", err))
		}
		open := client.Opener()
		handlerCfg.Extraction = func(filename, contentType string, body io.Reader) reconcile.ItemSource {
			return open(filename, app.UploadContentType(filename, contentType), body)
		}
	} else {
		logger.Warn("EXTRACTION_URL not set, AI import disabled")
	}

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		ProductsHandler: products.NewHandler(logger, productService),
		UnitsHandler:    units.NewHandler(logger, unitService),
		ImportHandler:   reconcile.NewHandler(logger, importService, pending, handlerCfg),
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("catalog_driver", cfg.CatalogDriver))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
