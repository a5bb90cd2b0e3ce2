package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/gudang-app/gudang/internal/masterdata/products"
	"github.com/gudang-app/gudang/internal/masterdata/units"
	"github.com/gudang-app/gudang/internal/observability"
	"github.com/gudang-app/gudang/internal/reconcile"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	ProductsHandler *products.Handler
	UnitsHandler    *units.Handler
	ImportHandler   *reconcile.Handler
	Metrics         *observability.Metrics
}

// NewRouter constructs the chi.Router with gudang defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	if !InTestMode() {
		r.Use(chimw.Logger)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		if params.ProductsHandler != nil {
			r.Route("/catalog/products", params.ProductsHandler.Routes)
		}
		if params.UnitsHandler != nil {
			r.Get("/catalog/units", params.UnitsHandler.List)
		}
		if params.ImportHandler != nil {
			params.ImportHandler.Routes(r, AIImportLimiter(params.Config))
		}
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
