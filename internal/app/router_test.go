package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gudang-app/gudang/internal/masterdata/products"
	"github.com/gudang-app/gudang/internal/masterdata/units"
	"github.com/gudang-app/gudang/internal/observability"
	"github.com/gudang-app/gudang/internal/platform/db"
	"github.com/gudang-app/gudang/internal/reconcile"
	"github.com/gudang-app/gudang/internal/sheets"
	_ "github.com/gudang-app/gudang/testing"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	conn, err := db.OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	productService := products.NewService(products.NewSQLiteRepository(conn), nil)
	unitService := units.NewService(units.NewSQLiteRepository(conn), nil)
	metrics := observability.NewMetrics()
	importService := reconcile.NewService(productService, unitService, nil, metrics, reconcile.ServiceConfig{})
	cfg := &Config{AppEnv: "test", AIImportRatePerMin: 1}

	return NewRouter(RouterParams{
		Config:          cfg,
		ProductsHandler: products.NewHandler(nil, productService),
		UnitsHandler:    units.NewHandler(nil, unitService),
		ImportHandler: reconcile.NewHandler(nil, importService, reconcile.NewMemoryPendingStore(), reconcile.HandlerConfig{
			Tabular: sheets.Opener(sheets.Options{}),
		}),
		Metrics: metrics,
	})
}

func TestRouterHealthAndSecurityHeaders(t *testing.T) {
	router := newTestRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	require.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	require.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
}

func TestRouterCatalogAndMerge(t *testing.T) {
	router := newTestRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/catalog/units", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"id":"kg"`)

	body := `{"existing":[{"id":"a","name":"Apple"},{"id":"b","name":""}],"incoming":[]}`
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/grid/merge", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.Contains(t, rr.Body.String(), `"Apple"`)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "gudang_http_requests_total")
}

func TestRouterAIImportWithoutExtractionIsNotImplemented(t *testing.T) {
	router := newTestRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/imports/ai", nil))
	require.Equal(t, http.StatusNotImplemented, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/imports/ai", nil))
	require.Equal(t, http.StatusTooManyRequests, rr.Code, "document uploads are rate limited separately")
}
