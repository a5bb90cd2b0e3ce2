package extraction

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gudang-app/gudang/internal/platform/httpx"
	"github.com/gudang-app/gudang/internal/reconcile"
)

func TestExtractSendsDocumentAsMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/extract", r.URL.Path)
		require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseMultipartForm(1<<20))
		require.Equal(t, Instructions, r.FormValue("instructions"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		require.Equal(t, "invoice.png", header.Filename)
		require.Equal(t, "image/png", header.Header.Get("Content-Type"))
		raw, err := io.ReadAll(file)
		require.NoError(t, err)
		require.Equal(t, "png-bytes", string(raw))

		_, _ = w.Write([]byte("```json\n[{\"name\":\"Milk\",\"qty\":2}]\n```"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/", "secret", time.Second)
	src := client.Opener()("invoice.png", "image/png", strings.NewReader("png-bytes"))
	items, err := src.ReadItems(context.Background())
	require.NoError(t, err)
	require.Equal(t, []reconcile.ExtractedItem{{Name: "Milk", Qty: json.Number("2")}}, items)
}

func TestExtractUpstreamFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		if r.Header.Get("Authorization") == "" {
			_, _ = w.Write([]byte("I could not read this document."))
			return
		}
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	limited := NewClient(srv.URL, "key", 0)
	_, err := limited.Extract(context.Background(), "a.pdf", "", strings.NewReader("x"))
	require.ErrorIs(t, err, httpx.ErrUpstream)
	require.ErrorIs(t, limited.Ping(context.Background()), httpx.ErrUpstream)

	chatty := NewClient(srv.URL, "", 0)
	_, err = chatty.Opener()("a.pdf", "application/pdf", strings.NewReader("x")).ReadItems(context.Background())
	require.ErrorIs(t, err, reconcile.ErrExtractionParse)
}
