package app

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("CATALOG_DRIVER", DriverSQLite)
	t.Setenv("IMPORT_MAX_UPLOAD_BYTES", "10485760")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, DriverSQLite, cfg.CatalogDriver)
	require.Equal(t, int64(10<<20), cfg.ImportMaxUploadBytes)
	require.Equal(t, 60*time.Second, cfg.ExtractionTimeout)
	require.False(t, cfg.IsProduction())
}

func TestLoadConfigValidation(t *testing.T) {
	t.Setenv("CATALOG_DRIVER", "mongo")
	_, err := LoadConfig()
	require.ErrorContains(t, err, "unknown catalog driver")

	t.Setenv("CATALOG_DRIVER", DriverPostgres)
	t.Setenv("APP_ENV", "production")
	t.Setenv("EXTRACTION_URL", "")
	_, err = LoadConfig()
	require.ErrorContains(t, err, "extraction url")

	t.Setenv("EXTRACTION_URL", "https://extract.internal")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.True(t, cfg.IsProduction())
}

func TestNewLoggerFormats(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&Config{LogFormat: "json", AppEnv: "development"}, &buf)
	logger.Debug("import state", "to", "matching")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "import state", entry["msg"])
	require.Equal(t, "matching", entry["to"])
	require.Contains(t, entry, "source")

	buf.Reset()
	logger = newLogger(&Config{LogFormat: "pretty", AppEnv: "production"}, &buf)
	logger.Debug("hidden")
	require.Empty(t, buf.String())
	logger.Info("shown")
	require.Contains(t, buf.String(), "msg=shown")
}

func TestUploadContentType(t *testing.T) {
	require.Equal(t, "image/png", UploadContentType("scan.png", "image/png"))
	require.Equal(t, "application/pdf", UploadContentType("Invoice.PDF", "application/octet-stream"))
	require.Equal(t, "application/octet-stream", UploadContentType("blob", ""))
}

func TestInTestModeFollowsEnvironment(t *testing.T) {
	t.Setenv(testModeEnv, "true")
	require.True(t, InTestMode())

	t.Setenv(testModeEnv, "0")
	require.False(t, InTestMode())

	t.Setenv(testModeEnv, "yes please")
	require.False(t, InTestMode(), "unparseable values are off")
}
