// Package testing puts the process in test mode for packages that boot the HTTP
// stack. Import it for side effects from _test files.
package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

// testEnv pins the process to a self-contained catalog: in-memory SQLite, no redis
// and an extraction URL nothing listens on.
var testEnv = map[string]string{
	"GUDANG_TEST_MODE": "1",
	"CATALOG_DRIVER":   "sqlite",
	"SQLITE_PATH":      ":memory:",
	"EXTRACTION_URL":   "http://127.0.0.1:0",
}

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		for key, value := range testEnv {
			if key == "GUDANG_TEST_MODE" || os.Getenv(key) == "" {
				_ = os.Setenv(key, value)
			}
		}
		_ = os.Unsetenv("REDIS_ADDR")
	})
}

func init() {
	ensureTestMode()
}

func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}
