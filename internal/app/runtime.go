package app

import (
	"os"
	"strconv"
)

const testModeEnv = "GUDANG_TEST_MODE"

// InTestMode reports whether GUDANG_TEST_MODE is a true boolean. In test mode the
// server does not start and the router skips request logging. The variable is read
// on every call so tests may toggle it with t.Setenv.
func InTestMode() bool {
	on, err := strconv.ParseBool(os.Getenv(testModeEnv))
	return err == nil && on
}
