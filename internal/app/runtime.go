package app

import (
	"os"
	"sync"
	"sync/atomic"
)

// testModeEnv short-circuits the binaries before they reach Postgres or
// Redis, so packaging checks can exec them without infrastructure.
const testModeEnv = "MOLARIS_TEST_MODE"

var (
	testModeFlag atomic.Bool
	testModeOnce sync.Once
)

func detectTestMode() {
	testModeFlag.Store(os.Getenv(testModeEnv) == "1")
}

// InTestMode reports whether startup side effects should be skipped.
func InTestMode() bool {
	testModeOnce.Do(detectTestMode)
	return testModeFlag.Load()
}

// RefreshTestMode re-reads the environment after it changed, which only
// happens in tests.
func RefreshTestMode() {
	detectTestMode()
}
