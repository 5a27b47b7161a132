package app

import (
	"sync"
	"sync/atomic"

	"github.com/kelseyhightower/envconfig"
)

const testModeEnv = "ODYSSEY_TEST_MODE"

type runtimeFlags struct {
	TestMode bool `envconfig:"ODYSSEY_TEST_MODE"`
}

var (
	testModeFlag atomic.Bool
	testModeOnce sync.Once
)

func detectTestMode() {
	var flags runtimeFlags
	if err := envconfig.Process("", &flags); err != nil {
		flags.TestMode = false
	}
	testModeFlag.Store(flags.TestMode)
}

// InTestMode reports whether binaries should return before touching
// databases, Redis or the network.
func InTestMode() bool {
	testModeOnce.Do(detectTestMode)
	return testModeFlag.Load()
}

// RefreshTestMode re-reads the flag after the environment changed.
func RefreshTestMode() {
	testModeOnce.Do(func() {})
	detectTestMode()
}
