// Package guard is blank-imported by tests that build the whole application.
// It turns on test mode and, unless CRM_TEST_LOGS is set, silences the
// default logger.
package guard

import (
	"io"
	"log/slog"
	"os"
)

func init() {
	if os.Getenv("ODYSSEY_TEST_MODE") == "" {
		_ = os.Setenv("ODYSSEY_TEST_MODE", "1")
	}
	if os.Getenv("CRM_TEST_LOGS") == "" {
		slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	}
}
