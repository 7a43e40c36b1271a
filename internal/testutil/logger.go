// Package testutil provides small fixtures shared across the module's
// test suites.
package testutil

import (
	"log/slog"
	"os"
)

// NewLogger returns a logger suppressed to errors-and-above by default
// so `go test` output stays quiet. Set DEBUG=1 for info or DEBUG=2 for
// debug-level output while diagnosing a failing test.
func NewLogger() *slog.Logger {
	level := slog.LevelError
	switch os.Getenv("DEBUG") {
	case "2":
		level = slog.LevelDebug
	case "1":
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
