// Package testutil provides small helpers shared across package tests.
package testutil

import (
	"io"
	"log/slog"
)

// DiscardLogger returns a logger that drops everything, for tests that need
// a *slog.Logger but not its output.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
