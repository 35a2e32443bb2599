// Package logger provides the shared slog logger for the gemini-mcp process.
//
// The MCP protocol owns stdout, so log output goes to stderr by default and
// to a file once Init is called. All packages obtain loggers from here so
// that the destination and level can be switched in one place.
package logger

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

var (
	mu      sync.Mutex
	logFile *os.File
	debug   = true
	base    *slog.Logger
)

func init() {
	base = newLogger(os.Stderr)
}

func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// SetDebug toggles debug-level logging. Takes effect for loggers created
// after the call, so it should run before any WithRequest calls.
func SetDebug(enabled bool) {
	mu.Lock()
	defer mu.Unlock()
	debug = enabled
	if logFile != nil {
		base = newLogger(logFile)
	} else {
		base = newLogger(os.Stderr)
	}
}

// Init redirects logging to the given file path, creating it if needed.
// Logging continues on stderr if the file cannot be opened.
func Init(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		logFile.Close()
	}
	logFile = f
	base = newLogger(f)
	return nil
}

// Close flushes and closes the log file if one is open.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		logFile.Close()
		logFile = nil
		base = newLogger(os.Stderr)
	}
}

// Default returns the process-wide logger.
func Default() *slog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return base
}

// WithRequest returns a logger with the invocation's request id pre-attached.
func WithRequest(requestID string) *slog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return base.With("requestID", requestID)
}
