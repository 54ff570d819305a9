// Package logger holds the process-wide structured logger used by the
// allocator and the command line tools.
package logger

import (
	"log/slog"
	"os"
	"path/filepath"
)

// EnvLogAlloc enables debug logging of allocator activity on stderr when set
// to any non-empty value.
const EnvLogAlloc = "ARENAKIT_LOG_ALLOC"

// L is the global logger instance. It discards all output unless EnvLogAlloc is
// set or Init is called.
var L = defaultLogger()

// Options configures the logger initialization.
type Options struct {
	Enabled bool       // If false, all logging is discarded
	LogFile string     // Append JSON records to this file. Empty means stderr text output
	Level   slog.Level // Minimum log level. The zero value is LevelInfo
}

func defaultLogger() *slog.Logger {
	if os.Getenv(EnvLogAlloc) != "" {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return Discard()
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// Init configures logging. Call from main() before any log calls.
// The returned close function releases the log file, if any.
func Init(opts Options) (func() error, error) {
	noop := func() error { return nil }
	if !opts.Enabled {
		L = Discard()
		return noop, nil
	}

	// The zero Level is slog.LevelInfo.
	handlerOpts := &slog.HandlerOptions{Level: opts.Level}

	if opts.LogFile == "" {
		L = slog.New(slog.NewTextHandler(os.Stderr, handlerOpts))
		return noop, nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.LogFile), 0o755); err != nil {
		return noop, err
	}
	f, err := os.OpenFile(opts.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return noop, err
	}
	L = slog.New(slog.NewJSONHandler(f, handlerOpts))
	return f.Close, nil
}
