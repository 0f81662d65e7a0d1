package config

// The logging subsystem uses log/slog exclusively. All log output goes to
// os.Stderr so stdout stays clean for result paths piped to other tools.

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// SetupLogging configures the global slog default logger with the given
// level and format ("json" for JSON output, anything else for text). Safe to
// call multiple times; each call replaces the previous configuration.
func SetupLogging(level slog.Level, format string) {
	SetupLoggingWithWriter(level, format, os.Stderr)
}

// SetupLoggingWithWriter is the testable variant of SetupLogging that writes
// to w instead of os.Stderr.
func SetupLoggingWithWriter(level slog.Level, format string, w io.Writer) {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	slog.SetDefault(slog.New(handler))
}

// ResolveLogLevel determines the slog.Level from CLI flags and environment.
// Priority: TP_DEBUG=1, then --verbose, then --quiet, then warn.
func ResolveLogLevel(verbose, quiet bool) slog.Level {
	if os.Getenv("TP_DEBUG") == "1" {
		return slog.LevelDebug
	}

	if verbose {
		return slog.LevelDebug
	}

	if quiet {
		return slog.LevelError
	}

	return slog.LevelWarn
}

// ResolveLogFormat reads TP_LOG_FORMAT and returns "json" when it is set to
// json (case-insensitive), otherwise "text".
func ResolveLogFormat() string {
	if strings.EqualFold(os.Getenv("TP_LOG_FORMAT"), "json") {
		return "json"
	}
	return "text"
}

// NewLogger returns a child logger with a "component" attribute, so log
// output can be filtered by subsystem (e.g. "walker", "query", "cli").
func NewLogger(component string) *slog.Logger {
	return slog.Default().With("component", component)
}
