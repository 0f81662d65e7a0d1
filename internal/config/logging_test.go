package config

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ResolveLogLevel(true, false))
	assert.Equal(t, slog.LevelError, ResolveLogLevel(false, true))
	assert.Equal(t, slog.LevelWarn, ResolveLogLevel(false, false))
	// Verbose wins over quiet.
	assert.Equal(t, slog.LevelDebug, ResolveLogLevel(true, true))
}

func TestResolveLogLevel_EnvOverride(t *testing.T) {
	t.Setenv("TP_DEBUG", "1")
	assert.Equal(t, slog.LevelDebug, ResolveLogLevel(false, true))
}

func TestResolveLogFormat(t *testing.T) {
	t.Setenv("TP_LOG_FORMAT", "")
	assert.Equal(t, "text", ResolveLogFormat())
	t.Setenv("TP_LOG_FORMAT", "JSON")
	assert.Equal(t, "json", ResolveLogFormat())
}

func TestSetupLoggingWithWriter(t *testing.T) {
	defer SetupLogging(slog.LevelWarn, "text")

	var buf bytes.Buffer
	SetupLoggingWithWriter(slog.LevelInfo, "json", &buf)
	slog.Info("hello", "k", "v")
	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.Contains(t, buf.String(), `"k":"v"`)

	buf.Reset()
	SetupLoggingWithWriter(slog.LevelError, "text", &buf)
	slog.Info("dropped")
	assert.Empty(t, buf.String())
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	defer SetupLogging(slog.LevelWarn, "text")
	SetupLoggingWithWriter(slog.LevelInfo, "text", &buf)

	NewLogger("walker").Info("crawling")
	assert.Contains(t, buf.String(), "component=walker")
}
