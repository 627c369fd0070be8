package log

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"WARNING", slog.LevelWarn},
		{"error", slog.LevelError},
		{"garbage", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLevel(tt.input))
		})
	}
}

func TestNewConfigFromEnv_Defaults(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvLogFormat, "")
	t.Setenv(EnvRunMode, "")

	cfg := NewConfigFromEnv()

	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "text", cfg.Format)
	assert.False(t, cfg.AddSource)
}

func TestNewConfigFromEnv_Overrides(t *testing.T) {
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogFormat, "json")
	t.Setenv(EnvLogSource, "true")

	cfg := NewConfigFromEnv()

	assert.Equal(t, "error", cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.True(t, cfg.AddSource)
}

func TestNewConfigFromEnv_DevelopmentForcesDebug(t *testing.T) {
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvRunMode, "development")

	cfg := NewConfigFromEnv()

	assert.Equal(t, "debug", cfg.Level)
	assert.True(t, cfg.AddSource)
}

func TestInitAndDebugMode(t *testing.T) {
	Init(&Config{Level: "debug", Format: "text"})
	require.NotNil(t, GetLogger())
	assert.True(t, IsDebugMode())

	Init(&Config{Level: "info", Format: "text"})
	assert.False(t, IsDebugMode())
}

func TestNewModuleLogger(t *testing.T) {
	Init(nil)

	logger := NewModuleLogger("agent", "loop")
	require.NotNil(t, logger)
	assert.NotPanics(t, func() {
		logger.Info("module logger smoke test")
	})
}
