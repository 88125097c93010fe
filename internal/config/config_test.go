package config_test

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/pyscry/internal/config"
	"github.com/Sumatoshi-tech/pyscry/pkg/render"
)

func validConfig() config.Config {
	return config.Config{
		Format:       config.DefaultFormat,
		VersionStyle: config.DefaultVersionStyle,
		Jobs:         config.DefaultJobs,
		MaxFileSize:  config.DefaultMaxFileSize,
		Log:          config.LogConfig{Level: config.DefaultLogLevel},
	}
}

func TestValidate_ValidConfig_NoError(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	require.NoError(t, cfg.Validate())
}

func TestValidate_InvalidFormat_ReturnsError(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Format = "yaml"

	assert.ErrorIs(t, cfg.Validate(), render.ErrUnknownFormat)
}

func TestValidate_InvalidStyle_ReturnsError(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.VersionStyle = "pinned"

	assert.ErrorIs(t, cfg.Validate(), render.ErrUnknownStyle)
}

func TestValidate_InvalidJobs_ReturnsError(t *testing.T) {
	t.Parallel()

	for _, jobs := range []int{0, -3} {
		cfg := validConfig()
		cfg.Jobs = jobs

		assert.ErrorIs(t, cfg.Validate(), config.ErrInvalidJobs)
	}
}

func TestValidate_InvalidMaxFileSize_ReturnsError(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.MaxFileSize = "lots"

	assert.ErrorIs(t, cfg.Validate(), config.ErrInvalidMaxFileSize)
}

func TestValidate_InvalidLogLevel_ReturnsError(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Log.Level = "chatty"

	assert.ErrorIs(t, cfg.Validate(), config.ErrInvalidLogLevel)
}

func TestMaxFileSizeBytes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want int64
	}{
		{"1MiB", 1 << 20},
		{"512KiB", 512 << 10},
		{"2MB", 2_000_000},
		{"0", 0},
		{"", 0},
	}

	for _, tt := range tests {
		cfg := config.Config{MaxFileSize: tt.raw}

		got, err := cfg.MaxFileSizeBytes()
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}
}

func TestLogLevel(t *testing.T) {
	t.Parallel()

	cfg := config.Config{Log: config.LogConfig{Level: "DEBUG"}}

	level, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}
