// Package config loads pyscry settings from .pyscry.yaml, PYSCRY_*
// environment variables and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/Sumatoshi-tech/pyscry/pkg/render"
	"github.com/Sumatoshi-tech/pyscry/pkg/safeconv"
)

// Config is the top-level configuration struct for pyscry.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Format         string    `mapstructure:"format"`
	Pretty         bool      `mapstructure:"pretty"`
	VersionStyle   string    `mapstructure:"version_style"`
	Jobs           int       `mapstructure:"jobs"`
	Exclude        []string  `mapstructure:"exclude"`
	Ignore         []string  `mapstructure:"ignore"`
	SitePackages   []string  `mapstructure:"site_packages"`
	Python         string    `mapstructure:"python"`
	Mapping        string    `mapstructure:"mapping"`
	MaxFileSize    string    `mapstructure:"max_file_size"`
	SkipVendor     bool      `mapstructure:"skip_vendor"`
	IncludeScripts bool      `mapstructure:"include_scripts"`
	Log            LogConfig `mapstructure:"log"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	JSON  bool   `mapstructure:"json"`
	Level string `mapstructure:"level"`
}

// Default configuration values.
const (
	DefaultFormat         = render.FormatText
	DefaultPretty         = false
	DefaultVersionStyle   = render.StyleMinimum
	DefaultJobs           = 1
	DefaultPython         = "python3"
	DefaultMaxFileSize    = "1MiB"
	DefaultSkipVendor     = true
	DefaultIncludeScripts = false
	DefaultLogJSON        = false
	DefaultLogLevel       = "info"
)

// Sentinel errors for configuration validation.
var (
	// ErrInvalidJobs indicates the jobs value is not positive.
	ErrInvalidJobs = errors.New("jobs must be at least 1")
	// ErrInvalidMaxFileSize indicates max_file_size is not a byte size.
	ErrInvalidMaxFileSize = errors.New("max_file_size must be a byte size such as 512KiB or 1MB")
	// ErrInvalidLogLevel indicates an unknown log level.
	ErrInvalidLogLevel = errors.New("log.level must be one of debug, info, warn, error")
)

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	err := render.ValidateFormat(c.Format)
	if err != nil {
		return err
	}

	err = render.ValidateStyle(c.VersionStyle)
	if err != nil {
		return err
	}

	if c.Jobs < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidJobs, c.Jobs)
	}

	_, err = c.MaxFileSizeBytes()
	if err != nil {
		return err
	}

	_, err = c.LogLevel()

	return err
}

// MaxFileSizeBytes parses MaxFileSize. An empty value or zero disables the
// limit.
func (c *Config) MaxFileSizeBytes() (int64, error) {
	raw := strings.TrimSpace(c.MaxFileSize)
	if raw == "" {
		return 0, nil
	}

	size, err := humanize.ParseBytes(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMaxFileSize, c.MaxFileSize)
	}

	limit, ok := safeconv.Uint64ToInt64(size)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMaxFileSize, c.MaxFileSize)
	}

	return limit, nil
}

// LogLevel parses Log.Level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level

	err := level.UnmarshalText([]byte(strings.TrimSpace(c.Log.Level)))
	if err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Log.Level)
	}

	return level, nil
}
