// Package config provides configuration types and defaults for tmstyle.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zjrosen/tmstyle/internal/log"
	"github.com/zjrosen/tmstyle/internal/tracing"
)

// Config holds all configuration options for tmstyle.
type Config struct {
	Theme           string        `mapstructure:"theme"`      // catalog key or display name
	ThemeDirs       []string      `mapstructure:"theme_dirs"` // extra directories of theme files
	Language        string        `mapstructure:"language"`   // empty = detect from file name and content
	TokenizeTimeout time.Duration `mapstructure:"tokenize_timeout"`
	LineNumbers     bool          `mapstructure:"line_numbers"`
	ColorProfile    string        `mapstructure:"color_profile"` // auto, truecolor, ansi256, ansi, ascii
	Debug           bool          `mapstructure:"debug"`
	LogFile         string        `mapstructure:"log_file"`
	LogLevel        string        `mapstructure:"log_level"`      // debug, info, warn, error
	LogCategories   []string      `mapstructure:"log_categories"` // empty = all
	Watch           WatchConfig   `mapstructure:"watch"`
	Tracing         TracingConfig `mapstructure:"tracing"`
}

// WatchConfig controls live reload in the preview.
type WatchConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Debounce time.Duration `mapstructure:"debounce"`
}

// TracingConfig holds OpenTelemetry tracing configuration.
type TracingConfig struct {
	// Enabled controls whether tracing is active.
	// Default: false
	Enabled bool `mapstructure:"enabled"`

	// Exporter selects the trace export backend.
	// Options: "none", "file", "stdout", "otlp"
	// Default: "file"
	Exporter string `mapstructure:"exporter"`

	// FilePath is the output file for "file" exporter.
	// Default: ~/.config/tmstyle/traces/traces.jsonl
	FilePath string `mapstructure:"file_path"`

	// OTLPEndpoint is the collector endpoint for "otlp" exporter.
	// Default: "localhost:4317"
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`

	// SampleRate controls trace sampling (0.0 to 1.0).
	// Default: 1.0
	SampleRate float64 `mapstructure:"sample_rate"`

	// ServiceName is reported as the service.name resource attribute.
	// Default: "tmstyle"
	ServiceName string `mapstructure:"service_name"`
}

// ProviderConfig converts t for tracing.NewProvider.
func (t TracingConfig) ProviderConfig() tracing.Config {
	return tracing.Config{
		Enabled:      t.Enabled,
		Exporter:     t.Exporter,
		FilePath:     t.FilePath,
		OTLPEndpoint: t.OTLPEndpoint,
		SampleRate:   t.SampleRate,
		ServiceName:  t.ServiceName,
	}
}

// DefaultConfigDir returns ~/.config/tmstyle or empty string if the home
// dir is unavailable.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "tmstyle")
}

// DefaultThemeDir returns ~/.config/tmstyle/themes or empty string.
func DefaultThemeDir() string {
	dir := DefaultConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "themes")
}

// DefaultTracesFilePath returns ~/.config/tmstyle/traces/traces.jsonl or
// empty string.
func DefaultTracesFilePath() string {
	dir := DefaultConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "traces", "traces.jsonl")
}

// ExpandPath replaces a leading "~" with the home directory.
func ExpandPath(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// ThemeDirectories returns the expanded theme directories, empty entries
// removed.
func (c Config) ThemeDirectories() []string {
	dirs := make([]string, 0, len(c.ThemeDirs))
	for _, d := range c.ThemeDirs {
		if d = strings.TrimSpace(d); d != "" {
			dirs = append(dirs, ExpandPath(d))
		}
	}
	return dirs
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Theme:           "monokai",
		ThemeDirs:       []string{DefaultThemeDir()},
		TokenizeTimeout: time.Second,
		LineNumbers:     false,
		ColorProfile:    "auto",
		LogFile:         "debug.log",
		LogLevel:        "debug",
		Watch: WatchConfig{
			Enabled:  true,
			Debounce: 200 * time.Millisecond,
		},
		Tracing: TracingConfig{
			Enabled:      false,
			Exporter:     "file",
			FilePath:     "", // Derived from config dir at runtime
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
			ServiceName:  "tmstyle",
		},
	}
}

// Validate checks every section and joins the failures.
func (c Config) Validate() error {
	var errs []error
	if c.TokenizeTimeout < 0 {
		errs = append(errs, fmt.Errorf("tokenize_timeout must not be negative, got %v", c.TokenizeTimeout))
	}
	if err := ValidateColorProfile(c.ColorProfile); err != nil {
		errs = append(errs, err)
	}
	if err := ValidateLogLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if _, err := log.ParseCategories(c.LogCategories); err != nil {
		errs = append(errs, fmt.Errorf("log_categories: %w", err))
	}
	if c.Watch.Debounce < 0 {
		errs = append(errs, fmt.Errorf("watch.debounce must not be negative, got %v", c.Watch.Debounce))
	}
	if err := ValidateTracing(c.Tracing); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ValidateColorProfile accepts the names understood by the highlight and
// preview commands. Empty means auto.
func ValidateColorProfile(profile string) error {
	switch profile {
	case "", "auto", "truecolor", "ansi256", "ansi", "ascii":
		return nil
	default:
		return fmt.Errorf("color_profile must be \"auto\", \"truecolor\", \"ansi256\", \"ansi\", or \"ascii\", got %q", profile)
	}
}

// ValidateLogLevel accepts the level names understood by the logger.
// Empty means debug.
func ValidateLogLevel(level string) error {
	switch strings.ToLower(level) {
	case "", "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("log_level must be \"debug\", \"info\", \"warn\", or \"error\", got %q", level)
	}
}

// ValidateTracing checks the tracing section.
func ValidateTracing(tracing TracingConfig) error {
	if tracing.SampleRate < 0.0 || tracing.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", tracing.SampleRate)
	}

	if tracing.Exporter != "" {
		switch tracing.Exporter {
		case "none", "file", "stdout", "otlp":
		default:
			return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", tracing.Exporter)
		}
	}

	// Path requirements only matter when tracing is on.
	if tracing.Enabled {
		if tracing.Exporter == "file" && tracing.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required when exporter is \"file\"")
		}
		if tracing.Exporter == "otlp" && tracing.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}

	return nil
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# tmstyle configuration

# Theme used by 'tmstyle highlight' and 'tmstyle preview'.
# Run 'tmstyle themes' to list built-in and user themes.
theme: monokai

# Directories searched for user theme files (.json, .yaml, .yml, .toml).
theme_dirs:
  - ~/.config/tmstyle/themes

# Force a language instead of detecting it from the file name and content.
# language: go

# Upper bound on the time spent tokenizing one line.
tokenize_timeout: 1s

# Prefix every line with its number.
line_numbers: false

# Terminal color profile: auto, truecolor, ansi256, ansi, ascii
color_profile: auto

# Debug logging
# debug: false
# log_file: debug.log
# log_level: debug          # debug, info, warn, error
# log_categories: []        # provider, theme, grammar, registry, cache, config, watcher, ui, trace

# Live reload in 'tmstyle preview'
watch:
  enabled: true
  debounce: 200ms

# OpenTelemetry tracing of document highlighting
tracing:
  enabled: false
  exporter: file            # none, file, stdout, otlp
  # file_path: ~/.config/tmstyle/traces/traces.jsonl
  otlp_endpoint: localhost:4317
  sample_rate: 1.0
  service_name: tmstyle
`
}

// WriteDefaultConfig creates a config file with default settings.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
