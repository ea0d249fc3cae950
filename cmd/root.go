package cmd

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/tmstyle/internal/config"
	"github.com/zjrosen/tmstyle/internal/log"
)

func init() {
	// Query the terminal background before any Bubble Tea program starts so
	// the OSC 11 reply cannot race with the input loop.
	//
	// See: https://github.com/charmbracelet/bubbletea/issues/1036
	_ = lipgloss.HasDarkBackground()
}

var (
	version = "dev"
	cfgFile string
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:   "tmstyle",
	Short: "TextMate-style syntax highlighting for the terminal",
	Long: `tmstyle resolves TextMate theme rules against grammar scope stacks and
prints syntax-highlighted source to the terminal.

Themes come from chroma's built-in styles and from VS Code / TextMate theme
files (JSON, YAML, TOML) in the configured theme directories.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/tmstyle/config.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "write debug logs to the log file")
	rootCmd.PersistentFlags().String("color-profile", "",
		"terminal color profile: auto, truecolor, ansi256, ansi, ascii")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("color_profile", rootCmd.PersistentFlags().Lookup("color-profile"))
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("theme", defaults.Theme)
	viper.SetDefault("theme_dirs", defaults.ThemeDirs)
	viper.SetDefault("tokenize_timeout", defaults.TokenizeTimeout)
	viper.SetDefault("line_numbers", defaults.LineNumbers)
	viper.SetDefault("color_profile", defaults.ColorProfile)
	viper.SetDefault("log_file", defaults.LogFile)
	viper.SetDefault("log_level", defaults.LogLevel)
	viper.SetDefault("watch.enabled", defaults.Watch.Enabled)
	viper.SetDefault("watch.debounce", defaults.Watch.Debounce)
	viper.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.file_path", config.DefaultTracesFilePath())
	viper.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)
	viper.SetDefault("tracing.service_name", defaults.Tracing.ServiceName)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .tmstyle/config.yaml (current directory)
		// 2. ~/.config/tmstyle/config.yaml (user config)
		if _, err := os.Stat(".tmstyle/config.yaml"); err == nil {
			viper.SetConfigFile(".tmstyle/config.yaml")
		} else {
			viper.AddConfigPath(config.DefaultConfigDir())
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		// No config file anywhere: create the user default.
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && config.DefaultConfigDir() != "" {
			defaultPath := filepath.Join(config.DefaultConfigDir(), "config.yaml")
			if writeErr := config.WriteDefaultConfig(defaultPath); writeErr == nil {
				viper.SetConfigFile(defaultPath)
				_ = viper.ReadInConfig()
			}
		}
	}

	_ = viper.Unmarshal(&cfg)
}

func setupLogging(cmd *cobra.Command, _ []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if !cfg.Debug || cmd == previewCmd {
		// preview sets up Bubble Tea's logger itself.
		return nil
	}
	cleanup, err := log.Init(cfg.LogFile)
	if err != nil {
		return err
	}
	cobra.OnFinalize(cleanup)
	applyLogFilters(cfg)
	log.Info(log.CatConfig, "config loaded", "file", viper.ConfigFileUsed(), "theme", cfg.Theme)
	return nil
}

// applyLogFilters narrows the logger to the configured level and
// categories. Validate has already rejected unknown categories.
func applyLogFilters(c config.Config) {
	log.SetMinLevel(log.ParseLevel(c.LogLevel))
	cats, _ := log.ParseCategories(c.LogCategories)
	log.SetCategories(cats...)
}

// configFilePath is where "s" in the preview saves the theme.
func configFilePath() string {
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	if dir := config.DefaultConfigDir(); dir != "" {
		return filepath.Join(dir, "config.yaml")
	}
	return ""
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
