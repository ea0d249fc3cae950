package cmd

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/zjrosen/tmstyle/internal/config"
	"github.com/zjrosen/tmstyle/internal/log"
	"github.com/zjrosen/tmstyle/internal/preview"
	"github.com/zjrosen/tmstyle/internal/watcher"
)

var previewCmd = &cobra.Command{
	Use:   "preview <file>",
	Short: "Browse a highlighted file and switch themes live",
	Long: `Open a full-screen viewer for a highlighted file.

Keys:
  t / T   next / previous theme
  s       save the active theme to the config file
  r       reload the file
  q       quit

The file and the theme directories are watched; edits to either are picked up
without restarting.`,
	Args: cobra.ExactArgs(1),
	RunE: runPreview,
}

func init() {
	previewCmd.Flags().StringP("theme", "t", "", "theme key or name")
	previewCmd.Flags().StringP("language", "l", "", "language name or alias")
	previewCmd.Flags().BoolP("line-numbers", "n", false, "prefix lines with their number")
	rootCmd.AddCommand(previewCmd)
}

func runPreview(cmd *cobra.Command, args []string) error {
	path := args[0]
	c := cfg
	applyPreviewFlags(cmd, &c)

	if c.Debug {
		cleanup, err := log.InitWithTeaLog(c.LogFile, "tmstyle")
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer cleanup()
		applyLogFilters(c)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	s, err := newSession(c, path, string(data), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	var w *watcher.Watcher
	if c.Watch.Enabled {
		wcfg := watcher.DefaultConfig(path)
		wcfg.Dirs = c.ThemeDirectories()
		if c.Watch.Debounce > 0 {
			wcfg.DebounceDur = c.Watch.Debounce
		}
		w, err = watcher.New(wcfg)
		if err == nil {
			err = w.Start()
		}
		if err != nil {
			// Preview still works without live reload.
			log.Warn(log.CatWatcher, "file watching disabled", "error", err)
			if w != nil {
				_ = w.Stop()
			}
			w = nil
		} else {
			defer func() { _ = w.Stop() }()
		}
	}

	model := preview.New(preview.Options{
		Path:        path,
		Highlighter: s.highlighter,
		Catalog:     s.catalog,
		ThemeKey:    s.themeKey,
		ThemeDirs:   c.ThemeDirectories(),
		LineNumbers: c.LineNumbers,
		ConfigPath:  configFilePath(),
		Watcher:     w,
	})
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err = p.Run()
	return err
}

// applyPreviewFlags layers explicitly set flags over the loaded config.
// The flags share names with highlight's, so they are not bound to viper.
func applyPreviewFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("theme") {
		c.Theme, _ = flags.GetString("theme")
	}
	if flags.Changed("language") {
		c.Language, _ = flags.GetString("language")
	}
	if flags.Changed("line-numbers") {
		c.LineNumbers, _ = flags.GetBool("line-numbers")
	}
}
