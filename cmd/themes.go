package cmd

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/zjrosen/tmstyle/internal/config"
	"github.com/zjrosen/tmstyle/internal/render"
	"github.com/zjrosen/tmstyle/internal/style"
	"github.com/zjrosen/tmstyle/internal/theme"
)

var themesCmd = &cobra.Command{
	Use:   "themes",
	Short: "List available themes",
	Long: `List chroma's built-in styles followed by the theme files found in the
configured theme directories. The KEY column is what --theme and the theme
config key accept; display names work too.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runThemes(cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

func init() {
	rootCmd.AddCommand(themesCmd)
}

func runThemes(c config.Config, out, errOut io.Writer) error {
	catalog, err := theme.LoadCatalog(c.ThemeDirectories())
	if err != nil {
		_, _ = fmt.Fprintf(errOut, "warning: %v\n", err)
	}

	r := newRenderer(out, c.ColorProfile)
	t := table.New().
		Border(lipgloss.HiddenBorder()).
		Headers("KEY", "NAME", "ORIGIN", "BACKGROUND", "SOURCE")

	for _, def := range catalog.All() {
		source := def.Path
		if source == "" {
			source = "chroma"
		}
		t.Row(def.Key, def.DisplayName, string(def.Origin), swatch(r, def), source)
	}

	_, err = fmt.Fprintln(out, t.String())
	return err
}

// swatch renders the theme's background color on itself.
func swatch(r *lipgloss.Renderer, def theme.Definition) string {
	th, err := def.Load()
	if err != nil {
		return "?"
	}
	bg, ok := render.NormalizeColor(style.FromTheme(th).BackgroundColor(), "#000000")
	if !ok {
		return "?"
	}
	fg, _ := render.NormalizeColor(style.FromTheme(th).ForegroundColor(), bg)
	return r.NewStyle().
		Background(lipgloss.Color(bg)).
		Foreground(lipgloss.Color(fg)).
		Render(bg)
}
