package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/tmstyle/internal/config"
	"github.com/zjrosen/tmstyle/internal/render"
)

var highlightCmd = &cobra.Command{
	Use:   "highlight [file]",
	Short: "Print a syntax-highlighted file",
	Long: `Print a file with every token styled by the active theme.

Reads standard input when no file is given. The language is detected from the
file name and content unless --language is set.

Examples:
  tmstyle highlight main.go
  tmstyle highlight --theme dracula --line-numbers main.go
  cat query.sql | tmstyle highlight -l sql`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		}
		return runHighlight(cmd.Context(), cfg, path, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

func init() {
	highlightCmd.Flags().StringP("theme", "t", "", "theme key or name")
	highlightCmd.Flags().StringP("language", "l", "", "language name or alias")
	highlightCmd.Flags().BoolP("line-numbers", "n", false, "prefix lines with their number")
	highlightCmd.Flags().Duration("timeout", 0, "per-line tokenization timeout")

	_ = viper.BindPFlag("theme", highlightCmd.Flags().Lookup("theme"))
	_ = viper.BindPFlag("language", highlightCmd.Flags().Lookup("language"))
	_ = viper.BindPFlag("line_numbers", highlightCmd.Flags().Lookup("line-numbers"))
	_ = viper.BindPFlag("tokenize_timeout", highlightCmd.Flags().Lookup("timeout"))
	rootCmd.AddCommand(highlightCmd)
}

func runHighlight(ctx context.Context, c config.Config, path string, in io.Reader, out, errOut io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var (
		data []byte
		err  error
	)
	name := path
	if path == "" {
		name = "stdin"
		data, err = io.ReadAll(in)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", name, err)
	}
	content := string(data)

	s, err := newSession(c, path, content, errOut)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	doc, err := s.highlighter.Highlight(ctx, name, content)
	if err != nil {
		return err
	}

	rd := render.New(doc.Settings, render.Options{
		LineNumbers: c.LineNumbers,
		Renderer:    newRenderer(out, c.ColorProfile),
	})
	if _, err := fmt.Fprintln(out, rd.Document(doc)); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}
