package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/zjrosen/tmstyle/internal/config"
	"github.com/zjrosen/tmstyle/internal/document"
	"github.com/zjrosen/tmstyle/internal/grammar"
	"github.com/zjrosen/tmstyle/internal/log"
	"github.com/zjrosen/tmstyle/internal/provider"
	"github.com/zjrosen/tmstyle/internal/registry"
	"github.com/zjrosen/tmstyle/internal/theme"
	"github.com/zjrosen/tmstyle/internal/tracing"
)

// session is everything one command needs to highlight a file.
type session struct {
	registry    *registry.Registry
	provider    *provider.Provider
	highlighter *document.Highlighter
	catalog     theme.Catalog
	themeKey    string
	tracer      *tracing.Provider
}

// newSession loads the catalog and the configured theme, picks a grammar
// for path and content, and starts tracing. Catalog errors for individual
// theme files are reported on warn and do not fail the session.
func newSession(c config.Config, path, content string, warn io.Writer) (*session, error) {
	catalog, err := theme.LoadCatalog(c.ThemeDirectories())
	if err != nil {
		log.Warn(log.CatTheme, "some themes failed to load", "error", err)
		if warn != nil {
			_, _ = fmt.Fprintf(warn, "warning: %v\n", err)
		}
	}

	def, ok := catalog.Lookup(c.Theme)
	if !ok {
		return nil, fmt.Errorf("theme %q (run 'tmstyle themes' to list themes): %w", c.Theme, theme.ErrUnknownTheme)
	}

	reg := registry.New()
	if _, err := reg.LoadTheme(def.Source); err != nil {
		reg.Close()
		return nil, err
	}

	p := provider.New(reg, provider.WithTimeout(c.TokenizeTimeout))
	src := grammar.ForFile(path, content)
	if c.Language != "" {
		src = grammar.Language(c.Language)
	}
	if _, err := p.SetGrammarSource(src); err != nil {
		p.Close()
		reg.Close()
		return nil, err
	}

	tp, err := tracing.NewProvider(c.Tracing.ProviderConfig())
	if err != nil {
		p.Close()
		reg.Close()
		return nil, fmt.Errorf("starting tracing: %w", err)
	}

	return &session{
		registry:    reg,
		provider:    p,
		highlighter: document.NewHighlighter(p, tp.Tracer()),
		catalog:     catalog,
		themeKey:    def.Key,
		tracer:      tp,
	}, nil
}

// Close flushes traces and releases the registry.
func (s *session) Close() error {
	s.provider.Close()
	s.registry.Close()
	return s.tracer.Shutdown(context.Background())
}

// colorProfile maps a config name to a termenv profile. "auto" and ""
// report false so the renderer detects the terminal.
func colorProfile(name string) (termenv.Profile, bool) {
	switch strings.ToLower(name) {
	case "truecolor":
		return termenv.TrueColor, true
	case "ansi256":
		return termenv.ANSI256, true
	case "ansi":
		return termenv.ANSI, true
	case "ascii":
		return termenv.Ascii, true
	default:
		return termenv.Ascii, false
	}
}

func newRenderer(w io.Writer, profile string) *lipgloss.Renderer {
	r := lipgloss.NewRenderer(w)
	if p, ok := colorProfile(profile); ok {
		r.SetColorProfile(p)
	}
	return r
}
