// Package preview is a Bubble Tea viewer for one highlighted file. Themes
// are cycled through the shared registry, so every provider bound to it
// follows along, and the file and user theme files reload on change.
package preview

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/zjrosen/tmstyle/internal/config"
	"github.com/zjrosen/tmstyle/internal/document"
	"github.com/zjrosen/tmstyle/internal/log"
	"github.com/zjrosen/tmstyle/internal/pubsub"
	"github.com/zjrosen/tmstyle/internal/registry"
	"github.com/zjrosen/tmstyle/internal/render"
	"github.com/zjrosen/tmstyle/internal/theme"
	"github.com/zjrosen/tmstyle/internal/watcher"
)

// Options wires the preview to its collaborators. ThemeKey is the catalog
// key of the active theme. ConfigPath enables saving the active theme with
// "s". Watcher is optional; the preview subscribes to it but does not own
// it. Renderer defaults to lipgloss' default renderer.
type Options struct {
	Path        string
	Highlighter *document.Highlighter
	Catalog     theme.Catalog
	ThemeKey    string
	ThemeDirs   []string
	LineNumbers bool
	ConfigPath  string
	Watcher     *watcher.Watcher
	Renderer    *lipgloss.Renderer
}

// Model is the preview state.
type Model struct {
	opts     Options
	registry *registry.Registry
	catalog  theme.Catalog
	themeKey string

	ctx           context.Context
	cancel        context.CancelFunc
	themeListener *pubsub.ContinuousListener[registry.Change]
	watchListener *pubsub.ContinuousListener[watcher.Event]
	viewport      viewport.Model
	width, height int
	ready         bool
	content       string
	doc           document.Document
	status        string
	err           error
}

// New reads and highlights the file. A read error is shown in the status
// line instead of failing.
func New(opts Options) Model {
	if opts.Renderer == nil {
		opts.Renderer = lipgloss.DefaultRenderer()
	}
	ctx, cancel := context.WithCancel(context.Background())
	reg := opts.Highlighter.Provider().Registry()

	m := Model{
		opts:          opts,
		registry:      reg,
		catalog:       opts.Catalog,
		themeKey:      opts.ThemeKey,
		ctx:           ctx,
		cancel:        cancel,
		themeListener: pubsub.NewContinuousListener[registry.Change](ctx, reg, pubsub.ThemeChangedEvent),
	}
	if opts.Watcher != nil {
		m.watchListener = pubsub.NewContinuousListener[watcher.Event](ctx, opts.Watcher.Broker())
	}
	m.reload()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.themeListener.Listen()}
	if m.watchListener != nil {
		cmds = append(cmds, m.watchListener.Listen())
	}
	return tea.Batch(cmds...)
}

// Close releases the subscriptions.
func (m Model) Close() {
	m.cancel()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		height := max(m.height-1, 1)
		if !m.ready {
			m.viewport = viewport.New(m.width, height)
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = height
		}
		m.rerender()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.cancel()
			return m, tea.Quit
		case "t":
			m.cycleTheme(1)
			return m, nil
		case "T":
			m.cycleTheme(-1)
			return m, nil
		case "s":
			m.saveTheme()
			return m, nil
		case "r":
			m.reload()
			return m, nil
		}

	case pubsub.Event[registry.Change]:
		if msg.Type == pubsub.ThemeChangedEvent {
			log.Debug(log.CatUI, "theme changed, re-highlighting", "theme", themeName(msg.Payload.Theme))
			m.highlight()
		}
		return m, m.themeListener.Listen()

	case pubsub.Event[watcher.Event]:
		switch msg.Type {
		case pubsub.FilesChangedEvent:
			m.handleFilesChanged(msg.Payload.Paths)
		case pubsub.WatchErrorEvent:
			m.setError(fmt.Errorf("watching files: %w", msg.Payload.Err))
		}
		if m.watchListener == nil {
			return m, nil
		}
		return m, m.watchListener.Listen()
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "loading…"
	}
	return m.viewport.View() + "\n" + m.statusLine()
}

func (m *Model) cycleTheme(step int) {
	if m.catalog.Len() == 0 {
		return
	}
	idx := m.catalog.IndexOf(m.themeKey)
	if idx < 0 && step < 0 {
		idx = 0
	}
	def := m.catalog.At(idx + step)
	t, err := def.Load()
	if err != nil {
		m.setError(fmt.Errorf("loading theme %s: %w", def.Key, err))
		return
	}
	m.themeKey = def.Key
	m.err = nil
	m.status = fmt.Sprintf("theme %s", def.DisplayName)
	// The registry publishes the change; the listener re-highlights.
	m.registry.SetTheme(t)
}

func (m *Model) saveTheme() {
	if m.opts.ConfigPath == "" {
		m.setError(fmt.Errorf("no config file to save to"))
		return
	}
	if err := config.SaveTheme(m.opts.ConfigPath, m.themeKey); err != nil {
		m.setError(err)
		return
	}
	m.err = nil
	m.status = fmt.Sprintf("saved theme %s to %s", m.themeKey, m.opts.ConfigPath)
}

func (m *Model) handleFilesChanged(paths []string) {
	docPath := filepath.Clean(m.opts.Path)
	themesChanged := false
	for _, p := range paths {
		if p != docPath {
			themesChanged = true
		}
	}

	if themesChanged {
		m.reloadThemes(paths)
	}
	if slices.Contains(paths, docPath) {
		m.reload()
	}
}

func (m *Model) reloadThemes(paths []string) {
	catalog, err := theme.LoadCatalog(m.opts.ThemeDirs)
	if err != nil {
		m.setError(err)
	}
	m.catalog = catalog

	def, ok := catalog.Get(m.themeKey)
	if !ok || def.Origin != theme.OriginUser || !slices.Contains(paths, filepath.Clean(def.Path)) {
		return
	}
	t, err := def.Load()
	if err != nil {
		m.setError(fmt.Errorf("reloading theme %s: %w", def.Key, err))
		return
	}
	m.status = fmt.Sprintf("reloaded theme %s", def.DisplayName)
	m.registry.SetTheme(t)
}

func (m *Model) reload() {
	data, err := os.ReadFile(m.opts.Path)
	if err != nil {
		m.setError(fmt.Errorf("reading %s: %w", m.opts.Path, err))
		return
	}
	m.content = string(data)
	m.highlight()
}

func (m *Model) highlight() {
	doc, err := m.opts.Highlighter.Highlight(m.ctx, m.opts.Path, m.content)
	if err != nil {
		m.setError(err)
		return
	}
	m.doc = doc
	m.rerender()
}

func (m *Model) rerender() {
	if !m.ready {
		return
	}
	rd := render.New(m.doc.Settings, render.Options{
		LineNumbers: m.opts.LineNumbers,
		Width:       m.width,
		Renderer:    m.opts.Renderer,
	})
	m.viewport.SetContent(rd.Document(m.doc))
	m.viewport.Style = rd.Base()
}

func (m *Model) setError(err error) {
	log.ErrorErr(log.CatUI, "preview error", err)
	m.err = err
}

// statusLine puts the message right after the file and theme so that
// truncation on narrow terminals cuts the position details first.
func (m Model) statusLine() string {
	parts := []string{filepath.Base(m.opts.Path)}
	if def, ok := m.catalog.Get(m.themeKey); ok {
		parts = append(parts, fmt.Sprintf("%s (%d/%d)", def.DisplayName, m.catalog.IndexOf(def.Key)+1, m.catalog.Len()))
	} else if m.doc.Theme != "" {
		parts = append(parts, m.doc.Theme)
	}

	switch {
	case m.err != nil:
		parts = append(parts, "error: "+m.err.Error())
	case m.status != "":
		parts = append(parts, m.status)
	}

	if m.doc.Grammar != "" {
		parts = append(parts, m.doc.Grammar)
	}
	parts = append(parts, fmt.Sprintf("%d lines", len(m.doc.Lines)))
	if m.ready {
		parts = append(parts, fmt.Sprintf("%3.f%%", m.viewport.ScrollPercent()*100))
	}

	line := strings.Join(parts, " · ")
	if m.width > 0 {
		line = ansi.Truncate(line, m.width, "…")
	}
	return m.opts.Renderer.NewStyle().Reverse(true).Render(line)
}

// Document returns the last highlighted document.
func (m Model) Document() document.Document { return m.doc }

// ThemeKey returns the catalog key of the active theme.
func (m Model) ThemeKey() string { return m.themeKey }

// Err returns the last error shown in the status line.
func (m Model) Err() error { return m.err }

func themeName(t theme.Theme) string {
	if t == nil {
		return ""
	}
	return t.Name()
}
