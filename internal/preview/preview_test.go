package preview

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/tmstyle/internal/document"
	"github.com/zjrosen/tmstyle/internal/grammar"
	"github.com/zjrosen/tmstyle/internal/provider"
	"github.com/zjrosen/tmstyle/internal/pubsub"
	"github.com/zjrosen/tmstyle/internal/registry"
	"github.com/zjrosen/tmstyle/internal/style"
	"github.com/zjrosen/tmstyle/internal/theme"
	"github.com/zjrosen/tmstyle/internal/watcher"
)

const goSource = "package main\n\nfunc main() {\n\tprintln(\"hi\")\n}\n"

const userTheme = `
name: Paper
settings:
  - settings:
      background: "#FAFAFA"
      foreground: "#383A42"
  - scope: keyword
    settings:
      foreground: "#A626A4"
`

type fixture struct {
	path     string
	themeDir string
	reg      *registry.Registry
	catalog  theme.Catalog
	opts     Options
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "main.go")
	require.NoError(t, os.WriteFile(path, []byte(goSource), 0o644))

	themeDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(themeDir, "paper.yaml"), []byte(userTheme), 0o644))
	catalog, err := theme.LoadCatalog([]string{themeDir})
	require.NoError(t, err)

	reg := registry.New()
	t.Cleanup(reg.Close)
	_, err = reg.LoadTheme(theme.ChromaSource{Style: "monokai"})
	require.NoError(t, err)

	p := provider.New(reg)
	t.Cleanup(p.Close)
	_, err = p.SetGrammarSource(grammar.ForFile(path, goSource))
	require.NoError(t, err)

	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(termenv.TrueColor)

	return &fixture{
		path:     path,
		themeDir: themeDir,
		reg:      reg,
		catalog:  catalog,
		opts: Options{
			Path:        path,
			Highlighter: document.NewHighlighter(p, nil),
			Catalog:     catalog,
			ThemeKey:    "monokai",
			ThemeDirs:   []string{themeDir},
			LineNumbers: true,
			Renderer:    r,
		},
	}
}

func (f *fixture) model(t *testing.T) Model {
	t.Helper()
	m := New(f.opts)
	t.Cleanup(m.Close)
	return m
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func themeChanged(t theme.Theme) pubsub.Event[registry.Change] {
	return pubsub.Event[registry.Change]{Type: pubsub.ThemeChangedEvent, Payload: registry.Change{Theme: t}}
}

func TestNew_HighlightsFile(t *testing.T) {
	f := newFixture(t)
	m := f.model(t)

	require.NoError(t, m.Err())
	doc := m.Document()
	require.Equal(t, "monokai", doc.Theme)
	require.Equal(t, "source.go", doc.Grammar)
	require.Len(t, doc.Lines, 5)
	require.Equal(t, "loading…", m.View())
	require.NotNil(t, m.Init())
}

func TestUpdate_WindowSizeRendersDocument(t *testing.T) {
	f := newFixture(t)
	m, _ := update(t, f.model(t), tea.WindowSizeMsg{Width: 40, Height: 10})

	view := ansi.Strip(m.View())
	require.Contains(t, view, "1 package main")
	require.Contains(t, view, "main.go")
	require.Contains(t, view, "source.go")
	for _, line := range strings.Split(m.View(), "\n") {
		require.LessOrEqual(t, ansi.StringWidth(line), 40)
	}
}

func TestUpdate_CycleThemeThroughRegistry(t *testing.T) {
	f := newFixture(t)
	m, _ := update(t, f.model(t), tea.WindowSizeMsg{Width: 60, Height: 10})

	want := f.catalog.At(f.catalog.IndexOf("monokai") + 1)
	m, _ = update(t, m, key("t"))
	require.Equal(t, want.Key, m.ThemeKey())
	require.Equal(t, want.DisplayName, f.reg.Theme().Name())

	// The registry announced the change on the subscription.
	msg := m.themeListener.Listen()()
	ev, ok := msg.(pubsub.Event[registry.Change])
	require.True(t, ok)
	require.Equal(t, pubsub.ThemeChangedEvent, ev.Type)

	m, cmd := update(t, m, ev)
	require.NotNil(t, cmd, "keeps listening")
	require.Equal(t, want.DisplayName, m.Document().Theme)

	m, _ = update(t, m, key("T"))
	require.Equal(t, "monokai", m.ThemeKey())
}

func TestStatusLine_MessageSurvivesNarrowWidth(t *testing.T) {
	f := newFixture(t)
	m, _ := update(t, f.model(t), tea.WindowSizeMsg{Width: 60, Height: 10})

	m, _ = update(t, m, key("t"))
	def, ok := f.catalog.Get(m.ThemeKey())
	require.True(t, ok)

	status := ansi.Strip(m.statusLine())
	require.LessOrEqual(t, ansi.StringWidth(status), 60)
	require.Contains(t, status, "main.go · "+def.DisplayName)
	require.Contains(t, status, "theme "+def.DisplayName)
	require.Less(t, strings.Index(status, "theme "+def.DisplayName), strings.Index(status+"source.go", "source.go"),
		"the message comes before the grammar")
}

func TestUpdate_CycleBackwardWraps(t *testing.T) {
	f := newFixture(t)
	f.opts.ThemeKey = f.catalog.At(0).Key
	m := f.model(t)

	m, _ = update(t, m, key("T"))
	last := f.catalog.At(-1)
	require.Equal(t, last.Key, m.ThemeKey())
	require.Equal(t, theme.OriginUser, last.Origin, "user themes sort after builtins")
	require.Equal(t, "Paper", f.reg.Theme().Name())
}

func TestUpdate_SaveTheme(t *testing.T) {
	f := newFixture(t)
	m := f.model(t)

	m, _ = update(t, m, key("s"))
	require.ErrorContains(t, m.Err(), "no config file")

	f.opts.ConfigPath = filepath.Join(t.TempDir(), "config.yaml")
	m = f.model(t)
	m, _ = update(t, m, key("t"))
	m, _ = update(t, m, key("s"))
	require.NoError(t, m.Err())

	data, err := os.ReadFile(f.opts.ConfigPath)
	require.NoError(t, err)
	require.Contains(t, string(data), "theme: "+m.ThemeKey())
}

func TestUpdate_DocumentChanged(t *testing.T) {
	f := newFixture(t)
	m, _ := update(t, f.model(t), tea.WindowSizeMsg{Width: 60, Height: 10})

	require.NoError(t, os.WriteFile(f.path, []byte("package other\n"), 0o644))
	m, _ = update(t, m, pubsub.Event[watcher.Event]{
		Type:    pubsub.FilesChangedEvent,
		Payload: watcher.Event{Paths: []string{f.path}},
	})

	require.Len(t, m.Document().Lines, 1)
	require.Contains(t, ansi.Strip(m.View()), "package other")
}

func TestUpdate_UserThemeReloaded(t *testing.T) {
	f := newFixture(t)
	def, ok := f.catalog.Lookup("Paper")
	require.True(t, ok)
	f.opts.ThemeKey = def.Key
	th, err := def.Load()
	require.NoError(t, err)
	f.reg.SetTheme(th)
	m := f.model(t)

	edited := strings.Replace(userTheme, "#FAFAFA", "#FFF8E7", 1)
	require.NoError(t, os.WriteFile(def.Path, []byte(edited), 0o644))
	m, _ = update(t, m, pubsub.Event[watcher.Event]{
		Type:    pubsub.FilesChangedEvent,
		Payload: watcher.Event{Paths: []string{filepath.Clean(def.Path)}},
	})
	require.NoError(t, m.Err())

	reloaded := f.reg.Theme()
	require.NotSame(t, th, reloaded)
	require.Equal(t, "#FFF8E7", style.FromTheme(reloaded).BackgroundColor())

	m, _ = update(t, m, themeChanged(reloaded))
	require.Equal(t, "#FFF8E7", m.Document().Settings.BackgroundColor())
}

func TestUpdate_WatchError(t *testing.T) {
	f := newFixture(t)
	m := f.model(t)

	m, _ = update(t, m, pubsub.Event[watcher.Event]{
		Type:    pubsub.WatchErrorEvent,
		Payload: watcher.Event{Err: os.ErrPermission},
	})
	require.ErrorIs(t, m.Err(), os.ErrPermission)
}

func TestUpdate_ReadErrorShown(t *testing.T) {
	f := newFixture(t)
	f.opts.Path = filepath.Join(t.TempDir(), "missing.go")
	m, _ := update(t, f.model(t), tea.WindowSizeMsg{Width: 200, Height: 5})

	require.Error(t, m.Err())
	require.Contains(t, ansi.Strip(m.View()), "error: reading")
}

func TestUpdate_Quit(t *testing.T) {
	f := newFixture(t)
	m := f.model(t)

	_, cmd := update(t, m, key("q"))
	require.NotNil(t, cmd)
	require.IsType(t, tea.QuitMsg{}, cmd())
}
