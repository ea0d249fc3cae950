package registry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/tmstyle/internal/grammar"
	"github.com/zjrosen/tmstyle/internal/pubsub"
	"github.com/zjrosen/tmstyle/internal/theme"
)

type failingThemeSource struct{}

func (failingThemeSource) Name() string               { return "broken" }
func (failingThemeSource) Load() (theme.Theme, error) { return nil, errors.New("boom") }

func newTheme(name string) *theme.TextMateTheme {
	return theme.NewTextMateTheme(name, nil, nil, nil)
}

func TestRegistry_SetThemePublishes(t *testing.T) {
	reg := New()
	t.Cleanup(reg.Close)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	ch := reg.Subscribe(ctx)

	th := newTheme("one")
	reg.SetTheme(th)
	require.Same(t, th, reg.Theme())

	select {
	case ev := <-ch:
		require.Equal(t, pubsub.ThemeChangedEvent, ev.Type)
		require.Same(t, th, ev.Payload.Theme)
	case <-time.After(time.Second):
		t.Fatal("no theme event")
	}
}

func TestRegistry_SetSameThemeIsNoop(t *testing.T) {
	reg := New()
	t.Cleanup(reg.Close)

	th := newTheme("one")
	reg.SetTheme(th)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	ch := reg.Subscribe(ctx)

	reg.SetTheme(th)
	require.Empty(t, pubsub.Drain(ch))
}

// taggedTheme is held by value and its dynamic type cannot be compared with ==.
type taggedTheme struct {
	theme.Theme
	tags []string
}

func TestRegistry_SetUncomparableValueTheme(t *testing.T) {
	reg := New()
	t.Cleanup(reg.Close)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	ch := reg.Subscribe(ctx)

	a := taggedTheme{Theme: newTheme("one"), tags: []string{"a"}}
	b := taggedTheme{Theme: a.Theme, tags: []string{"b"}}

	require.NotPanics(t, func() { reg.SetTheme(a) })
	require.NotPanics(t, func() { reg.SetTheme(b) })
	require.NotPanics(t, func() { reg.SetTheme(b) })

	require.Equal(t, b, reg.Theme())
	require.Len(t, pubsub.Drain(ch), 2, "an equal value theme is a no-op")
}

func TestRegistry_LoadTheme(t *testing.T) {
	reg := New()
	t.Cleanup(reg.Close)

	loaded, err := reg.LoadTheme(theme.ChromaSource{Style: "monokai"})
	require.NoError(t, err)
	require.Same(t, loaded, reg.Theme())

	_, err = reg.LoadTheme(failingThemeSource{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "broken")
	require.Same(t, loaded, reg.Theme(), "failed load keeps the active theme")
}

func TestRegistry_AddGrammar(t *testing.T) {
	reg := New()
	t.Cleanup(reg.Close)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	ch := reg.Subscribe(ctx)

	g, err := reg.AddGrammar(grammar.Language("go"))
	require.NoError(t, err)

	again, err := reg.AddGrammar(grammar.Language("golang"))
	require.NoError(t, err)
	require.Same(t, g, again, "same scope name reuses the registered grammar")

	got, ok := reg.Grammar("source.go")
	require.True(t, ok)
	require.Same(t, g, got)
	require.Equal(t, []string{"source.go"}, reg.GrammarScopes())

	require.Eventually(t, func() bool { return len(ch) == 1 }, time.Second, 10*time.Millisecond)
	events := pubsub.Drain(ch)
	require.Len(t, events, 1)
	require.Equal(t, pubsub.GrammarAddedEvent, events[0].Type)
	require.Equal(t, "source.go", events[0].Payload.Grammar)

	_, err = reg.AddGrammar(grammar.Language("nope-lang"))
	require.ErrorIs(t, err, grammar.ErrUnknownLanguage)
}

func TestRegistry_CloseEndsSubscriptions(t *testing.T) {
	reg := New()
	ch := reg.Subscribe(context.Background())

	reg.Close()

	_, ok := <-ch
	require.False(t, ok)
	reg.SetTheme(newTheme("after-close"))
}
