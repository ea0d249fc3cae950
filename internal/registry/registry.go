// Package registry holds the grammars and the active theme shared by every
// style provider. Replacing the theme publishes a ThemeChangedEvent so
// providers and the preview can pick it up.
package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/zjrosen/tmstyle/internal/grammar"
	"github.com/zjrosen/tmstyle/internal/log"
	"github.com/zjrosen/tmstyle/internal/pubsub"
	"github.com/zjrosen/tmstyle/internal/theme"
)

// Change is the payload of registry events. Theme is set for
// ThemeChangedEvent, Grammar for GrammarAddedEvent.
type Change struct {
	Theme   theme.Theme
	Grammar string
}

// Registry is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	grammars map[string]grammar.Grammar
	active   theme.Theme
	broker   *pubsub.Broker[Change]
}

// New creates an empty registry with no active theme.
func New() *Registry {
	return &Registry{
		grammars: make(map[string]grammar.Grammar),
		broker:   pubsub.NewBroker[Change](pubsub.WithName("registry")),
	}
}

// AddGrammar loads src and stores the grammar under its scope name. An
// already registered scope name returns the existing grammar.
func (r *Registry) AddGrammar(src grammar.Source) (grammar.Grammar, error) {
	g, err := src.Load()
	if err != nil {
		return nil, fmt.Errorf("loading grammar %s: %w", src.Name(), err)
	}

	r.mu.Lock()
	if existing, ok := r.grammars[g.ScopeName()]; ok {
		r.mu.Unlock()
		return existing, nil
	}
	r.grammars[g.ScopeName()] = g
	r.mu.Unlock()

	log.Debug(log.CatRegistry, "grammar added", "scope", g.ScopeName(), "source", src.Name())
	r.broker.Publish(pubsub.GrammarAddedEvent, Change{Grammar: g.ScopeName()})
	return g, nil
}

// Grammar returns the grammar registered under scopeName.
func (r *Registry) Grammar(scopeName string) (grammar.Grammar, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.grammars[scopeName]
	return g, ok
}

// GrammarScopes lists registered scope names, sorted.
func (r *Registry) GrammarScopes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.grammars))
	for name := range r.grammars {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// SetTheme makes t the active theme and notifies subscribers. Setting the
// theme that is already active is a no-op.
func (r *Registry) SetTheme(t theme.Theme) {
	r.mu.Lock()
	if theme.Same(r.active, t) {
		r.mu.Unlock()
		return
	}
	r.active = t
	r.mu.Unlock()

	name := ""
	if t != nil {
		name = t.Name()
	}
	log.Info(log.CatRegistry, "active theme changed", "theme", name)
	r.broker.Publish(pubsub.ThemeChangedEvent, Change{Theme: t})
}

// LoadTheme loads src and makes it the active theme. On error the active
// theme is unchanged.
func (r *Registry) LoadTheme(src theme.Source) (theme.Theme, error) {
	t, err := src.Load()
	if err != nil {
		return nil, fmt.Errorf("loading theme %s: %w", src.Name(), err)
	}
	r.SetTheme(t)
	return t, nil
}

// Theme returns the active theme, or nil.
func (r *Registry) Theme() theme.Theme {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// Subscribe returns a channel of registry changes for the lifetime of ctx.
func (r *Registry) Subscribe(ctx context.Context) <-chan pubsub.Event[Change] {
	return r.broker.Subscribe(ctx)
}

// Close closes every subscription.
func (r *Registry) Close() {
	r.broker.Close()
}
