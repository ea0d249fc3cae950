// Package provider turns lines of text into styled tokens. A Provider owns
// one tokenization session: it feeds each line to the grammar together with
// the continuation state of the previous line, resolves every token's scope
// stack against the active theme, and caches the resulting styles.
//
// A Provider is not safe for concurrent use. The registry it reads the
// active theme from is, so several providers may share one.
package provider

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/zjrosen/tmstyle/internal/grammar"
	"github.com/zjrosen/tmstyle/internal/log"
	"github.com/zjrosen/tmstyle/internal/pubsub"
	"github.com/zjrosen/tmstyle/internal/registry"
	"github.com/zjrosen/tmstyle/internal/style"
	"github.com/zjrosen/tmstyle/internal/theme"
)

// DefaultTokenizationTimeout bounds the time spent tokenizing one line.
const DefaultTokenizationTimeout = time.Second

// Stats counts provider activity since creation. Tokens counts styled
// tokens handed out; Resolutions counts styles computed from the theme,
// which excludes those served from the cache.
type Stats struct {
	Tokens      int
	Resolutions int
	CacheHits   int
	CacheMisses int
	CacheSize   int
	Flushes     int
	Timeouts    int
}

// Option configures a Provider.
type Option func(*Provider)

// WithTimeout sets the per-line tokenization timeout.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) {
		p.SetTokenizationTimeout(d)
	}
}

// Provider resolves styled tokens for one document at a time.
type Provider struct {
	id       string
	reg      *registry.Registry
	grammar  grammar.Grammar
	theme    theme.Theme
	settings *style.ThemeSettings
	session  *session
	timeout  time.Duration

	events <-chan pubsub.Event[registry.Change]
	cancel context.CancelFunc

	tokens      int
	resolutions int
	flushes     int
	timeouts    int
}

// New creates a provider bound to reg. It adopts reg's active theme and
// follows later changes to it. A nil reg gets a private registry.
func New(reg *registry.Registry, opts ...Option) *Provider {
	if reg == nil {
		reg = registry.New()
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &Provider{
		id:      uuid.NewString(),
		reg:     reg,
		theme:   reg.Theme(),
		session: newSession(),
		timeout: DefaultTokenizationTimeout,
		events:  reg.Subscribe(ctx),
		cancel:  cancel,
	}
	for _, opt := range opts {
		opt(p)
	}
	log.Debug(log.CatProvider, "provider created", "id", p.id, "timeout", p.timeout)
	return p
}

// ID identifies the provider in logs.
func (p *Provider) ID() string { return p.id }

// Registry returns the registry the provider follows.
func (p *Provider) Registry() *registry.Registry { return p.reg }

// Close stops following registry changes. The provider keeps working but
// only notices theme changes when it next reads the registry.
func (p *Provider) Close() {
	p.cancel()
}

// syncTheme adopts the registry's active theme when it was replaced by
// someone else since the last call.
func (p *Provider) syncTheme() {
	if events := pubsub.Drain(p.events); len(events) > 0 {
		log.Debug(log.CatProvider, "registry events", "id", p.id, "count", len(events))
	}
	if active := p.reg.Theme(); !theme.Same(active, p.theme) {
		log.Info(log.CatProvider, "active theme changed out of band", "id", p.id, "theme", themeName(active))
		p.theme = active
		p.flush()
	}
}

// Grammar returns the current grammar, or nil.
func (p *Provider) Grammar() grammar.Grammar { return p.grammar }

// Theme returns the current theme, or nil.
func (p *Provider) Theme() theme.Theme {
	p.syncTheme()
	return p.theme
}

// SetGrammar replaces the grammar and flushes the session.
func (p *Provider) SetGrammar(g grammar.Grammar) {
	p.syncTheme()
	p.grammar = g
	if g != nil {
		log.Debug(log.CatProvider, "grammar set", "id", p.id, "scope", g.ScopeName())
	}
	p.flush()
}

// SetGrammarSource loads src through the registry and makes it the grammar.
// On error the provider is unchanged.
func (p *Provider) SetGrammarSource(src grammar.Source) (grammar.Grammar, error) {
	g, err := p.reg.AddGrammar(src)
	if err != nil {
		log.ErrorErr(log.CatProvider, "grammar load failed", err, "id", p.id, "source", src.Name())
		return nil, err
	}
	p.SetGrammar(g)
	return g, nil
}

// SetTheme makes t the registry's active theme and flushes the session.
// Other providers sharing the registry follow on their next call.
func (p *Provider) SetTheme(t theme.Theme) {
	p.syncTheme()
	p.reg.SetTheme(t)
	p.theme = t
	log.Debug(log.CatProvider, "theme set", "id", p.id, "theme", themeName(t))
	p.flush()
}

// SetThemeSource loads src through the registry and makes it the theme.
// On error the provider and the registry are unchanged.
func (p *Provider) SetThemeSource(src theme.Source) (theme.Theme, error) {
	t, err := p.reg.LoadTheme(src)
	if err != nil {
		log.ErrorErr(log.CatProvider, "theme load failed", err, "id", p.id, "source", src.Name())
		return nil, err
	}
	p.theme = t
	log.Debug(log.CatProvider, "theme loaded", "id", p.id, "theme", themeName(t))
	p.flush()
	return t, nil
}

// ThemeSettings returns the derived settings of the current theme, or nil
// when no theme is set. The instance is replaced on every flush.
func (p *Provider) ThemeSettings() *style.ThemeSettings {
	p.syncTheme()
	return p.themeSettings()
}

func (p *Provider) themeSettings() *style.ThemeSettings {
	if p.theme == nil {
		return nil
	}
	if p.settings == nil {
		p.settings = style.FromTheme(p.theme)
	}
	return p.settings
}

// TokenizationTimeout returns the per-line timeout.
func (p *Provider) TokenizationTimeout() time.Duration { return p.timeout }

// SetTokenizationTimeout sets the per-line timeout. A non-positive value
// restores DefaultTokenizationTimeout.
func (p *Provider) SetTokenizationTimeout(d time.Duration) {
	if d <= 0 {
		d = DefaultTokenizationTimeout
	}
	p.timeout = d
}

// Flush discards the continuation state, the style cache and the derived
// theme settings. Call it before tokenizing a new document.
func (p *Provider) Flush() {
	p.syncTheme()
	p.flush()
}

func (p *Provider) flush() {
	p.session.reset()
	p.settings = nil
	p.flushes++
}

// Tokenize styles one line. Lines must be fed in document order; call Flush
// to start over. It returns nothing when the grammar or theme is missing or
// the line is empty, and the whole line as one unstyled token when the
// grammar runs out of time.
func (p *Provider) Tokenize(line string) []style.StyledToken {
	p.syncTheme()
	if p.grammar == nil || p.theme == nil || line == "" {
		return nil
	}

	res := p.grammar.TokenizeLine(line, p.session.state, p.timeout)
	p.session.state = res.State
	if res.StoppedEarly {
		p.timeouts++
		log.Warn(log.CatProvider, "tokenization timed out", "id", p.id, "timeout", p.timeout, "length", len(line))
		return []style.StyledToken{{Text: line}}
	}

	settings := p.themeSettings()
	tokens := make([]style.StyledToken, 0, len(res.Tokens))
	for _, tok := range res.Tokens {
		start := clamp(tok.Start, 0, len(line))
		end := clamp(tok.End, start, len(line))
		p.tokens++
		tokens = append(tokens, style.StyledToken{
			Text:  line[start:end],
			Style: resolveStyle(p.theme, settings, p.session.cache, tok.Scopes, &p.resolutions),
		})
	}
	return tokens
}

// Stats reports token, resolution and cache counters.
func (p *Provider) Stats() Stats {
	cs := p.session.cache.Stats()
	return Stats{
		Tokens:      p.tokens,
		Resolutions: p.resolutions,
		CacheHits:   cs.Hits,
		CacheMisses: cs.Misses,
		CacheSize:   cs.Entries,
		Flushes:     p.flushes,
		Timeouts:    p.timeouts,
	}
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

func themeName(t theme.Theme) string {
	if t == nil {
		return ""
	}
	return t.Name()
}
