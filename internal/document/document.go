// Package document highlights whole texts line by line through a provider.
package document

import (
	"context"
	"regexp"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/tmstyle/internal/log"
	"github.com/zjrosen/tmstyle/internal/provider"
	"github.com/zjrosen/tmstyle/internal/style"
	"github.com/zjrosen/tmstyle/internal/tracing"
)

var lineBreak = regexp.MustCompile(`\r?\n|\r`)

// Line is one highlighted line. Tokens is empty for blank lines.
type Line struct {
	Number   int
	Text     string
	Tokens   []style.StyledToken
	TimedOut bool
}

// Document is the result of one highlighting pass.
type Document struct {
	Name     string
	Lines    []Line
	Theme    string
	Grammar  string
	Settings *style.ThemeSettings
}

// TokenCount sums the tokens of all lines.
func (d Document) TokenCount() int {
	n := 0
	for _, l := range d.Lines {
		n += len(l.Tokens)
	}
	return n
}

// SplitLines splits text on \r\n, \n and \r. Trailing empty lines are
// dropped, so "a\n" yields one line and "" yields none.
func SplitLines(text string) []string {
	lines := lineBreak.Split(text, -1)
	end := len(lines)
	for end > 0 && lines[end-1] == "" {
		end--
	}
	return lines[:end]
}

// Highlighter runs documents through a provider.
type Highlighter struct {
	provider *provider.Provider
	tracer   trace.Tracer
}

// NewHighlighter wraps p. A nil tracer disables spans.
func NewHighlighter(p *provider.Provider, tracer trace.Tracer) *Highlighter {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("noop")
	}
	return &Highlighter{provider: p, tracer: tracer}
}

// Provider returns the wrapped provider.
func (h *Highlighter) Provider() *provider.Provider { return h.provider }

// Highlight flushes the provider and tokenizes text from its first line.
// Cancelling ctx stops between lines; the lines done so far are returned
// with ctx's error.
func (h *Highlighter) Highlight(ctx context.Context, name, text string) (Document, error) {
	ctx, span := h.tracer.Start(ctx, tracing.SpanHighlightDocument, trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	p := h.provider
	p.Flush()

	doc := Document{
		Name:     name,
		Theme:    themeName(p),
		Grammar:  grammarScope(p),
		Settings: p.ThemeSettings(),
	}
	span.SetAttributes(
		attribute.String(tracing.AttrDocumentName, name),
		attribute.String(tracing.AttrThemeName, doc.Theme),
		attribute.String(tracing.AttrGrammarScope, doc.Grammar),
		attribute.String(tracing.AttrProviderID, p.ID()),
	)

	before := p.Stats()
	lines := SplitLines(text)
	doc.Lines = make([]Line, 0, len(lines))
	timedOut := 0
	for i, text := range lines {
		if err := ctx.Err(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			h.finish(span, doc, before, timedOut)
			return doc, err
		}

		timeouts := p.Stats().Timeouts
		line := Line{Number: i + 1, Text: text, Tokens: p.Tokenize(text)}
		if p.Stats().Timeouts > timeouts {
			line.TimedOut = true
			timedOut++
			span.AddEvent(tracing.EventLineTimedOut, trace.WithAttributes(attribute.Int("line", line.Number)))
		}
		doc.Lines = append(doc.Lines, line)
	}

	h.finish(span, doc, before, timedOut)
	span.SetStatus(codes.Ok, "")
	log.Debug(log.CatProvider, "document highlighted",
		"name", name, "lines", len(doc.Lines), "tokens", doc.TokenCount(), "timed_out", timedOut)
	return doc, nil
}

func (h *Highlighter) finish(span trace.Span, doc Document, before provider.Stats, timedOut int) {
	after := h.provider.Stats()
	span.SetAttributes(
		attribute.Int(tracing.AttrDocumentLines, len(doc.Lines)),
		attribute.Int(tracing.AttrDocumentTokens, doc.TokenCount()),
		attribute.Int(tracing.AttrTimedOutLines, timedOut),
		attribute.Int(tracing.AttrCacheHits, after.CacheHits-before.CacheHits),
		attribute.Int(tracing.AttrCacheMisses, after.CacheMisses-before.CacheMisses),
	)
}

// PlainText joins the line texts with \n.
func (d Document) PlainText() string {
	var b strings.Builder
	for i, l := range d.Lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(l.Text)
	}
	return b.String()
}

func themeName(p *provider.Provider) string {
	if t := p.Theme(); t != nil {
		return t.Name()
	}
	return ""
}

func grammarScope(p *provider.Provider) string {
	if g := p.Grammar(); g != nil {
		return g.ScopeName()
	}
	return ""
}
