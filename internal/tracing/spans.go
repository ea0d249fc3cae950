package tracing

// Span names.
const (
	SpanHighlightDocument = "document.highlight"
)

// Span attribute keys.
const (
	AttrDocumentName   = "document.name"
	AttrDocumentLines  = "document.lines"
	AttrDocumentTokens = "document.tokens"
	AttrGrammarScope   = "grammar.scope"
	AttrThemeName      = "theme.name"
	AttrProviderID     = "provider.id"
	AttrCacheHits      = "cache.hits"
	AttrCacheMisses    = "cache.misses"
	AttrTimedOutLines  = "document.timed_out_lines"
)

// Event names.
const (
	EventLineTimedOut = "line.timed_out"
)
