package grammar

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"

	"github.com/zjrosen/tmstyle/internal/log"
	"github.com/zjrosen/tmstyle/internal/scopemap"
)

// ChromaGrammar adapts a chroma lexer to the Grammar interface.
//
// Chroma lexers cannot resume from an external state, so the continuation
// state is the document text seen so far and each line re-lexes that prefix.
// Cost is quadratic in document length, which is fine for files a terminal
// viewer shows.
type ChromaGrammar struct {
	lexer     chroma.Lexer
	name      string
	suffix    string
	scopeName string
	now       func() time.Time

	mu     sync.Mutex
	stacks map[chroma.TokenType][]string
}

type chromaState struct {
	text string
}

// NewChromaGrammar wraps lexer. Adjacent tokens of the same type are merged.
func NewChromaGrammar(lexer chroma.Lexer) *ChromaGrammar {
	cfg := lexer.Config()
	suffix := languageSuffix(cfg)
	return &ChromaGrammar{
		lexer:     chroma.Coalesce(lexer),
		name:      cfg.Name,
		suffix:    suffix,
		scopeName: "source." + suffix,
		now:       time.Now,
		stacks:    make(map[chroma.TokenType][]string),
	}
}

func languageSuffix(cfg *chroma.Config) string {
	candidate := cfg.Name
	if len(cfg.Aliases) > 0 {
		candidate = cfg.Aliases[0]
	}
	var b strings.Builder
	for _, r := range strings.ToLower(candidate) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_', r == '+', r == '#':
			b.WriteRune(r)
		case r == ' ' || r == '.':
			b.WriteRune('-')
		}
	}
	if b.Len() == 0 {
		return "text"
	}
	return b.String()
}

// Name returns the lexer's display name.
func (g *ChromaGrammar) Name() string { return g.name }

// ScopeName implements Grammar.
func (g *ChromaGrammar) ScopeName() string { return g.scopeName }

// TokenizeLine implements Grammar.
func (g *ChromaGrammar) TokenizeLine(line string, state State, timeout time.Duration) Result {
	prefix := ""
	if st, ok := state.(*chromaState); ok && st != nil {
		prefix = st.text
	}
	text := prefix + line + "\n"
	next := &chromaState{text: text}

	var deadline time.Time
	if timeout > 0 {
		deadline = g.now().Add(timeout)
	}

	it, err := g.lexer.Tokenise(&chroma.TokeniseOptions{State: "root"}, text)
	if err != nil {
		log.ErrorErr(log.CatGrammar, "tokenise failed", err, "grammar", g.scopeName)
		return Result{State: next, StoppedEarly: true}
	}

	lineStart := len(prefix)
	lineEnd := lineStart + len(line)
	offset := 0
	var tokens []Token
	for tok := it(); tok != chroma.EOF; tok = it() {
		if !deadline.IsZero() && g.now().After(deadline) {
			log.Debug(log.CatGrammar, "tokenization stopped early", "grammar", g.scopeName, "timeout", timeout)
			return Result{State: next, StoppedEarly: true}
		}
		start := offset
		end := offset + len(tok.Value)
		offset = end
		if end <= lineStart {
			continue
		}
		if start >= lineEnd {
			break
		}
		s := max(start, lineStart) - lineStart
		e := min(end, lineEnd) - lineStart
		if e <= s {
			continue
		}
		tokens = append(tokens, Token{Start: s, End: e, Scopes: g.scopes(tok.Type)})
	}

	return Result{Tokens: tokens, State: next}
}

// scopes returns the stack for a token type: the root scope, then the
// mapped scope suffixed with the language.
func (g *ChromaGrammar) scopes(tt chroma.TokenType) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if s, ok := g.stacks[tt]; ok {
		return s
	}
	stack := []string{g.scopeName}
	if scope := scopemap.ForToken(tt); scope != "" {
		stack = append(stack, scope+"."+g.suffix)
	}
	g.stacks[tt] = stack
	return stack
}

// Languages lists the names of every registered lexer.
func Languages() []string {
	return lexers.Names(false)
}

// Language returns a Source that resolves a lexer by name or alias.
func Language(name string) Source {
	return languageSource{name: name}
}

type languageSource struct {
	name string
}

func (s languageSource) Name() string { return s.name }

func (s languageSource) Load() (Grammar, error) {
	lexer := lexers.Get(s.name)
	if lexer == nil {
		return nil, fmt.Errorf("language %q: %w", s.name, ErrUnknownLanguage)
	}
	return NewChromaGrammar(lexer), nil
}

// ForFile returns a Source that picks a lexer from the file name, then from
// the content, and finally falls back to plain text.
func ForFile(path, content string) Source {
	return fileSource{path: path, content: content}
}

type fileSource struct {
	path    string
	content string
}

func (s fileSource) Name() string { return s.path }

func (s fileSource) Load() (Grammar, error) {
	lexer := lexers.Match(filepath.Base(s.path))
	if lexer == nil && s.content != "" {
		lexer = lexers.Analyse(s.content)
	}
	if lexer == nil {
		log.Debug(log.CatGrammar, "no lexer matched, using plaintext", "path", s.path)
		lexer = lexers.Get("plaintext")
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	return NewChromaGrammar(lexer), nil
}
