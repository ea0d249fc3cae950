// Package grammar defines the tokenizer collaborator consumed by the style
// provider and a chroma-backed implementation of it.
package grammar

import (
	"errors"
	"time"
)

// State is the opaque continuation a grammar hands back after each line.
// A nil State means "start of document".
type State any

// Token is one span of a tokenized line. Start and End are byte offsets
// into the line; Scopes is ordered least specific first.
type Token struct {
	Start  int
	End    int
	Scopes []string
}

// Result is what a grammar returns for a single line.
type Result struct {
	Tokens []Token
	// State must be passed to the next TokenizeLine call.
	State State
	// StoppedEarly is set when the time limit expired before the line was
	// fully tokenized. Tokens are then unreliable and must not be used.
	StoppedEarly bool
}

// Grammar tokenizes one line at a time, carrying state between lines.
type Grammar interface {
	// ScopeName is the root scope, e.g. "source.go".
	ScopeName() string
	// TokenizeLine tokenizes line given the state returned for the
	// previous line. A non-positive timeout means no limit.
	TokenizeLine(line string, state State, timeout time.Duration) Result
}

// Source loads a grammar.
type Source interface {
	Name() string
	Load() (Grammar, error)
}

// ErrUnknownLanguage is returned when no lexer exists for a language name.
var ErrUnknownLanguage = errors.New("unknown language")
