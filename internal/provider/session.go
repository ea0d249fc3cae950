package provider

import (
	"github.com/zjrosen/tmstyle/internal/grammar"
	"github.com/zjrosen/tmstyle/internal/style"
)

// session is the mutable per-document state: the grammar continuation and
// the style cache. Both are only valid for one grammar/theme pair.
type session struct {
	state grammar.State
	cache *style.Cache
}

func newSession() *session {
	return &session{cache: style.NewCache()}
}

func (s *session) reset() {
	s.state = nil
	s.cache.Clear()
}
