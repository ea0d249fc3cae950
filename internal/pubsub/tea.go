package pubsub

import (
	"context"
	"slices"

	tea "github.com/charmbracelet/bubbletea"
)

// ListenCmd returns a command that yields the next event on ch as a tea.Msg.
// When types is non-empty, events of other types are consumed and skipped.
// The command yields nil once ctx is cancelled or ch is closed.
func ListenCmd[T any](ctx context.Context, ch <-chan Event[T], types ...EventType) tea.Cmd {
	return func() tea.Msg {
		for {
			select {
			case <-ctx.Done():
				return nil
			case event, ok := <-ch:
				if !ok {
					return nil
				}
				if len(types) > 0 && !slices.Contains(types, event.Type) {
					continue
				}
				return event
			}
		}
	}
}

// ContinuousListener keeps one subscription alive across Update calls.
// Call Listen again after handling each event to keep receiving.
type ContinuousListener[T any] struct {
	ctx   context.Context
	ch    <-chan Event[T]
	types []EventType
}

// NewContinuousListener subscribes for the lifetime of ctx. With types,
// only events of those types reach the Update loop.
func NewContinuousListener[T any](ctx context.Context, sub Subscriber[T], types ...EventType) *ContinuousListener[T] {
	return &ContinuousListener[T]{
		ctx:   ctx,
		ch:    sub.Subscribe(ctx),
		types: types,
	}
}

// Listen returns a command that waits for the next matching event.
func (l *ContinuousListener[T]) Listen() tea.Cmd {
	return ListenCmd(l.ctx, l.ch, l.types...)
}
