// Package pubsub provides a generic publish/subscribe event system.
// The registry publishes active-theme changes through it and the preview
// listens for them inside the Bubble Tea update loop.
package pubsub

import (
	"context"
	"time"
)

// EventType represents the type of event being published.
type EventType string

const (
	// ThemeChangedEvent is published when the active theme is replaced.
	ThemeChangedEvent EventType = "theme_changed"
	// GrammarAddedEvent is published when a grammar is added to a registry.
	GrammarAddedEvent EventType = "grammar_added"
	// FilesChangedEvent is published by the file watcher after a debounce window.
	FilesChangedEvent EventType = "files_changed"
	// WatchErrorEvent is published when the file watcher reports an error.
	WatchErrorEvent EventType = "watch_error"
)

// Event represents a published event with a typed payload.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}

// Subscriber provides a subscription channel for events.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

// Publisher allows publishing events with a typed payload.
type Publisher[T any] interface {
	Publish(eventType EventType, payload T)
}

// Drain returns every event currently buffered in ch without blocking.
// A nil or closed channel yields whatever was buffered before it closed.
func Drain[T any](ch <-chan Event[T]) []Event[T] {
	if ch == nil {
		return nil
	}
	var out []Event[T]
	for {
		select {
		case event, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, event)
		default:
			return out
		}
	}
}
