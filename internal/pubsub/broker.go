package pubsub

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zjrosen/tmstyle/internal/log"
)

const defaultBufferSize = 16

// Option configures a Broker.
type Option func(*options)

type options struct {
	bufferSize int
	name       string
}

// WithBufferSize sets the per-subscriber buffer. Values below 1 become 1.
func WithBufferSize(n int) Option {
	return func(o *options) { o.bufferSize = max(n, 1) }
}

// WithName labels the broker in dropped-event log lines.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// Stats counts deliveries since the broker was created.
type Stats struct {
	Published   uint64
	Delivered   uint64
	Dropped     uint64
	Subscribers int
}

// Broker fans events out to subscribers without ever blocking the
// publisher. A subscriber whose buffer is full misses the event, so events
// are hints: subscribers re-read the authoritative state (the registry's
// active theme, the file on disk) when one arrives.
type Broker[T any] struct {
	opts options
	mu   sync.RWMutex
	subs map[chan Event[T]]struct{}
	done chan struct{}
	now  func() time.Time

	published atomic.Uint64
	delivered atomic.Uint64
	dropped   atomic.Uint64
}

// NewBroker creates a broker. The default buffer holds 16 events.
func NewBroker[T any](opts ...Option) *Broker[T] {
	o := options{bufferSize: defaultBufferSize, name: "broker"}
	for _, opt := range opts {
		opt(&o)
	}
	return &Broker[T]{
		opts: o,
		subs: make(map[chan Event[T]]struct{}),
		done: make(chan struct{}),
		now:  time.Now,
	}
}

// Subscribe returns a channel that receives every event published from now
// on. It is closed when ctx is cancelled or the broker is closed.
func (b *Broker[T]) Subscribe(ctx context.Context) <-chan Event[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed() {
		ch := make(chan Event[T])
		close(ch)
		return ch
	}

	sub := make(chan Event[T], b.opts.bufferSize)
	b.subs[sub] = struct{}{}

	go func() {
		select {
		case <-ctx.Done():
		case <-b.done:
			return
		}
		b.unsubscribe(sub)
	}()

	return sub
}

func (b *Broker[T]) unsubscribe(sub chan Event[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[sub]; !ok {
		return
	}
	delete(b.subs, sub)
	close(sub)
}

// Publish stamps the event and offers it to every subscriber.
func (b *Broker[T]) Publish(eventType EventType, payload T) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed() {
		return
	}

	event := Event[T]{
		Type:      eventType,
		Payload:   payload,
		Timestamp: b.now(),
	}
	b.published.Add(1)

	for sub := range b.subs {
		select {
		case sub <- event:
			b.delivered.Add(1)
		default:
			b.dropped.Add(1)
			log.Debug(log.CatRegistry, "subscriber buffer full, event dropped",
				"broker", b.opts.name, "type", string(eventType))
		}
	}
}

// Close closes every subscriber channel. Later calls are no-ops and later
// subscriptions receive an already closed channel.
func (b *Broker[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed() {
		return
	}

	close(b.done)
	for sub := range b.subs {
		close(sub)
	}
	b.subs = nil
}

// SubscriberCount returns the number of live subscriptions.
func (b *Broker[T]) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Stats returns the delivery counters.
func (b *Broker[T]) Stats() Stats {
	return Stats{
		Published:   b.published.Load(),
		Delivered:   b.delivered.Load(),
		Dropped:     b.dropped.Load(),
		Subscribers: b.SubscriberCount(),
	}
}

func (b *Broker[T]) closed() bool {
	select {
	case <-b.done:
		return true
	default:
		return false
	}
}
