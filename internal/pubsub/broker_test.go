package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBroker_Subscribe(t *testing.T) {
	broker := NewBroker[string]()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := broker.Subscribe(ctx)
	broker.Publish(ThemeChangedEvent, "monokai")

	select {
	case event := <-ch:
		require.Equal(t, "monokai", event.Payload)
		require.Equal(t, ThemeChangedEvent, event.Type)
		require.False(t, event.Timestamp.IsZero())
	case <-time.After(100 * time.Millisecond):
		require.Fail(t, "timeout waiting for event")
	}
}

func TestBroker_MultipleSubscribers(t *testing.T) {
	broker := NewBroker[int]()
	defer broker.Close()

	ctx := context.Background()
	subs := []<-chan Event[int]{
		broker.Subscribe(ctx),
		broker.Subscribe(ctx),
		broker.Subscribe(ctx),
	}
	require.Equal(t, 3, broker.SubscriberCount())

	broker.Publish(GrammarAddedEvent, 42)

	for i, ch := range subs {
		select {
		case event := <-ch:
			require.Equal(t, 42, event.Payload, "subscriber %d", i)
		case <-time.After(100 * time.Millisecond):
			require.Fail(t, "timeout waiting for event", "subscriber %d", i)
		}
	}
}

func TestBroker_ContextCancellation(t *testing.T) {
	broker := NewBroker[string]()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch := broker.Subscribe(ctx)
	require.Equal(t, 1, broker.SubscriberCount())

	cancel()
	require.Eventually(t, func() bool { return broker.SubscriberCount() == 0 },
		time.Second, 5*time.Millisecond)

	_, ok := <-ch
	require.False(t, ok, "channel should be closed")
}

func TestBroker_PublishDropsWhenFull(t *testing.T) {
	broker := NewBroker[int](WithBufferSize(1), WithName("test"))
	defer broker.Close()

	ch := broker.Subscribe(context.Background())

	done := make(chan struct{})
	go func() {
		broker.Publish(ThemeChangedEvent, 1)
		broker.Publish(ThemeChangedEvent, 2)
		broker.Publish(ThemeChangedEvent, 3)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		require.Fail(t, "Publish blocked")
	}

	event := <-ch
	require.Equal(t, 1, event.Payload)
	require.Empty(t, Drain(ch))

	stats := broker.Stats()
	require.Equal(t, uint64(3), stats.Published)
	require.Equal(t, uint64(1), stats.Delivered)
	require.Equal(t, uint64(2), stats.Dropped)
	require.Equal(t, 1, stats.Subscribers)
}

func TestBroker_StatsCountEverySubscriber(t *testing.T) {
	broker := NewBroker[string]()
	defer broker.Close()

	ctx := context.Background()
	a := broker.Subscribe(ctx)
	b := broker.Subscribe(ctx)
	broker.Publish(ThemeChangedEvent, "x")

	require.Len(t, Drain(a), 1)
	require.Len(t, Drain(b), 1)
	require.Equal(t, Stats{Published: 1, Delivered: 2, Subscribers: 2}, broker.Stats())
}

func TestWithBufferSize_ClampsToOne(t *testing.T) {
	broker := NewBroker[int](WithBufferSize(0))
	defer broker.Close()

	ch := broker.Subscribe(context.Background())
	broker.Publish(ThemeChangedEvent, 1)
	broker.Publish(ThemeChangedEvent, 2)

	events := Drain(ch)
	require.Len(t, events, 1)
	require.Equal(t, uint64(1), broker.Stats().Dropped)
}

func TestBroker_CloseClosesSubscribers(t *testing.T) {
	broker := NewBroker[string]()
	ctx := context.Background()

	ch1 := broker.Subscribe(ctx)
	ch2 := broker.Subscribe(ctx)

	broker.Close()
	broker.Close() // idempotent

	_, ok1 := <-ch1
	_, ok2 := <-ch2
	require.False(t, ok1)
	require.False(t, ok2)
	require.Equal(t, 0, broker.SubscriberCount())

	ch3 := broker.Subscribe(ctx)
	_, ok3 := <-ch3
	require.False(t, ok3, "subscribe after close returns a closed channel")

	require.NotPanics(t, func() { broker.Publish(ThemeChangedEvent, "late") })
}

func TestDrain(t *testing.T) {
	broker := NewBroker[string]()
	defer broker.Close()

	ch := broker.Subscribe(context.Background())
	require.Empty(t, Drain(ch))

	broker.Publish(ThemeChangedEvent, "a")
	broker.Publish(GrammarAddedEvent, "b")

	events := Drain(ch)
	require.Len(t, events, 2)
	require.Equal(t, "a", events[0].Payload)
	require.Equal(t, GrammarAddedEvent, events[1].Type)

	require.Nil(t, Drain[string](nil))
}
