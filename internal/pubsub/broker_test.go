package pubsub

import (
	"context"
	"sync"
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

	broker.Publish(PageFetchedEvent, "Buildings")

	select {
	case event := <-ch:
		require.Equal(t, "Buildings", event.Payload)
		require.Equal(t, PageFetchedEvent, event.Type)
		require.False(t, event.Timestamp.IsZero())
	case <-time.After(100 * time.Millisecond):
		require.Fail(t, "timeout waiting for event")
	}
}

func TestBroker_MultipleSubscribers(t *testing.T) {
	broker := NewBroker[int]()
	defer broker.Close()

	ctx := context.Background()

	ch1 := broker.Subscribe(ctx)
	ch2 := broker.Subscribe(ctx)
	ch3 := broker.Subscribe(ctx)

	require.Equal(t, 3, broker.SubscriberCount())

	broker.Publish(StageFinishedEvent, 42)

	for i, ch := range []<-chan Event[int]{ch1, ch2, ch3} {
		select {
		case event := <-ch:
			require.Equal(t, 42, event.Payload, "subscriber %d", i)
			require.Equal(t, StageFinishedEvent, event.Type, "subscriber %d", i)
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

	// Channel is closed by the cleanup goroutine
	_, ok := <-ch
	require.False(t, ok, "channel should be closed")
	require.Equal(t, 0, broker.SubscriberCount())
}

func TestBroker_NonBlocking(t *testing.T) {
	broker := NewBrokerWithBuffer[int](1)
	defer broker.Close()

	ch := broker.Subscribe(context.Background())

	broker.Publish(LogEvent, 1)

	done := make(chan struct{})
	go func() {
		broker.Publish(LogEvent, 2)
		broker.Publish(LogEvent, 3)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		require.Fail(t, "Publish blocked")
	}

	// Only the first event fit in the buffer
	event := <-ch
	require.Equal(t, 1, event.Payload)
}

func TestBroker_SlowSubscriberCatchesUp(t *testing.T) {
	broker := NewBrokerWithBuffer[string](2)
	defer broker.Close()

	slow := broker.Subscribe(context.Background())
	fast := broker.Subscribe(context.Background())

	for _, stage := range []string{"buildings", "coins", "recipes"} {
		broker.Publish(StageStartedEvent, stage)
		if stage == "buildings" {
			require.Equal(t, "buildings", (<-fast).Payload)
		}
	}
	require.Equal(t, "coins", (<-fast).Payload)
	require.Equal(t, "recipes", (<-fast).Payload)

	require.Equal(t, "buildings", (<-slow).Payload)
	require.Equal(t, "coins", (<-slow).Payload)

	broker.Publish(StageFinishedEvent, "recipes")
	event := <-slow
	require.Equal(t, StageFinishedEvent, event.Type, "the missed event is gone, later ones arrive")
	require.Equal(t, "recipes", event.Payload)
}

func TestBroker_Close(t *testing.T) {
	broker := NewBroker[string]()

	ctx := context.Background()

	ch1 := broker.Subscribe(ctx)
	ch2 := broker.Subscribe(ctx)

	require.Equal(t, 2, broker.SubscriberCount())

	broker.Close()
	broker.Close()

	_, ok1 := <-ch1
	_, ok2 := <-ch2
	require.False(t, ok1, "ch1 should be closed")
	require.False(t, ok2, "ch2 should be closed")
	require.Equal(t, 0, broker.SubscriberCount())

	ch3 := broker.Subscribe(ctx)
	_, ok3 := <-ch3
	require.False(t, ok3, "subscribe after close returns a closed channel")

	broker.Publish(LogEvent, "ignored") // No panic
}

func TestGo_ForwardsUntilCancelled(t *testing.T) {
	broker := NewBroker[string]()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())

	var (
		mu  sync.Mutex
		got []string
	)
	received := make(chan struct{}, 2)
	done := Go(ctx, Subscriber[string](broker), func(e Event[string]) {
		mu.Lock()
		got = append(got, e.Payload)
		mu.Unlock()
		received <- struct{}{}
	})

	broker.Publish(StageStartedEvent, "buildings")
	broker.Publish(StageFinishedEvent, "buildings")
	for range 2 {
		select {
		case <-received:
		case <-time.After(time.Second):
			require.Fail(t, "timeout waiting for forwarded event")
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		require.Fail(t, "forwarding did not stop")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"buildings", "buildings"}, got)
}

func TestForward_NilChannel(t *testing.T) {
	Forward[int](context.Background(), nil, func(Event[int]) {
		require.Fail(t, "no events expected")
	})
}
