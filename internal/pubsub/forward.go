package pubsub

import "context"

// Forward calls fn for every event received on ch until ch is closed or ctx
// is cancelled. It blocks; run it in its own goroutine.
func Forward[T any](ctx context.Context, ch <-chan Event[T], fn func(Event[T])) {
	if ch == nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			fn(event)
		}
	}
}

// Go subscribes to sub and forwards its events to fn on a new goroutine.
// The returned channel is closed once forwarding stops.
func Go[T any](ctx context.Context, sub Subscriber[T], fn func(Event[T])) <-chan struct{} {
	done := make(chan struct{})
	ch := sub.Subscribe(ctx)
	go func() {
		defer close(done)
		Forward(ctx, ch, fn)
	}()
	return done
}
