package runtime

import (
	"artisan-link/domain/event"
	"context"
	"sync"
)

// LocalBackbone is the single process backbone: a buffered channel between the
// hub and the room dispatcher. Publish order is delivery order.
type LocalBackbone struct {
	deliveries chan event.DomainEvent
	closeOnce  sync.Once
	done       chan struct{}
}

func NewLocalBackbone(bufferSize int) *LocalBackbone {
	return &LocalBackbone{
		deliveries: make(chan event.DomainEvent, bufferSize),
		done:       make(chan struct{}),
	}
}

// Publish enqueues the event. It only blocks while the buffer is full,
// and gives up when ctx is done or the backbone is closed.
func (b *LocalBackbone) Publish(ctx context.Context, e event.DomainEvent) error {
	select {
	case <-b.done:
		return context.Canceled
	default:
	}
	select {
	case b.deliveries <- e:
		return nil
	case <-b.done:
		return context.Canceled
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *LocalBackbone) Deliveries() <-chan event.DomainEvent {
	return b.deliveries
}

// Close stops accepting events. The delivery channel is left open so a
// dispatcher blocked on it only stops through its own context.
func (b *LocalBackbone) Close() error {
	b.closeOnce.Do(func() { close(b.done) })
	return nil
}
