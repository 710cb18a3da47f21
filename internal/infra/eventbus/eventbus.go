// Package eventbus is a typed in-memory fan-out. The gateway uses it to hand
// finished pipeline runs to the run logger without slowing the request.
//
// Publish never blocks: an event is dropped for a subscriber whose buffer is
// full, and the drop is counted.
package eventbus

import (
	"sync"
	"sync/atomic"
)

const defaultBufferSize = 100

// Bus delivers every published value to every subscriber.
type Bus[T any] struct {
	mu          sync.RWMutex
	subscribers []chan T
	closed      bool
	dropped     atomic.Int64
}

// New returns an empty Bus.
func New[T any]() *Bus[T] {
	return &Bus[T]{}
}

// Subscribe registers a subscriber and returns its channel. The channel is
// closed by Close; a Subscribe after Close returns an already closed channel.
func (b *Bus[T]) Subscribe() <-chan T {
	ch := make(chan T, defaultBufferSize)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.subscribers = append(b.subscribers, ch)
	return ch
}

// Publish sends v to all subscribers. Publishing after Close is a no-op.
func (b *Bus[T]) Publish(v T) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subscribers {
		select {
		case ch <- v:
		default:
			b.dropped.Add(1)
		}
	}
}

// Close closes every subscriber channel so consumer loops end.
func (b *Bus[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.subscribers {
		close(ch)
	}
	b.subscribers = nil
}

// Dropped reports how many deliveries were skipped because a subscriber
// was full.
func (b *Bus[T]) Dropped() int64 {
	return b.dropped.Load()
}
