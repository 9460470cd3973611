// Package pubsub provides a generic event broker for decoupled
// notifications between TUI components: keyboard frame changes, config
// reloads and the like. Subscriptions are scoped to a context.
package pubsub

import (
	"context"
	"sync"
)

// EventType represents the kind of event being published.
type EventType string

const (
	// UpdatedEvent indicates a value changed.
	UpdatedEvent EventType = "updated"
	// WillChangeEvent announces a change that is about to animate.
	WillChangeEvent EventType = "will-change"
	// DidChangeEvent reports a change that has been applied.
	DidChangeEvent EventType = "did-change"
)

// Event represents a typed event with a payload.
type Event[T any] struct {
	Type    EventType
	Payload T
}

// Broker manages subscriptions and publishes events to subscribers.
type Broker[T any] struct {
	mu          sync.RWMutex
	subscribers map[chan Event[T]]struct{}
	bufferSize  int
	closed      bool
}

// NewBroker creates a new broker with the specified channel buffer size.
func NewBroker[T any](bufferSize int) *Broker[T] {
	if bufferSize < 1 {
		bufferSize = 16
	}
	return &Broker[T]{
		subscribers: make(map[chan Event[T]]struct{}),
		bufferSize:  bufferSize,
	}
}

// Subscribe creates a subscription channel that receives events until ctx
// is cancelled, at which point it is unsubscribed and closed. Subscribing
// to a closed broker returns an already closed channel.
func (b *Broker[T]) Subscribe(ctx context.Context) <-chan Event[T] {
	ch := make(chan Event[T], b.bufferSize)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch
	}
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.unsubscribe(ch)
	}()

	return ch
}

func (b *Broker[T]) unsubscribe(ch chan Event[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subscribers[ch]; ok {
		delete(b.subscribers, ch)
		close(ch)
	}
}

// Publish sends an event to all subscribers without blocking. Events are
// dropped for subscribers whose buffer is full; notifications here are
// sampled state, so the next one corrects it.
func (b *Broker[T]) Publish(event Event[T]) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}

// SubscriberCount returns the current number of subscribers.
func (b *Broker[T]) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close unsubscribes and closes every subscriber channel.
func (b *Broker[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subscribers {
		delete(b.subscribers, ch)
		close(ch)
	}
	b.closed = true
}
