package internal

import "sync"

// subscriberChannelBufferLength is an arbitrary buffer size to make it less likely that we'll block
// when broadcasting to channels. It is still the consumer's responsibility to make sure they're
// reading the channel.
const subscriberChannelBufferLength = 10

// Broadcaster is a generic publish-subscribe mechanism used for status types and flag change events.
// AddListener returns a new receive-only channel; RemoveListener unsubscribes that channel and closes
// the sending end of it; Broadcast sends a value to all of the subscribed channels, if any; and Close
// unsubscribes and closes all existing channels.
//
// This supersedes the reflection-based genericBroadcaster approach used in older versions of the SDK,
// now that the language supports type parameters directly.
type Broadcaster[T any] struct {
	subscribers []chan T
	lock        sync.Mutex
}

// NewBroadcaster creates a Broadcaster for values of type T.
func NewBroadcaster[T any]() *Broadcaster[T] {
	return &Broadcaster[T]{}
}

// AddListener creates a new channel for listening to broadcast values. It is the consumer's
// responsibility to consume the channel to avoid blocking an SDK goroutine, and to call
// RemoveListener when it is no longer needed.
func (b *Broadcaster[T]) AddListener() <-chan T {
	ch := make(chan T, subscriberChannelBufferLength)
	b.lock.Lock()
	b.subscribers = append(b.subscribers, ch)
	b.lock.Unlock()
	return ch
}

// RemoveListener stops broadcasting to a channel that was created with AddListener, and closes it.
func (b *Broadcaster[T]) RemoveListener(ch <-chan T) {
	b.lock.Lock()
	defer b.lock.Unlock()
	for i, s := range b.subscribers {
		if s == ch {
			copy(b.subscribers[i:], b.subscribers[i+1:])
			b.subscribers[len(b.subscribers)-1] = nil
			b.subscribers = b.subscribers[:len(b.subscribers)-1]
			close(s)
			return
		}
	}
}

// HasListeners returns true if any listeners are currently registered.
func (b *Broadcaster[T]) HasListeners() bool {
	b.lock.Lock()
	defer b.lock.Unlock()
	return len(b.subscribers) > 0
}

// Broadcast sends a new value to all registered listeners, if any.
func (b *Broadcaster[T]) Broadcast(value T) {
	b.lock.Lock()
	ss := make([]chan T, len(b.subscribers))
	copy(ss, b.subscribers)
	b.lock.Unlock()
	for _, ch := range ss {
		ch <- value
	}
}

// Close unsubscribes and closes all currently registered listener channels.
func (b *Broadcaster[T]) Close() {
	b.lock.Lock()
	defer b.lock.Unlock()
	for _, s := range b.subscribers {
		close(s)
	}
	b.subscribers = nil
}
