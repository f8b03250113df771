// Package notifier broadcasts values from background goroutines to
// listeners that handle them on their own goroutine.
package notifier

import "sync"

// Notifier broadcasts values to all subscribed listeners. Each listener
// holds at most one pending value; a newer broadcast replaces an unread one,
// so a slow listener only ever sees the latest value.
type Notifier[T any] struct {
	mu        sync.RWMutex
	listeners map[chan T]struct{}
}

// New creates a new Notifier instance.
func New[T any]() *Notifier[T] {
	return &Notifier[T]{
		listeners: make(map[chan T]struct{}),
	}
}

// Subscribe returns a channel that receives broadcast values.
// The caller must call Unsubscribe when done.
func (n *Notifier[T]) Subscribe() <-chan T {
	ch := make(chan T, 1)
	n.mu.Lock()
	n.listeners[ch] = struct{}{}
	n.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener channel and closes it. Unknown channels
// are ignored.
func (n *Notifier[T]) Unsubscribe(sub <-chan T) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for ch := range n.listeners {
		if ch == sub {
			delete(n.listeners, ch)
			close(ch)
			return
		}
	}
}

// Broadcast delivers v to every listener without blocking.
func (n *Notifier[T]) Broadcast(v T) {
	// The write lock keeps the drain-and-send of one broadcast from
	// interleaving with another.
	n.mu.Lock()
	defer n.mu.Unlock()

	for ch := range n.listeners {
		select {
		case <-ch:
		default:
		}
		ch <- v
	}
}

// Len returns the number of listeners.
func (n *Notifier[T]) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.listeners)
}
