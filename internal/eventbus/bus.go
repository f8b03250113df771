// Package eventbus provides the per-kind, per-action publish/subscribe channel
// shared by the registry, the projections and the selection coordinator.
package eventbus

import (
	"errors"
	"sync"

	"github.com/NiHoel/cirspecte-site/pkg/core"
)

// Handler reacts to one event. A returned error is reported back to the emitter.
type Handler func(core.Event) error

type topic struct {
	kind   core.EntityKind
	action core.Action
}

type subscription struct {
	id      uint64
	handler Handler
}

// Bus dispatches events synchronously to the handlers registered for their
// (kind, action) pair, in registration order.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[topic][]subscription
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{
		subs: make(map[topic][]subscription),
	}
}

// Subscribe registers h for events of the given kind and action.
// The returned function removes the registration; calling it twice is harmless.
func (b *Bus) Subscribe(kind core.EntityKind, action core.Action, h Handler) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	t := topic{kind, action}
	b.subs[t] = append(b.subs[t], subscription{id: id, handler: h})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		list := b.subs[t]
		for i, s := range list {
			if s.id == id {
				b.subs[t] = append(list[:i:i], list[i+1:]...)
				return
			}
		}
	}
}

// Emit delivers ev to every handler subscribed before the call. Handlers may
// emit further events. Errors from all handlers are joined.
func (b *Bus) Emit(ev core.Event) error {
	b.mu.RLock()
	list := b.subs[topic{ev.Kind, ev.Action}]
	handlers := make([]Handler, len(list))
	for i, s := range list {
		handlers[i] = s.handler
	}
	b.mu.RUnlock()

	var errs []error
	for _, h := range handlers {
		if err := h(ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Publish is shorthand for Emit with the common fields.
func (b *Bus) Publish(kind core.EntityKind, action core.Action, id string, entity any) error {
	return b.Emit(core.Event{Kind: kind, Action: action, ID: id, Entity: entity})
}
