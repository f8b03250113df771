package eventbus

import (
	"sync"

	"github.com/NiHoel/cirspecte-site/pkg/core"
)

// Stream is a lazy, push-based sequence of events for one (kind, action) pair.
// It only sees events emitted after Observe returned and cannot be restarted.
type Stream struct {
	mu     sync.Mutex
	buf    []core.Event
	ready  chan struct{}
	cancel func()
	closed bool
}

// Observe returns a Stream receiving every future event of kind and action.
func (b *Bus) Observe(kind core.EntityKind, action core.Action) *Stream {
	s := &Stream{ready: make(chan struct{}, 1)}
	s.cancel = b.Subscribe(kind, action, s.push)
	return s
}

func (s *Stream) push(ev core.Event) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.buf = append(s.buf, ev)
	s.mu.Unlock()

	// Non-blocking: a pending signal already covers this event.
	select {
	case s.ready <- struct{}{}:
	default:
	}
	return nil
}

// Ready returns a channel that receives a signal when events are buffered.
func (s *Stream) Ready() <-chan struct{} {
	return s.ready
}

// Next pops the oldest buffered event.
func (s *Stream) Next() (core.Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.buf) == 0 {
		return core.Event{}, false
	}
	ev := s.buf[0]
	s.buf = s.buf[1:]
	return ev, true
}

// Drain pops every buffered event in emission order.
func (s *Stream) Drain() []core.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.buf
	s.buf = nil
	return out
}

// IDs drains the stream and returns the event ids.
func (s *Stream) IDs() []string {
	evs := s.Drain()
	ids := make([]string, len(evs))
	for i, ev := range evs {
		ids[i] = ev.ID
	}
	return ids
}

// Close unsubscribes the stream. Buffered events remain readable.
func (s *Stream) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()
	s.cancel()
}
