// Package settings holds the observable viewer settings pushed into the
// projections: map viewport, timeline window, aggregation toggle and the
// externally driven selection.
package settings

import (
	"slices"
	"sync"
)

// Value is an observable setting. Subscribers are called synchronously, in
// subscription order, only when Set actually changes the value.
type Value[T any] struct {
	mu    sync.Mutex
	val   T
	equal func(a, b T) bool
	next  int
	subs  []subscriber[T]
}

type subscriber[T any] struct {
	id int
	fn func(T)
}

// NewValue creates a Value compared with ==.
func NewValue[T comparable](initial T) *Value[T] {
	return NewValueFunc(initial, func(a, b T) bool { return a == b })
}

// NewValueFunc creates a Value compared with equal.
func NewValueFunc[T any](initial T, equal func(a, b T) bool) *Value[T] {
	return &Value[T]{val: initial, equal: equal}
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.val
}

// Set stores x and notifies subscribers. It reports whether the value changed;
// setting an equal value is silent.
func (v *Value[T]) Set(x T) bool {
	v.mu.Lock()
	if v.equal(v.val, x) {
		v.mu.Unlock()
		return false
	}
	v.val = x
	subs := slices.Clone(v.subs)
	v.mu.Unlock()

	for _, s := range subs {
		s.fn(x)
	}
	return true
}

// Subscribe registers fn for future changes and returns a func that removes it.
func (v *Value[T]) Subscribe(fn func(T)) func() {
	v.mu.Lock()
	id := v.next
	v.next++
	v.subs = append(v.subs, subscriber[T]{id: id, fn: fn})
	v.mu.Unlock()

	return func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		v.subs = slices.DeleteFunc(v.subs, func(s subscriber[T]) bool { return s.id == id })
	}
}
