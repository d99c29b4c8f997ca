package graph

import (
	"reflect"
	"sync"

	"github.com/dshills/dapgraph/internal/dapgraph/scope"
)

// sigSub is one live subscription on a Signal.
type sigSub[T any] struct {
	fn      func(T) func()
	cleanup func()
}

// Signal is a reactive cell holding a single value of type T (P7).
// Get/Set are safe for concurrent use; Use registers a callback that
// fires immediately with the current value and again on every change.
type Signal[T any] struct {
	mu    sync.Mutex
	value T
	subs  []*sigSub[T]
}

// NewSignal creates a Signal initialised to v.
func NewSignal[T any](v T) *Signal[T] {
	return &Signal[T]{value: v}
}

// Get returns the current value.
func (s *Signal[T]) Get() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Set writes v. If v differs from the current value by structural
// equality, every subscriber is notified in registration order: the
// previous call's cleanup (if any) runs first, then fn(v) runs and its
// returned cleanup is stored for next time.
func (s *Signal[T]) Set(v T) {
	s.mu.Lock()
	if reflect.DeepEqual(s.value, v) {
		s.mu.Unlock()
		return
	}
	s.value = v
	subs := append([]*sigSub[T](nil), s.subs...)
	s.mu.Unlock()

	for _, sub := range subs {
		if sub.cleanup != nil {
			sub.cleanup()
		}
		sub.cleanup = sub.fn(v)
	}
}

// Use registers fn to run synchronously with the current value, and
// again on every subsequent change, for as long as sc is not
// cancelled. fn may return a cleanup run before the next invocation
// and when sc is cancelled. The returned Handle allows cancelling just
// this subscription early.
func (s *Signal[T]) Use(sc *scope.Scope, fn func(T) func()) *scope.Handle {
	sub := &sigSub[T]{fn: fn}

	s.mu.Lock()
	sub.cleanup = fn(s.value)
	s.subs = append(s.subs, sub)
	s.mu.Unlock()

	return sc.Register(func() {
		s.mu.Lock()
		for i, other := range s.subs {
			if other == sub {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				break
			}
		}
		cleanup := sub.cleanup
		s.mu.Unlock()
		if cleanup != nil {
			cleanup()
		}
	})
}
