// Package scope implements the nested subscription-cleanup domains
// (C5): scopes form a tree, and cancelling a scope disposes every
// cleanup registered under it and every descendant scope, LIFO with
// respect to registration order. Every subscription the graph package
// hands back (on a signal, edge, or rollup) is registered with a
// caller-supplied scope rather than living forever.
package scope

import "sync"

// Scope is one node of the subscription-cleanup tree.
type Scope struct {
	mu        sync.Mutex
	parent    *Scope
	children  []*Scope
	cleanups  []func()
	cancelled bool
}

// New creates a standalone root scope with no parent. The debugger
// root owns exactly one of these (Debugger.RootScope).
func New() *Scope {
	return &Scope{}
}

// NewChild creates and returns a child of the receiver. Cancelling the
// parent cancels every child transitively.
func (s *Scope) NewChild() *Scope {
	child := &Scope{parent: s}

	s.mu.Lock()
	if s.cancelled {
		s.mu.Unlock()
		child.Cancel()
		return child
	}
	s.children = append(s.children, child)
	s.mu.Unlock()

	return child
}

// Handle is an individual subscription's cancel function, returned by
// Register so a caller can dispose of just that one registration
// without cancelling the whole scope.
type Handle struct {
	cancel func()
	once   sync.Once
}

// Cancel runs this handle's cleanup exactly once.
func (h *Handle) Cancel() {
	h.once.Do(h.cancel)
}

// Register adds cleanup to the scope's registry, to be run (along with
// every other registration in this scope) LIFO when the scope is
// cancelled. It returns a Handle the caller can cancel independently,
// which removes the entry from the scope's registry so a live
// subscription cancelled individually does not run twice.
func (s *Scope) Register(cleanup func()) *Handle {
	var h *Handle
	var idx int

	s.mu.Lock()
	if s.cancelled {
		s.mu.Unlock()
		cleanup()
		h = &Handle{cancel: func() {}}
		return h
	}
	idx = len(s.cleanups)
	s.cleanups = append(s.cleanups, cleanup)
	s.mu.Unlock()

	h = &Handle{cancel: func() {
		s.mu.Lock()
		if idx < len(s.cleanups) && s.cleanups[idx] != nil {
			s.cleanups[idx] = nil
		}
		s.mu.Unlock()
		cleanup()
	}}
	return h
}

// Cancel runs every registered cleanup in this scope LIFO, then
// recursively cancels every child scope, then detaches itself from its
// parent. Cancel is idempotent.
func (s *Scope) Cancel() {
	s.mu.Lock()
	if s.cancelled {
		s.mu.Unlock()
		return
	}
	s.cancelled = true
	cleanups := s.cleanups
	s.cleanups = nil
	children := s.children
	s.children = nil
	parent := s.parent
	s.mu.Unlock()

	for i := len(cleanups) - 1; i >= 0; i-- {
		if cleanups[i] != nil {
			cleanups[i]()
		}
	}
	for i := len(children) - 1; i >= 0; i-- {
		children[i].Cancel()
	}

	if parent != nil {
		parent.detach(s)
	}
}

func (s *Scope) detach(child *Scope) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.children {
		if c == child {
			s.children = append(s.children[:i], s.children[i+1:]...)
			return
		}
	}
}

// IsCancelled reports whether the scope has been cancelled.
func (s *Scope) IsCancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled
}

// With runs fn with a fresh child of scope, used by the dispatch loop
// when invoking event handlers so subscriptions created during a
// handler attach to a scope owned by that invocation rather than
// leaking into the caller's scope. The child scope is returned so the
// caller can decide whether to keep it alive past fn's return (a
// handler that spawns a task for later work should) or cancel it
// immediately (a handler whose subscriptions are meant to be transient).
func With(s *Scope, fn func(*Scope)) *Scope {
	child := s.NewChild()
	fn(child)
	return child
}
