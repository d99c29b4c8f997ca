package graph

import (
	"sort"
	"sync"

	"github.com/dshills/dapgraph/internal/dapgraph/scope"
)

// edgeWatcher is one live Each subscription on an Edge.
type edgeWatcher[T any] struct {
	fn       func(T) func()
	cleanups map[string]func()
}

// edgeIndex is one secondary index on an Edge: a map from a field value
// (fn(v)) to every current member sharing that value, giving ByIndex
// O(1) lookup instead of a linear Filter/First scan (§4.6: "Indexes on
// edges support O(1) lookup by field value").
type edgeIndex[T any] struct {
	fn    func(T) string
	byKey map[string][]T
}

// Edge is a typed, ordered multi-set relating one entity to many others
// (C6). Construction fixes the relation's ordering: a nil less keeps
// insertion order (append-only, the shape every `--edge-->` in §3
// without an explicit ordering clause uses); a non-nil less keeps the
// set sorted after every Link, which is how Frame.Index-ascending and
// Stack newest-first-by-sequence orderings are expressed without a
// bespoke container per relation.
//
// Link/Unlink are idempotent with respect to the element's key (P:
// "Link(x) of an already-linked x is a no-op"), and Each delivers a
// creation callback for every current member plus every future Link,
// with the member's own returned cleanup invoked on Unlink or on the
// watching scope's cancellation — the same create/cleanup shape
// Signal.Use uses for fields.
type Edge[T any] struct {
	mu    sync.Mutex
	items []T
	keyFn func(T) string
	less  func(a, b T) bool

	watchers []*edgeWatcher[T]
	indexes  map[string]*edgeIndex[T]
}

// NewEdge constructs an edge keyed by keyFn (typically an entity's
// URI). less, if non-nil, is applied after every Link to keep the
// backing slice sorted; pass nil for plain insertion order.
func NewEdge[T any](keyFn func(T) string, less func(a, b T) bool) *Edge[T] {
	return &Edge[T]{keyFn: keyFn, less: less}
}

// Index registers a secondary index named name, keyed by fn(v). Any
// member already linked is indexed retroactively; every later Link/
// Unlink keeps the index current. fn must return a stable value for
// v's lifetime on the edge — the field it reads should never change
// after linking (true of every field indexed in this codebase: ids,
// line numbers, names).
func (e *Edge[T]) Index(name string, fn func(T) string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.indexes == nil {
		e.indexes = make(map[string]*edgeIndex[T])
	}
	idx := &edgeIndex[T]{fn: fn, byKey: make(map[string][]T)}
	for _, v := range e.items {
		k := fn(v)
		idx.byKey[k] = append(idx.byKey[k], v)
	}
	e.indexes[name] = idx
}

// ByIndex returns every member whose indexed field equals value, in
// O(1) amortized time via the named index registered by Index. Returns
// nil if name was never registered.
func (e *Edge[T]) ByIndex(name, value string) []T {
	e.mu.Lock()
	defer e.mu.Unlock()
	idx, ok := e.indexes[name]
	if !ok {
		return nil
	}
	return append([]T(nil), idx.byKey[value]...)
}

func (e *Edge[T]) indexLink(v T) {
	for _, idx := range e.indexes {
		k := idx.fn(v)
		idx.byKey[k] = append(idx.byKey[k], v)
	}
}

func (e *Edge[T]) indexUnlink(key string, v T) {
	for _, idx := range e.indexes {
		k := idx.fn(v)
		lst := idx.byKey[k]
		for i, x := range lst {
			if e.keyFn(x) == key {
				idx.byKey[k] = append(lst[:i], lst[i+1:]...)
				break
			}
		}
		if len(idx.byKey[k]) == 0 {
			delete(idx.byKey, k)
		}
	}
}

func (e *Edge[T]) indexOf(key string) int {
	for i, v := range e.items {
		if e.keyFn(v) == key {
			return i
		}
	}
	return -1
}

// Link adds v to the edge. A v whose key already appears is a no-op.
func (e *Edge[T]) Link(v T) {
	e.mu.Lock()
	key := e.keyFn(v)
	if e.indexOf(key) >= 0 {
		e.mu.Unlock()
		return
	}

	if e.less == nil {
		e.items = append(e.items, v)
	} else {
		i := sort.Search(len(e.items), func(i int) bool { return e.less(v, e.items[i]) })
		e.items = append(e.items, v)
		copy(e.items[i+1:], e.items[i:])
		e.items[i] = v
	}
	e.indexLink(v)
	watchers := append([]*edgeWatcher[T](nil), e.watchers...)
	e.mu.Unlock()

	for _, w := range watchers {
		cleanup := w.fn(v)
		if cleanup != nil {
			e.mu.Lock()
			if w.cleanups == nil {
				w.cleanups = make(map[string]func())
			}
			w.cleanups[key] = cleanup
			e.mu.Unlock()
		}
	}
}

// Unlink removes the element with v's key, if present, running any
// live Each subscription's cleanup for it (I8: no observer ever sees a
// dangling edge past this call).
func (e *Edge[T]) Unlink(v T) {
	e.UnlinkKey(e.keyFn(v))
}

// UnlinkKey removes the element identified by key, if present.
func (e *Edge[T]) UnlinkKey(key string) {
	e.mu.Lock()
	i := e.indexOf(key)
	if i < 0 {
		e.mu.Unlock()
		return
	}
	v := e.items[i]
	e.items = append(e.items[:i], e.items[i+1:]...)
	e.indexUnlink(key, v)
	watchers := append([]*edgeWatcher[T](nil), e.watchers...)
	e.mu.Unlock()

	for _, w := range watchers {
		e.mu.Lock()
		cleanup := w.cleanups[key]
		delete(w.cleanups, key)
		e.mu.Unlock()
		if cleanup != nil {
			cleanup()
		}
	}
}

// All returns an ordered snapshot of the edge's current members.
func (e *Edge[T]) All() []T {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]T(nil), e.items...)
}

// Len returns the current member count.
func (e *Edge[T]) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.items)
}

// First returns the first member satisfying pred, in edge order.
func (e *Edge[T]) First(pred func(T) bool) (T, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, v := range e.items {
		if pred == nil || pred(v) {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// Filter returns every member satisfying pred, in edge order.
func (e *Edge[T]) Filter(pred func(T) bool) []T {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []T
	for _, v := range e.items {
		if pred == nil || pred(v) {
			out = append(out, v)
		}
	}
	return out
}

// Each calls fn for every current member and for every future Link,
// for as long as sc is not cancelled, mirroring Signal.Use's
// create/cleanup contract per member. The returned Handle detaches
// just this subscription (running outstanding member cleanups) without
// affecting the edge's contents.
func (e *Edge[T]) Each(sc *scope.Scope, fn func(T) func()) *scope.Handle {
	w := &edgeWatcher[T]{fn: fn, cleanups: make(map[string]func())}

	e.mu.Lock()
	items := append([]T(nil), e.items...)
	e.watchers = append(e.watchers, w)
	e.mu.Unlock()

	for _, v := range items {
		if cleanup := fn(v); cleanup != nil {
			e.mu.Lock()
			w.cleanups[e.keyFn(v)] = cleanup
			e.mu.Unlock()
		}
	}

	return sc.Register(func() {
		e.mu.Lock()
		for i, other := range e.watchers {
			if other == w {
				e.watchers = append(e.watchers[:i], e.watchers[i+1:]...)
				break
			}
		}
		cleanups := w.cleanups
		w.cleanups = nil
		e.mu.Unlock()
		for _, cleanup := range cleanups {
			cleanup()
		}
	})
}
