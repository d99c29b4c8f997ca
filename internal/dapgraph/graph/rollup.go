package graph

import "github.com/dshills/dapgraph/internal/dapgraph/scope"

// Rollup is a *reference* rollup (C6): "first edge target satisfying a
// predicate", recomputed on demand and cached in a Signal so a watcher
// still gets the immediate-delivery-then-change-only contract (P7).
// This package does not attempt automatic fine-grained dependency
// tracking across every field an arbitrary predicate might touch (that
// would require a dynamic dependency graph this schema-as-concrete-
// structs design deliberately avoids, per SPEC_FULL.md §9); instead the
// model layer calls Recompute() at each point the predicate's inputs
// could have changed (an edge Link/Unlink, or a Signal.Use callback on
// a candidate field), which is the concrete-struct equivalent of
// "recomputes when the underlying edge mutates or any depended-upon
// field changes".
type Rollup[T any] struct {
	sig     *Signal[T]
	compute func() T
}

// NewRollup constructs a reference rollup whose value is computed by
// calling compute, evaluated once immediately.
func NewRollup[T any](compute func() T) *Rollup[T] {
	return &Rollup[T]{sig: NewSignal(compute()), compute: compute}
}

// Get returns the last-computed value.
func (r *Rollup[T]) Get() T { return r.sig.Get() }

// Recompute re-evaluates compute and notifies subscribers iff the
// result changed.
func (r *Rollup[T]) Recompute() { r.sig.Set(r.compute()) }

// Use subscribes to the rollup's value exactly as Signal.Use does.
func (r *Rollup[T]) Use(sc *scope.Scope, fn func(T) func()) *scope.Handle {
	return r.sig.Use(sc, fn)
}

// PropertyRollup is an *aggregate* rollup (count, exists, ...) over an
// edge; mechanically identical to Rollup but kept as a distinct type so
// call sites read as "this is an aggregate", matching the three-way
// rollup taxonomy in §3.
type PropertyRollup[V any] struct {
	inner *Rollup[V]
}

// NewPropertyRollup constructs a property rollup from an aggregate
// compute function (e.g. an edge's Len, or a boolean "any member
// matches").
func NewPropertyRollup[V any](compute func() V) *PropertyRollup[V] {
	return &PropertyRollup[V]{inner: NewRollup(compute)}
}

func (r *PropertyRollup[V]) Get() V          { return r.inner.Get() }
func (r *PropertyRollup[V]) Recompute()      { r.inner.Recompute() }
func (r *PropertyRollup[V]) Use(sc *scope.Scope, fn func(V) func()) *scope.Handle {
	return r.inner.Use(sc, fn)
}

// CollectionRollup is a lazy filtered view over an Edge: "the filtered
// iteration over an edge". Unlike Rollup/PropertyRollup it has no
// cached value of its own — All/Each always read through to the live
// edge, so a collection rollup never goes stale between explicit
// Recompute calls; it exists as a named type mainly so query-layer code
// (C7) and consumers can hold "a filtered view of this edge" as a
// single value without re-stating the predicate at every call site.
type CollectionRollup[T any] struct {
	edge *Edge[T]
	pred func(T) bool
}

// NewCollectionRollup constructs a collection rollup over edge, keeping
// only members for which pred returns true (nil pred keeps all).
func NewCollectionRollup[T any](edge *Edge[T], pred func(T) bool) *CollectionRollup[T] {
	return &CollectionRollup[T]{edge: edge, pred: pred}
}

// All returns an ordered snapshot of the current filtered members.
func (r *CollectionRollup[T]) All() []T { return r.edge.Filter(r.pred) }

// Len returns the current filtered member count.
func (r *CollectionRollup[T]) Len() int { return len(r.All()) }
