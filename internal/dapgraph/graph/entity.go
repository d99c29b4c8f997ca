// Package graph implements the reactive entity graph store (C6): a
// typed, schema-driven store built from three reactive primitives —
// Signal (per-field observable cells), Edge (typed ordered multi-sets
// with optional indexes), and Rollup (declarative
// derived observables over an edge) — plus the deletion discipline
// that keeps I8 (no observer ever sees a dangling edge) true.
//
// Concrete entity types (Session, Thread, Breakpoint, ...) live in
// sibling packages and embed Base for identity/deletion bookkeeping;
// this package supplies the generic machinery they're built from. The
// adjacency-list-of-identifiers-not-pointers idiom here — edges store
// entity values that carry their own URI rather than an owning
// back-pointer graph — is the same shape used by a plain static
// dependency graph keyed by opaque node ids, generalised with
// reactivity.
package graph

import "sync/atomic"

// Entity is satisfied by every node type in the store. Concrete types
// implement it by embedding Base.
type Entity interface {
	URI() string
	Deleted() bool
}

// Base provides the identity and deletion bookkeeping every concrete
// entity type embeds. It is not itself reactive; Deleted() is a plain
// atomic flag because a deleted check must be cheap and synchronous
// even from inside another entity's signal-change callback.
type Base struct {
	uri     string
	deleted atomic.Bool
}

// NewBase constructs a Base with the given canonical URI.
func NewBase(uri string) Base {
	return Base{uri: uri}
}

// URI returns the entity's canonical, stable identifier (I1).
func (b *Base) URI() string { return b.uri }

// Deleted reports whether Delete has been called on this entity.
func (b *Base) Deleted() bool { return b.deleted.Load() }

// markDeleted flips the deleted flag. Idempotent; returns false if the
// entity was already deleted (callers use this to make Delete()
// idempotent at the call site).
func (b *Base) markDeleted() bool { return b.deleted.CompareAndSwap(false, true) }

// MarkDeleted is the package-external form of markDeleted, used by
// sibling packages (model) implementing Entity.Delete() on top of Base.
// Idempotent; returns false if already deleted.
func (b *Base) MarkDeleted() bool { return b.markDeleted() }
