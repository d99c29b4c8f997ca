package graph

import (
	"strconv"
	"testing"

	"github.com/dshills/dapgraph/internal/dapgraph/scope"
)

type item struct {
	id  string
	seq int
}

func keyOf(i *item) string { return i.id }

func TestEdgeLinkIsOrderedAndIdempotent(t *testing.T) {
	e := NewEdge(keyOf, func(a, b *item) bool { return a.seq < b.seq })

	e.Link(&item{id: "b", seq: 2})
	e.Link(&item{id: "a", seq: 1})
	e.Link(&item{id: "a", seq: 1}) // idempotent no-op by key

	all := e.All()
	if len(all) != 2 {
		t.Fatalf("expected 2 items, got %d", len(all))
	}
	if all[0].id != "a" || all[1].id != "b" {
		t.Fatalf("expected sorted order a,b; got %v", all)
	}
}

func TestEdgeUnlinkRunsEachCleanup(t *testing.T) {
	e := NewEdge(keyOf, nil)
	sc := scope.New()

	var removed []string
	e.Each(sc, func(i *item) func() {
		return func() { removed = append(removed, i.id) }
	})

	e.Link(&item{id: "x"})
	e.Link(&item{id: "y"})
	e.Unlink(&item{id: "x"})

	if len(removed) != 1 || removed[0] != "x" {
		t.Fatalf("expected cleanup for x exactly once, got %v", removed)
	}
}

func TestEdgeEachDeliversCurrentAndFuture(t *testing.T) {
	e := NewEdge(keyOf, nil)
	e.Link(&item{id: "pre"})

	sc := scope.New()
	var seen []string
	e.Each(sc, func(i *item) func() {
		seen = append(seen, i.id)
		return nil
	})
	e.Link(&item{id: "post"})

	if len(seen) != 2 || seen[0] != "pre" || seen[1] != "post" {
		t.Fatalf("expected [pre post], got %v", seen)
	}
}

func TestEdgeScopeCancelRunsAllCleanups(t *testing.T) {
	e := NewEdge(keyOf, nil)
	sc := scope.New()

	var cleaned int
	e.Each(sc, func(i *item) func() {
		return func() { cleaned++ }
	})
	for n := 0; n < 3; n++ {
		e.Link(&item{id: strconv.Itoa(n)})
	}

	sc.Cancel()
	if cleaned != 3 {
		t.Fatalf("expected 3 cleanups on scope cancel, got %d", cleaned)
	}

	// the edge itself is untouched by scope cancellation
	if e.Len() != 3 {
		t.Fatalf("expected edge to retain its 3 members, got %d", e.Len())
	}
}

func TestEdgeFirstAndFilter(t *testing.T) {
	e := NewEdge(keyOf, nil)
	e.Link(&item{id: "a", seq: 1})
	e.Link(&item{id: "b", seq: 2})
	e.Link(&item{id: "c", seq: 2})

	first, ok := e.First(func(i *item) bool { return i.seq == 2 })
	if !ok || first.id != "b" {
		t.Fatalf("expected first match b, got %+v ok=%v", first, ok)
	}

	filtered := e.Filter(func(i *item) bool { return i.seq == 2 })
	if len(filtered) != 2 {
		t.Fatalf("expected 2 filtered items, got %d", len(filtered))
	}
}
