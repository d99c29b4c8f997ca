package graph

import (
	"testing"

	"github.com/dshills/dapgraph/internal/dapgraph/scope"
)

func TestRollupRecomputeNotifiesOnChangeOnly(t *testing.T) {
	e := NewEdge(keyOf, nil)
	e.Link(&item{id: "a", seq: 1})

	r := NewRollup(func() *item {
		v, _ := e.First(func(i *item) bool { return i.seq > 0 })
		return v
	})

	sc := scope.New()
	var calls int
	r.Use(sc, func(v *item) func() {
		calls++
		return nil
	})
	if calls != 1 {
		t.Fatalf("expected immediate delivery, got %d calls", calls)
	}

	r.Recompute() // same underlying value -> no notification
	if calls != 1 {
		t.Fatalf("expected no notification for unchanged value, got %d calls", calls)
	}

	e.Link(&item{id: "b", seq: 2})
	r.Recompute()
	if calls != 1 {
		t.Fatalf("first() still returns a, expected no notification, got %d calls", calls)
	}
}

func TestCollectionRollupFiltersLive(t *testing.T) {
	e := NewEdge(keyOf, nil)
	e.Link(&item{id: "a", seq: 1})
	e.Link(&item{id: "b", seq: 2})

	cr := NewCollectionRollup(e, func(i *item) bool { return i.seq == 2 })
	if cr.Len() != 1 {
		t.Fatalf("expected 1 match, got %d", cr.Len())
	}

	e.Link(&item{id: "c", seq: 2})
	if cr.Len() != 2 {
		t.Fatalf("expected live view to pick up new match, got %d", cr.Len())
	}
}

func TestPropertyRollupCount(t *testing.T) {
	e := NewEdge(keyOf, nil)
	pr := NewPropertyRollup(func() int { return e.Len() })

	if pr.Get() != 0 {
		t.Fatalf("expected 0, got %d", pr.Get())
	}
	e.Link(&item{id: "a"})
	pr.Recompute()
	if pr.Get() != 1 {
		t.Fatalf("expected 1, got %d", pr.Get())
	}
}
