package query

import (
	"github.com/dshills/dapgraph/internal/dapgraph/graph"
	"github.com/dshills/dapgraph/internal/dapgraph/model"
	"github.com/dshills/dapgraph/internal/dapgraph/scope"
)

// Watch returns a reactive view of u's result set, registered in sc.
// Full per-field, per-edge-hop dependency tracking across an arbitrary
// URL (as §4.6 describes for the schema-driven store) would need a
// dynamic dependency graph this concrete-struct rendition deliberately
// avoids (see the Rollup doc comment in graph/rollup.go); instead this
// re-runs Query whenever a Session or a Thread is added or removed.
// Other changes (new stacks, frames or breakpoints, or field values such
// as a thread's state or a Variable's Value) trigger no re-run, and the
// view does not reflect them until the next re-run.
func Watch(d *model.Debugger, fc *FocusContext, sc *scope.Scope, u *URL) (*graph.CollectionRollup[model.Entity], error) {
	results, err := Query(d, fc, u)
	if err != nil {
		return nil, err
	}

	edge := graph.NewEdge(func(e model.Entity) string { return e.URI() }, nil)
	for _, e := range results {
		edge.Link(e)
	}

	recompute := func() {
		fresh, err := Query(d, fc, u)
		if err != nil {
			return
		}
		seen := make(map[string]bool, len(fresh))
		for _, e := range fresh {
			seen[e.URI()] = true
			edge.Link(e)
		}
		for _, e := range edge.All() {
			if !seen[e.URI()] {
				edge.Unlink(e)
			}
		}
	}

	d.Sessions.Each(sc, func(s *model.Session) func() {
		recompute()
		s.Threads.Each(sc, func(*model.Thread) func() {
			recompute()
			return recompute
		})
		return recompute
	})

	return graph.NewCollectionRollup(edge, nil), nil
}
