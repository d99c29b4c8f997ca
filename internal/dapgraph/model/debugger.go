package model

import (
	"sync"

	"github.com/dshills/dapgraph/internal/dapgraph/graph"
	"github.com/dshills/dapgraph/internal/dapgraph/logging"
	"github.com/dshills/dapgraph/internal/dapgraph/scope"
)

// Options decided by the Open Questions in SPEC_FULL.md §9.
type Options struct {
	StackRetention              int
	DeferredThreadCleanup       bool
	PreserveBindingsOnTerminate bool
}

// DefaultOptions mirrors the decided defaults: unbounded stack
// retention, immediate thread cleanup, bindings destroyed on
// termination.
func DefaultOptions() Options {
	return Options{StackRetention: 0, DeferredThreadCleanup: false, PreserveBindingsOnTerminate: false}
}

// Debugger is the graph's singleton root entity (C6): it owns the
// URI index, the session set, the global source and breakpoint sets,
// and the focused-URL signal consumed by the query layer's focus
// context (C7).
type Debugger struct {
	graph.Base

	// mu is the graph-wide mutation lock described in §5: "the graph,
	// scope tree and session engine are designed to run their
	// mutating operations on one logical goroutine group ... a coarse
	// sync.Mutex is used internally as the practical equivalent of
	// 'single logical owner'". Held only across index/edge bookkeeping,
	// never across a DAP round-trip.
	mu sync.Mutex

	Log     *logging.Logger
	Options Options

	index map[string]Entity

	RootScope *scope.Scope

	Sessions    *graph.Edge[*Session]
	sources     map[string]*Source
	breakpoints map[string]*Breakpoint

	FocusedURL *graph.Signal[string]
}

// NewRoot constructs the graph root. log may be nil, in which case the
// process-wide default logger is used.
func NewRoot(opts Options, log *logging.Logger) *Debugger {
	if log == nil {
		log = logging.Default()
	}
	d := &Debugger{
		Base:        graph.NewBase(debuggerURI()),
		Log:         log.WithComponent("graph"),
		Options:     opts,
		index:       make(map[string]Entity),
		RootScope:   scope.New(),
		sources:     make(map[string]*Source),
		breakpoints: make(map[string]*Breakpoint),
		FocusedURL:  graph.NewSignal(""),
	}
	d.Sessions = graph.NewEdge(func(s *Session) string { return s.URI() }, nil)
	d.Sessions.Index("id", func(s *Session) string { return s.ID() })
	d.register(d)
	return d
}

// register adds e to the URI index. Callers hold d.mu.
func (d *Debugger) register(e Entity) {
	d.index[e.URI()] = e
}

// unregister removes e from the URI index. Callers hold d.mu.
func (d *Debugger) unregister(e Entity) {
	delete(d.index, e.URI())
}

// Resolve returns the entity registered under uri, implementing I1/P1
// via a single flat map rather than §4.6's per-type-map-plus-dispatch
// shape — same O(1)/uniqueness contract, fewer moving parts, recorded
// as a deliberate simplification in DESIGN.md.
func (d *Debugger) Resolve(uri string) (Entity, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.index[uri]
	return e, ok
}

// AllEntities returns a snapshot of every registered entity, used by
// the query layer's root traversal and by debug-snapshot tooling.
func (d *Debugger) AllEntities() []Entity {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Entity, 0, len(d.index))
	for _, e := range d.index {
		out = append(out, e)
	}
	return out
}

// Source resolves or creates the Source identified by key, normalizing
// path/name as described in the loadedSource bridge rule (§4.9).
func (d *Debugger) Source(key string) *Source {
	d.mu.Lock()
	defer d.mu.Unlock()
	if s, ok := d.sources[key]; ok {
		return s
	}
	s := newSource(d, key)
	d.sources[key] = s
	d.register(s)
	return s
}

// Breakpoints returns a snapshot of every authoritative breakpoint.
func (d *Debugger) Breakpoints() []*Breakpoint {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*Breakpoint, 0, len(d.breakpoints))
	for _, b := range d.breakpoints {
		out = append(out, b)
	}
	return out
}

// addBreakpoint registers bp in the global breakpoint set.
func (d *Debugger) addBreakpoint(bp *Breakpoint) {
	d.mu.Lock()
	d.breakpoints[bp.URI()] = bp
	d.register(bp)
	d.mu.Unlock()
}

// removeBreakpoint deletes bp from the global breakpoint set and
// cascades to its bindings (§3 lifecycle: "deletion cascades to its
// bindings").
func (d *Debugger) removeBreakpoint(bp *Breakpoint) {
	bp.delete()
	d.mu.Lock()
	delete(d.breakpoints, bp.URI())
	d.unregister(bp)
	d.mu.Unlock()
}

// RemoveBreakpoint is the exported entry point the consumer-facing
// facade uses to delete an authoritative Breakpoint.
func (d *Debugger) RemoveBreakpoint(bp *Breakpoint) {
	d.removeBreakpoint(bp)
}

func (d *Debugger) lock()   { d.mu.Lock() }
func (d *Debugger) unlock() { d.mu.Unlock() }
