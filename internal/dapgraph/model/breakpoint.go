package model

import "github.com/dshills/dapgraph/internal/dapgraph/graph"

// BreakpointOption configures a Breakpoint at creation time.
type BreakpointOption func(*Breakpoint)

func WithCondition(expr string) BreakpointOption {
	return func(b *Breakpoint) { b.Condition.Set(expr) }
}

func WithHitCondition(expr string) BreakpointOption {
	return func(b *Breakpoint) { b.HitCondition.Set(expr) }
}

func WithLogMessage(msg string) BreakpointOption {
	return func(b *Breakpoint) { b.LogMessage.Set(msg) }
}

func WithEnabled(enabled bool) BreakpointOption {
	return func(b *Breakpoint) { b.Enabled.Set(enabled) }
}

// Breakpoint is the authoritative, session-independent breakpoint
// description owned by the Debugger (§3).
type Breakpoint struct {
	graph.Base
	debugger *Debugger
	source   *Source

	Line         *graph.Signal[int]
	Column       *graph.Signal[int]
	Condition    *graph.Signal[string]
	HitCondition *graph.Signal[string]
	LogMessage   *graph.Signal[string]
	Enabled      *graph.Signal[bool]

	Bindings *graph.Edge[*BreakpointBinding]

	// changeHook is invoked after any field mutation that can affect
	// the synchronised binding set; the breakpoint synchroniser (C10,
	// a separate package) installs it via SetChangeHook so this
	// package never imports bpsync.
	changeHook func()
}

// NewBreakpoint constructs and registers a Breakpoint at source/line,
// applying opts. Enabled defaults to true.
func NewBreakpoint(d *Debugger, source *Source, line int, opts ...BreakpointOption) *Breakpoint {
	b := &Breakpoint{
		debugger:     d,
		source:       source,
		Line:         graph.NewSignal(line),
		Column:       graph.NewSignal(0),
		Condition:    graph.NewSignal(""),
		HitCondition: graph.NewSignal(""),
		LogMessage:   graph.NewSignal(""),
		Enabled:      graph.NewSignal(true),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.Base = graph.NewBase(breakpointURI(source.Key, line, b.Column.Get()))
	b.Bindings = graph.NewEdge(func(bb *BreakpointBinding) string { return bb.URI() }, nil)

	source.Breakpoints.Link(b)
	d.addBreakpoint(b)
	b.fireChange()
	return b
}

// SetChangeHook installs the callback invoked at creation and after
// Enable, Disable or SetCondition change the breakpoint.
func (b *Breakpoint) SetChangeHook(fn func()) { b.changeHook = fn }

func (b *Breakpoint) fireChange() {
	if b.changeHook != nil {
		b.changeHook()
	}
}

// Source returns the owning Source.
func (b *Breakpoint) Source() *Source { return b.source }

// Enable sets Enabled true, a no-op if already enabled (idempotence
// law: "Enable() on an already-enabled Breakpoint does not cause a
// redundant setBreakpoints" — on an already-enabled Breakpoint nothing
// is written and the change hook does not fire).
func (b *Breakpoint) Enable() {
	if !b.Enabled.Get() {
		b.Enabled.Set(true)
		b.fireChange()
	}
}

// Disable sets Enabled false.
func (b *Breakpoint) Disable() {
	if b.Enabled.Get() {
		b.Enabled.Set(false)
		b.fireChange()
	}
}

// SetCondition updates the conditional-breakpoint expression.
func (b *Breakpoint) SetCondition(expr string) {
	b.Condition.Set(expr)
	b.fireChange()
}

// delete cascades to this breakpoint's bindings (§3: "deletion
// cascades to its bindings").
func (b *Breakpoint) delete() {
	if !b.MarkDeleted() {
		return
	}
	b.source.Breakpoints.Unlink(b)
	for _, bb := range b.Bindings.All() {
		bb.delete()
	}
}
