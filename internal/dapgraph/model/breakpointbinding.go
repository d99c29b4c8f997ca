package model

import "github.com/dshills/dapgraph/internal/dapgraph/graph"

// BreakpointBinding pairs a Breakpoint with a Session (§3).
type BreakpointBinding struct {
	graph.Base
	breakpoint *Breakpoint
	session    *Session

	AdapterID    *graph.Signal[int]
	Verified     *graph.Signal[bool]
	Hit          *graph.Signal[bool]
	ActualLine   *graph.Signal[int]
	ActualColumn *graph.Signal[int]
	Message      *graph.Signal[string]

	// ReadOnly is set on bindings kept past their session's termination
	// (Options.PreserveBindingsOnTerminate, Open Question Q3). Nothing in
	// the runtime consults the flag; it refuses no operation.
	ReadOnly *graph.Signal[bool]
}

// NewBreakpointBinding constructs a binding, links it into
// bp.Bindings and registers it in the debugger's URI index.
func NewBreakpointBinding(bp *Breakpoint, sess *Session) *BreakpointBinding {
	bb := &BreakpointBinding{
		Base:         graph.NewBase(breakpointBindingURI(sess.ID(), bp.source.Key, bp.Line.Get(), bp.Column.Get())),
		breakpoint:   bp,
		session:      sess,
		AdapterID:    graph.NewSignal(0),
		Verified:     graph.NewSignal(false),
		Hit:          graph.NewSignal(false),
		ActualLine:   graph.NewSignal(bp.Line.Get()),
		ActualColumn: graph.NewSignal(bp.Column.Get()),
		Message:      graph.NewSignal(""),
		ReadOnly:     graph.NewSignal(false),
	}
	bp.Bindings.Link(bb)
	sess.register(bb)
	return bb
}

// Breakpoint returns the owning authoritative Breakpoint.
func (bb *BreakpointBinding) Breakpoint() *Breakpoint { return bb.breakpoint }

// Session returns the owning Session.
func (bb *BreakpointBinding) Session() *Session { return bb.session }

// ApplyVerification updates the binding from a DAP Breakpoint response
// element (§4.10 step 1c).
func (bb *BreakpointBinding) ApplyVerification(id int, verified bool, line, column int, message string) {
	bb.AdapterID.Set(id)
	bb.Verified.Set(verified)
	if line != 0 {
		bb.ActualLine.Set(line)
	}
	if column != 0 {
		bb.ActualColumn.Set(column)
	}
	bb.Message.Set(message)
}

func (bb *BreakpointBinding) delete() {
	if !bb.MarkDeleted() {
		return
	}
	bb.breakpoint.Bindings.Unlink(bb)
	bb.session.debugger.lock()
	bb.session.debugger.unregister(bb)
	bb.session.debugger.unlock()
}
