package model

import (
	"context"
	"strconv"

	"github.com/dshills/dapgraph/internal/dapgraph/dap"
	"github.com/dshills/dapgraph/internal/dapgraph/errs"
	"github.com/dshills/dapgraph/internal/dapgraph/graph"
	"github.com/dshills/dapgraph/internal/dapgraph/scope"
	"github.com/dshills/dapgraph/internal/dapgraph/task"
)

// Session is one debug adapter connection, the root of a subtree of
// threads, outputs, bindings and (for adapters that spawn children,
// e.g. js-debug's bootstrap session) further sessions (§3, §4.8).
type Session struct {
	graph.Base
	debugger *Debugger

	id     string
	Parent *Session
	Depth  int

	// Scope is this session's child of its parent's scope (the root
	// scope, for a depth-0 session). Every subscription the entity
	// bridge installs on this session's behalf is registered here, so
	// terminating the session tears all of them down in one Cancel.
	Scope *scope.Scope

	Client *dap.Client

	Name         *graph.Signal[string]
	State        *graph.Signal[SessionState]
	Capabilities *graph.Signal[dap.Capabilities]
	Err          *graph.Signal[error]
	ProcessInfo  *graph.Signal[ProcessInfo]
	Modules      *graph.Signal[[]Module]

	Children          *graph.Edge[*Session]
	Threads           *graph.Edge[*Thread]
	SourceBindings    *graph.Edge[*SourceBinding]
	Outputs           *graph.Edge[*Output]
	ExceptionFilters  *graph.Edge[*ExceptionFilter]

	Leaf                *graph.PropertyRollup[bool]
	FirstStoppedThread  *graph.Rollup[*Thread]

	outputSeq int

	memoStackTrace func(context.Context, string) ([]dap.StackFrame, error)
	memoScopes     func(context.Context, string) ([]dap.Scope, error)
	memoVariables  func(context.Context, string) ([]dap.Variable, error)
}

// NewSession constructs a Session under parent (nil for a root
// session), deriving its id from seed via the CVCVC generator and its
// Scope from parent's (or debugger.RootScope for a root session).
func NewSession(d *Debugger, parent *Session, seed string, client *dap.Client) *Session {
	id := NewSessionID(seed)
	parentScope := d.RootScope
	depth := 0
	if parent != nil {
		parentScope = parent.Scope
		depth = parent.Depth + 1
	}

	sess := &Session{
		Base:         graph.NewBase(sessionURI(id)),
		debugger:     d,
		id:           id,
		Parent:       parent,
		Depth:        depth,
		Scope:        parentScope.NewChild(),
		Client:       client,
		Name:         graph.NewSignal(seed),
		State:        graph.NewSignal(SessionStarting),
		Capabilities: graph.NewSignal(dap.Capabilities{}),
		Err:          graph.NewSignal[error](nil),
		ProcessInfo:  graph.NewSignal(ProcessInfo{}),
		Modules:      graph.NewSignal([]Module(nil)),
	}
	sess.Threads = graph.NewEdge(func(t *Thread) string { return t.URI() }, nil)
	sess.Threads.Index("id", func(t *Thread) string { return strconv.Itoa(t.ID) })
	sess.Children = graph.NewEdge(func(c *Session) string { return c.URI() }, nil)
	sess.SourceBindings = graph.NewEdge(func(b *SourceBinding) string { return b.URI() }, nil)
	sess.Outputs = graph.NewEdge(func(o *Output) string { return o.URI() },
		func(a, b *Output) bool { return a.Seq < b.Seq })
	sess.ExceptionFilters = graph.NewEdge(func(f *ExceptionFilter) string { return f.URI() }, nil)
	sess.ExceptionFilters.Index("id", func(f *ExceptionFilter) string { return f.FilterID })

	sess.Leaf = graph.NewPropertyRollup(func() bool { return sess.Children.Len() == 0 })
	sess.FirstStoppedThread = graph.NewRollup(func() *Thread {
		t, _ := sess.Threads.First(func(t *Thread) bool { return t.State.Get() == ThreadStopped })
		return t
	})

	sess.memoStackTrace = task.Memoize(func(ctx context.Context, threadURI string) ([]dap.StackFrame, error) {
		e, ok := d.Resolve(threadURI)
		if !ok {
			return nil, errs.ErrNotFound
		}
		th, ok := e.(*Thread)
		if !ok {
			return nil, errs.ErrNotFound
		}
		body, err := sess.Client.StackTrace(ctx, dap.StackTraceArguments{ThreadID: th.ID})
		if err != nil {
			return nil, err
		}
		return body.StackFrames, nil
	})
	sess.memoScopes = task.Memoize(func(ctx context.Context, uri string) ([]dap.Scope, error) {
		e, ok := d.Resolve(uri)
		if !ok {
			return nil, errs.ErrNotFound
		}
		fr, ok := e.(*Frame)
		if !ok {
			return nil, errs.ErrNotFound
		}
		return sess.Client.Scopes(ctx, dap.ScopesArguments{FrameID: fr.ID})
	})
	sess.memoVariables = task.Memoize(func(ctx context.Context, uri string) ([]dap.Variable, error) {
		e, ok := d.Resolve(uri)
		if !ok {
			return nil, errs.ErrNotFound
		}
		var ref int
		switch owner := e.(type) {
		case *Scope:
			ref = owner.VariablesReference
		case *Variable:
			ref = owner.VariablesReference
		default:
			return nil, errs.ErrNotFound
		}
		return sess.Client.Variables(ctx, dap.VariablesArguments{VariablesReference: ref})
	})

	d.lock()
	d.register(sess)
	d.Sessions.Link(sess)
	d.unlock()
	if parent != nil {
		parent.Children.Link(sess)
		parent.Leaf.Recompute()
	}

	return sess
}

// ID returns the session's stable CVCVC identifier.
func (sess *Session) ID() string { return sess.id }

func (sess *Session) session() *Session { return sess }

// register adds e to the owning debugger's URI index.
func (sess *Session) register(e Entity) {
	sess.debugger.lock()
	sess.debugger.register(e)
	sess.debugger.unlock()
}

// findOrCreateThread returns the Thread for id, creating and
// registering one if this is the first time id is observed in this
// session (I2: at most one Thread per adapter thread id per session).
func (sess *Session) findOrCreateThread(id int, name string) *Thread {
	if existing := sess.Threads.ByIndex("id", strconv.Itoa(id)); len(existing) > 0 {
		t := existing[0]
		if name != "" {
			t.Name.Set(name)
		}
		return t
	}
	t := newThread(sess, id, name)
	sess.Threads.Link(t)
	sess.register(t)
	return t
}

// upsertVariable resolves or creates the Variable identified by
// (session, variablesReference, name), updating its value/type/
// evaluateName on an existing entry so repeated fetches of the same
// reference converge on one node rather than duplicating it.
func (sess *Session) upsertVariable(containerRef int, raw dap.Variable) *Variable {
	uri := variableURI(sess.id, raw.VariablesReference, raw.Name)
	if e, ok := sess.debugger.Resolve(uri); ok {
		v := e.(*Variable)
		v.Value.Set(raw.Value)
		v.Type.Set(raw.Type)
		v.EvaluateName.Set(raw.EvaluateName)
		return v
	}
	v := newVariable(sess, containerRef, raw)
	sess.register(v)
	return v
}

// nextOutputSeq returns the next ordinal for a new Output entity.
func (sess *Session) nextOutputSeq() int {
	sess.outputSeq++
	return sess.outputSeq
}

// Restart asks the adapter to restart in place (gated on
// Capabilities.SupportsRestartRequest).
func (sess *Session) Restart(ctx context.Context) error {
	if !sess.Capabilities.Get().SupportsRestartRequest {
		return errs.Wrap(sess.URI(), "Restart", &errs.CapabilityError{Operation: "restart", Capability: "supportsRestartRequest"})
	}
	_, err := runAsTask(ctx, func(ctx context.Context) (struct{}, error) {
		_, reqErr := sess.Client.Request(ctx, "restart", struct{}{})
		return struct{}{}, reqErr
	})
	if err != nil {
		return errs.Wrap(sess.URI(), "Restart", err)
	}
	return nil
}

// Disconnect walks Children depth-first, disconnecting each before
// this session's own transport is closed, then sends `disconnect` (if
// not already terminated), closes the transport, transitions to
// terminated, and cascades entity cleanup via the session's Scope
// (§4.8 Termination).
func (sess *Session) Disconnect(ctx context.Context) error {
	for _, child := range sess.Children.All() {
		if err := child.Disconnect(ctx); err != nil {
			sess.debugger.Log.Warn("child session %s disconnect failed: %v", child.ID(), err)
		}
	}

	if sess.State.Get() == SessionTerminated {
		return nil
	}

	_, err := runAsTask(ctx, func(ctx context.Context) (struct{}, error) {
		reqErr := sess.Client.Disconnect(ctx, dap.DisconnectArguments{TerminateDebuggee: true})
		return struct{}{}, reqErr
	})
	sess.terminate()
	if err != nil {
		return errs.Wrap(sess.URI(), "Disconnect", err)
	}
	return nil
}

// terminate performs the state transition and cascade common to a
// `terminated`/`exited` event and an explicit Disconnect.
func (sess *Session) terminate() {
	if sess.State.Get() == SessionTerminated {
		return
	}
	sess.State.Set(SessionTerminated)
	_ = sess.Client.Close()
	sess.Scope.Cancel()

	preserve := sess.debugger.Options.PreserveBindingsOnTerminate
	for _, t := range sess.Threads.All() {
		t.delete()
	}
	for _, sb := range sess.SourceBindings.All() {
		sb.delete()
	}
	for _, bp := range sess.debugger.Breakpoints() {
		for _, bb := range bp.Bindings.All() {
			if bb.Session() != sess {
				continue
			}
			if preserve {
				bb.ReadOnly.Set(true)
				continue
			}
			bb.delete()
		}
	}
	ReleaseSessionID(sess.id)
}
