package model

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/dshills/dapgraph/internal/dapgraph/dap"
)

// fakeTransport is an in-memory dap.Transport used to drive the bridge's
// Apply* functions against a real dap.Client without a subprocess.
type fakeTransport struct {
	mu        sync.Mutex
	inbox     chan *dap.Message
	responder func(req dap.Request) (body any, success bool)
	closed    bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{inbox: make(chan *dap.Message, 16)}
}

func (f *fakeTransport) Send(msg *dap.Message) error {
	var req dap.Request
	if err := json.Unmarshal(msg.Content, &req); err != nil || req.Type != "request" {
		return nil
	}
	f.mu.Lock()
	responder := f.responder
	f.mu.Unlock()
	if responder == nil {
		return nil
	}
	body, success := responder(req)
	var raw json.RawMessage
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		raw = b
	}
	resp := dap.Response{
		ProtocolMessage: dap.ProtocolMessage{Seq: req.Seq + 1000, Type: "response"},
		RequestSeq:      req.Seq,
		Success:         success,
		Command:         req.Command,
		Body:            raw,
	}
	content, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	f.inbox <- &dap.Message{ContentLength: len(content), Content: content}
	return nil
}

func (f *fakeTransport) Receive() (*dap.Message, error) {
	msg, ok := <-f.inbox
	if !ok {
		return nil, context.Canceled
	}
	return msg, nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.inbox)
	}
	return nil
}

func newTestSession(t *testing.T) (*Debugger, *Session, *fakeTransport) {
	t.Helper()
	root := NewRoot(DefaultOptions(), nil)
	transport := newFakeTransport()
	client := dap.NewClient(transport)
	t.Cleanup(func() { _ = client.Close() })
	sess := NewSession(root, nil, "test", client)
	sess.State.Set(SessionRunning)
	return root, sess, transport
}

func TestApplyThreadEventCreatesAndDeletesThread(t *testing.T) {
	_, sess, _ := newTestSession(t)

	ApplyThreadEvent(sess, dap.ThreadEventBody{Reason: "started", ThreadID: 7})
	th, ok := sess.Threads.First(func(t *Thread) bool { return t.ID == 7 })
	if !ok {
		t.Fatal("expected thread 7 to be created")
	}

	ApplyThreadEvent(sess, dap.ThreadEventBody{Reason: "exited", ThreadID: 7})
	if th.State.Get() != ThreadExited {
		t.Errorf("expected thread state exited, got %v", th.State.Get())
	}
	if _, ok := sess.Threads.First(func(t *Thread) bool { return t.ID == 7 }); ok {
		t.Error("expected thread to be removed after exited (immediate cleanup default)")
	}
}

func TestApplyStoppedFetchesStackAndSetsHits(t *testing.T) {
	root, sess, transport := newTestSession(t)

	transport.responder = func(req dap.Request) (any, bool) {
		if req.Command != "stackTrace" {
			return nil, true
		}
		return dap.StackTraceResponseBody{StackFrames: []dap.StackFrame{
			{ID: 1, Name: "main", Line: 10, Column: 1, Source: &dap.Source{Path: "main.go"}},
		}}, true
	}

	src := root.Source("main.go")
	bp := NewBreakpoint(root, src, 10)
	bb := NewBreakpointBinding(bp, sess)
	bb.AdapterID.Set(42)

	ApplyStopped(context.Background(), sess, dap.StoppedEventBody{ThreadID: 3, HitBreakpointIds: []int{42}})

	if sess.State.Get() != SessionStopped {
		t.Errorf("expected session stopped, got %v", sess.State.Get())
	}
	th, ok := sess.Threads.First(func(t *Thread) bool { return t.ID == 3 })
	if !ok {
		t.Fatal("expected thread 3 to exist")
	}
	if th.State.Get() != ThreadStopped {
		t.Errorf("expected thread stopped, got %v", th.State.Get())
	}
	st := th.CurrentStack.Get()
	if st == nil || st.Frames.Len() != 1 {
		t.Fatalf("expected a stack with 1 frame, got %+v", st)
	}
	if !bb.Hit.Get() {
		t.Error("expected binding 42 to be flagged hit")
	}
}

func TestApplyContinuedClearsHitsAndInvalidatesStacks(t *testing.T) {
	root, sess, transport := newTestSession(t)
	transport.responder = func(req dap.Request) (any, bool) {
		if req.Command == "stackTrace" {
			return dap.StackTraceResponseBody{StackFrames: []dap.StackFrame{{ID: 1, Name: "f", Line: 1}}}, true
		}
		return nil, true
	}

	src := root.Source("main.go")
	bp := NewBreakpoint(root, src, 1)
	bb := NewBreakpointBinding(bp, sess)
	bb.AdapterID.Set(1)

	ApplyStopped(context.Background(), sess, dap.StoppedEventBody{ThreadID: 1, HitBreakpointIds: []int{1}})
	th, _ := sess.Threads.First(func(t *Thread) bool { return t.ID == 1 })
	if th.Stacks.Len() == 0 {
		t.Fatal("expected at least one stack before continuing")
	}

	ApplyContinued(sess, dap.ContinuedEventBody{ThreadID: 1})

	if sess.State.Get() != SessionRunning {
		t.Errorf("expected session running, got %v", sess.State.Get())
	}
	if th.State.Get() != ThreadRunning {
		t.Errorf("expected thread running, got %v", th.State.Get())
	}
	if th.Stacks.Len() != 0 {
		t.Error("expected stacks to be invalidated on continue")
	}
	if bb.Hit.Get() {
		t.Error("expected hit flag to clear on continue")
	}
}

func TestApplyStoppedRecomputesFirstStoppedThread(t *testing.T) {
	root, sess, transport := newTestSession(t)
	transport.responder = func(req dap.Request) (any, bool) {
		if req.Command == "stackTrace" {
			return dap.StackTraceResponseBody{StackFrames: []dap.StackFrame{{ID: 1, Name: "f", Line: 1}}}, true
		}
		return nil, true
	}
	_ = root

	if got := sess.FirstStoppedThread.Get(); got != nil {
		t.Fatalf("expected no stopped thread before any event, got %v", got)
	}

	ApplyStopped(context.Background(), sess, dap.StoppedEventBody{ThreadID: 5})

	th, ok := sess.Threads.First(func(t *Thread) bool { return t.ID == 5 })
	if !ok {
		t.Fatal("expected thread 5 to exist")
	}
	if got := sess.FirstStoppedThread.Get(); got != th {
		t.Errorf("expected FirstStoppedThread to resolve to thread 5 after stopped, got %v", got)
	}

	ApplyContinued(sess, dap.ContinuedEventBody{ThreadID: 5})

	if got := sess.FirstStoppedThread.Get(); got != nil {
		t.Errorf("expected FirstStoppedThread to clear after continued, got %v", got)
	}
}

func TestApplyThreadEventExitedRecomputesFirstStoppedThread(t *testing.T) {
	root, sess, transport := newTestSession(t)
	root.Options.DeferredThreadCleanup = true
	transport.responder = func(req dap.Request) (any, bool) {
		if req.Command == "stackTrace" {
			return dap.StackTraceResponseBody{StackFrames: []dap.StackFrame{{ID: 1, Name: "f", Line: 1}}}, true
		}
		return nil, true
	}

	ApplyStopped(context.Background(), sess, dap.StoppedEventBody{ThreadID: 8})
	if got := sess.FirstStoppedThread.Get(); got == nil {
		t.Fatal("expected a stopped thread before exit")
	}

	ApplyThreadEvent(sess, dap.ThreadEventBody{Reason: "exited", ThreadID: 8})

	if got := sess.FirstStoppedThread.Get(); got != nil {
		t.Errorf("expected FirstStoppedThread to clear once the only stopped thread exits, got %v", got)
	}
}

func TestApplyOutputAppendsOutput(t *testing.T) {
	_, sess, _ := newTestSession(t)

	ApplyOutput(sess, dap.OutputEventBody{Category: "stdout", Output: "hello\n"})
	outs := sess.Outputs.All()
	if len(outs) != 1 {
		t.Fatalf("expected 1 output, got %d", len(outs))
	}
	if outs[0].Category != OutputConsole && outs[0].Category != OutputCategory("stdout") {
		t.Errorf("unexpected category %v", outs[0].Category)
	}
}

func TestApplyBreakpointEventUpdatesAndRemoves(t *testing.T) {
	root, sess, _ := newTestSession(t)

	src := root.Source("main.go")
	bp := NewBreakpoint(root, src, 5)
	bb := NewBreakpointBinding(bp, sess)
	bb.AdapterID.Set(9)

	ApplyBreakpointEvent(sess, dap.BreakpointEventBody{
		Reason:     "changed",
		Breakpoint: dap.Breakpoint{ID: 9, Verified: true, Line: 6},
	})
	if !bb.Verified.Get() {
		t.Error("expected binding to be marked verified")
	}
	if bb.ActualLine.Get() != 6 {
		t.Errorf("expected actual line 6, got %d", bb.ActualLine.Get())
	}

	ApplyBreakpointEvent(sess, dap.BreakpointEventBody{
		Reason:     "removed",
		Breakpoint: dap.Breakpoint{ID: 9},
	})
	if _, ok := bp.Bindings.First(func(b *BreakpointBinding) bool { return b == bb }); ok {
		t.Error("expected binding to be removed")
	}
}

func TestApplyBreakpointEventIgnoresUnknownID(t *testing.T) {
	_, sess, _ := newTestSession(t)
	ApplyBreakpointEvent(sess, dap.BreakpointEventBody{Reason: "changed", Breakpoint: dap.Breakpoint{ID: 999}})
}

func TestApplyModuleUpsertsAndRemoves(t *testing.T) {
	_, sess, _ := newTestSession(t)

	ApplyModule(sess, dap.ModuleEventBody{Reason: "new", Module: dap.Module{ID: "m1", Name: "libfoo"}})
	mods := sess.Modules.Get()
	if len(mods) != 1 || mods[0].Name != "libfoo" {
		t.Fatalf("unexpected modules after insert: %+v", mods)
	}

	ApplyModule(sess, dap.ModuleEventBody{Reason: "changed", Module: dap.Module{ID: "m1", Name: "libfoo2"}})
	mods = sess.Modules.Get()
	if len(mods) != 1 || mods[0].Name != "libfoo2" {
		t.Fatalf("unexpected modules after update: %+v", mods)
	}

	ApplyModule(sess, dap.ModuleEventBody{Reason: "removed", Module: dap.Module{ID: "m1"}})
	if len(sess.Modules.Get()) != 0 {
		t.Error("expected module to be removed")
	}
}

func TestApplyTerminatedTransitionsAndCascades(t *testing.T) {
	root, sess, _ := newTestSession(t)
	src := root.Source("main.go")
	bp := NewBreakpoint(root, src, 1)
	bb := NewBreakpointBinding(bp, sess)

	ApplyThreadEvent(sess, dap.ThreadEventBody{Reason: "started", ThreadID: 1})

	ApplyTerminated(sess)

	if sess.State.Get() != SessionTerminated {
		t.Errorf("expected terminated, got %v", sess.State.Get())
	}
	if sess.Threads.Len() != 0 {
		t.Error("expected threads to be cleared on terminate")
	}
	if _, ok := bp.Bindings.First(func(b *BreakpointBinding) bool { return b == bb }); ok {
		t.Error("expected binding to be deleted on terminate (default options)")
	}
}
