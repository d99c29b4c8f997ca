package bpsync

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/dshills/dapgraph/internal/dapgraph/dap"
	"github.com/dshills/dapgraph/internal/dapgraph/model"
)

// fakeTransport is an in-memory dap.Transport: Send records the
// request and, if a responder is installed for its command, replies
// with the matching response on the next Receive.
type fakeTransport struct {
	mu        sync.Mutex
	inbox     chan *dap.Message
	responder func(req dap.Request) (body any, success bool, message string)
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

	body, success, message := responder(req)
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
		Message:         message,
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

func newTestSession(t *testing.T) (*model.Debugger, *model.Session, *fakeTransport) {
	t.Helper()
	root := model.NewRoot(model.DefaultOptions(), nil)
	transport := newFakeTransport()
	client := dap.NewClient(transport)
	t.Cleanup(func() { _ = client.Close() })
	sess := model.NewSession(root, nil, "test", client)
	sess.State.Set(model.SessionRunning)
	return root, sess, transport
}

func TestSyncSourcePushesEnabledBreakpoints(t *testing.T) {
	root, sess, transport := newTestSession(t)

	transport.responder = func(req dap.Request) (any, bool, string) {
		if req.Command != "setBreakpoints" {
			return nil, true, ""
		}
		var args dap.SetBreakpointsArguments
		_ = json.Unmarshal(req.Arguments, &args)
		resp := make([]dap.Breakpoint, len(args.Breakpoints))
		for i, b := range args.Breakpoints {
			resp[i] = dap.Breakpoint{ID: 100 + i, Verified: true, Line: b.Line}
		}
		return dap.SetBreakpointsResponseBody{Breakpoints: resp}, true, ""
	}

	src := root.Source("main.go")
	bp := model.NewBreakpoint(root, src, 42)

	sync := New(root)
	sync.Track(bp)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if bb, ok := bp.Bindings.First(func(bb *model.BreakpointBinding) bool { return bb.Session() == sess }); ok && bb.Verified.Get() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("breakpoint binding never converged to verified")
}

func TestSyncSourceClearsDisabledBreakpointBinding(t *testing.T) {
	root, sess, transport := newTestSession(t)

	var lastArgs dap.SetBreakpointsArguments
	transport.responder = func(req dap.Request) (any, bool, string) {
		if req.Command != "setBreakpoints" {
			return nil, true, ""
		}
		_ = json.Unmarshal(req.Arguments, &lastArgs)
		resp := make([]dap.Breakpoint, len(lastArgs.Breakpoints))
		for i, b := range lastArgs.Breakpoints {
			resp[i] = dap.Breakpoint{ID: 1 + i, Verified: true, Line: b.Line}
		}
		return dap.SetBreakpointsResponseBody{Breakpoints: resp}, true, ""
	}

	src := root.Source("main.go")
	bp := model.NewBreakpoint(root, src, 7)

	sync := New(root)
	sync.Track(bp)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := bp.Bindings.First(func(bb *model.BreakpointBinding) bool { return bb.Session() == sess }); ok {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	bp.Disable()

	deadline = time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := bp.Bindings.First(func(bb *model.BreakpointBinding) bool { return bb.Session() == sess }); !ok {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("binding for disabled breakpoint was never cleared")
}

func TestSyncFunctionBreakpointsGatedByCapability(t *testing.T) {
	root, sess, transport := newTestSession(t)

	called := false
	transport.responder = func(req dap.Request) (any, bool, string) {
		if req.Command == "setFunctionBreakpoints" {
			called = true
		}
		return dap.SetBreakpointsResponseBody{}, true, ""
	}

	sync := New(root)
	sync.SetFunctionBreakpoints([]FunctionBreakpointSpec{{Name: "main.main"}})

	time.Sleep(50 * time.Millisecond)
	if called {
		t.Fatal("setFunctionBreakpoints sent despite missing capability")
	}

	sess.Capabilities.Set(sess.Capabilities.Get())
	caps := sess.Capabilities.Get()
	caps.SupportsFunctionBreakpoints = true
	sess.Capabilities.Set(caps)

	sync.SetFunctionBreakpoints([]FunctionBreakpointSpec{{Name: "main.main"}})

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if called {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("setFunctionBreakpoints was never sent once capability was enabled")
}
