package session

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/dshills/dapgraph/internal/dapgraph/dap"
	"github.com/dshills/dapgraph/internal/dapgraph/model"
)

// eventTransport is a dap.Transport whose Receive drains a channel of
// pre-built event messages, letting a test drive wireBridge's handlers
// without a real adapter subprocess.
type eventTransport struct {
	mu     sync.Mutex
	inbox  chan *dap.Message
	closed bool
}

func newEventTransport() *eventTransport {
	return &eventTransport{inbox: make(chan *dap.Message, 16)}
}

func (e *eventTransport) Send(*dap.Message) error { return nil }

func (e *eventTransport) Receive() (*dap.Message, error) {
	msg, ok := <-e.inbox
	if !ok {
		return nil, context.Canceled
	}
	return msg, nil
}

func (e *eventTransport) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.closed {
		e.closed = true
		close(e.inbox)
	}
	return nil
}

func (e *eventTransport) push(t *testing.T, event string, body any) {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal event body: %v", err)
	}
	evt := dap.Event{
		ProtocolMessage: dap.ProtocolMessage{Type: "event"},
		Event:           event,
		Body:            raw,
	}
	content, err := json.Marshal(evt)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	e.inbox <- &dap.Message{ContentLength: len(content), Content: content}
}

func TestWireBridgeDispatchesThreadEvent(t *testing.T) {
	root := model.NewRoot(model.DefaultOptions(), nil)
	transport := newEventTransport()
	client := dap.NewClient(transport)
	defer client.Close()
	sess := model.NewSession(root, nil, "test", client)

	wireBridge(client, sess, nil)
	transport.push(t, "thread", dap.ThreadEventBody{Reason: "started", ThreadID: 5})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := sess.Threads.First(func(th *model.Thread) bool { return th.ID == 5 }); ok {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("thread event never reached the model via wireBridge")
}

func TestWireBridgeCallsOnInitializedHook(t *testing.T) {
	root := model.NewRoot(model.DefaultOptions(), nil)
	transport := newEventTransport()
	client := dap.NewClient(transport)
	defer client.Close()
	sess := model.NewSession(root, nil, "test", client)

	called := make(chan struct{}, 1)
	wireBridge(client, sess, func() { called <- struct{}{} })
	transport.push(t, "initialized", struct{}{})

	select {
	case <-called:
	case <-time.After(2 * time.Second):
		t.Fatal("onInitialized hook was never invoked")
	}
}

func TestWireBridgeDispatchesOutputEvent(t *testing.T) {
	root := model.NewRoot(model.DefaultOptions(), nil)
	transport := newEventTransport()
	client := dap.NewClient(transport)
	defer client.Close()
	sess := model.NewSession(root, nil, "test", client)

	wireBridge(client, sess, nil)
	transport.push(t, "output", dap.OutputEventBody{Category: "stdout", Output: "hi\n"})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(sess.Outputs.All()) == 1 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("output event never reached the model via wireBridge")
}
