package query

import (
	"testing"

	"github.com/dshills/dapgraph/internal/dapgraph/dap"
	"github.com/dshills/dapgraph/internal/dapgraph/model"
)

func TestQueryNavigatesSessionsAndThreads(t *testing.T) {
	root := model.NewRoot(model.DefaultOptions(), nil)
	sess := model.NewSession(root, nil, "seed", nil)
	sess.State.Set(model.SessionStopped)
	model.ApplyThreadEvent(sess, dap.ThreadEventBody{Reason: "started", ThreadID: 1})
	model.ApplyThreadEvent(sess, dap.ThreadEventBody{Reason: "started", ThreadID: 2})

	u, err := Parse("/sessions/threads")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	results, err := Query(root, nil, u)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 threads, got %d", len(results))
	}
}

func TestQueryFiltersBySessionState(t *testing.T) {
	root := model.NewRoot(model.DefaultOptions(), nil)
	running := model.NewSession(root, nil, "run1", nil)
	running.State.Set(model.SessionRunning)
	stopped := model.NewSession(root, nil, "stop1", nil)
	stopped.State.Set(model.SessionStopped)

	u, err := Parse("sessions(state=stopped)")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	results, err := Query(root, nil, u)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) != 1 || results[0] != model.Entity(stopped) {
		t.Fatalf("expected only the stopped session, got %+v", results)
	}
}

func TestQueryIndexSelectsSingleResult(t *testing.T) {
	root := model.NewRoot(model.DefaultOptions(), nil)
	sess := model.NewSession(root, nil, "seed", nil)
	model.ApplyThreadEvent(sess, dap.ThreadEventBody{Reason: "started", ThreadID: 10})
	model.ApplyThreadEvent(sess, dap.ThreadEventBody{Reason: "started", ThreadID: 20})

	u, err := Parse("/sessions/threads[1]")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	results, err := Query(root, nil, u)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected exactly 1 result, got %d", len(results))
	}
	th := results[0].(*model.Thread)
	if th.ID != 20 {
		t.Errorf("expected thread 20 at index 1, got %d", th.ID)
	}
}

func TestQueryOutOfRangeIndexReturnsEmpty(t *testing.T) {
	root := model.NewRoot(model.DefaultOptions(), nil)
	model.NewSession(root, nil, "seed", nil)

	u, err := Parse("/sessions[5]")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	results, err := Query(root, nil, u)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected 0 results for out-of-range index, got %d", len(results))
	}
}

func TestQueryUnknownEdgeErrors(t *testing.T) {
	root := model.NewRoot(model.DefaultOptions(), nil)
	u, err := Parse("/bogus")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := Query(root, nil, u); err == nil {
		t.Fatal("expected error for unknown edge on debugger root")
	}
}

func TestResolveDetectsURIVsURL(t *testing.T) {
	root := model.NewRoot(model.DefaultOptions(), nil)
	sess := model.NewSession(root, nil, "seed", nil)

	single, results, err := Resolve(root, nil, sess.URI())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if single != model.Entity(sess) || results != nil {
		t.Fatalf("expected a direct URI hit, got single=%v results=%v", single, results)
	}

	single, results, err = Resolve(root, nil, "/sessions")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if single != model.Entity(sess) || len(results) != 1 {
		t.Fatalf("expected the sole session back as both single and results, got single=%v results=%v", single, results)
	}
}

func TestResolveUnknownURIReturnsNilWithoutError(t *testing.T) {
	root := model.NewRoot(model.DefaultOptions(), nil)
	single, results, err := Resolve(root, nil, "session:doesnotexist")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if single != nil || results != nil {
		t.Fatalf("expected nil/nil for an unknown URI, got single=%v results=%v", single, results)
	}
}

func TestSourceBreakpointsEdge(t *testing.T) {
	root := model.NewRoot(model.DefaultOptions(), nil)
	src := root.Source("main.go")
	model.NewBreakpoint(root, src, 10)
	model.NewBreakpoint(root, src, 20)

	u, err := Parse("/sources(key=main.go)/breakpoints")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	results, err := Query(root, nil, u)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 breakpoints under the source, got %d", len(results))
	}
}
