package query

import (
	"testing"

	"github.com/dshills/dapgraph/internal/dapgraph/dap"
	"github.com/dshills/dapgraph/internal/dapgraph/model"
)

func TestWatchTracksNewSessions(t *testing.T) {
	root := model.NewRoot(model.DefaultOptions(), nil)
	sess := model.NewSession(root, nil, "seed", nil)
	model.ApplyThreadEvent(sess, dap.ThreadEventBody{Reason: "started", ThreadID: 1})

	u, err := Parse("/sessions/threads")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	view, err := Watch(root, nil, root.RootScope, u)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	if view.Len() != 1 {
		t.Fatalf("expected 1 thread initially, got %d", view.Len())
	}

	second := model.NewSession(root, nil, "seed2", nil)
	model.ApplyThreadEvent(second, dap.ThreadEventBody{Reason: "started", ThreadID: 2})

	if view.Len() != 2 {
		t.Fatalf("expected watch to pick up the new session's thread, got %d", view.Len())
	}
}
