package query

import (
	"testing"

	"github.com/dshills/dapgraph/internal/dapgraph/dap"
	"github.com/dshills/dapgraph/internal/dapgraph/model"
)

func TestFocusContextResolvesSessionAndThread(t *testing.T) {
	root := model.NewRoot(model.DefaultOptions(), nil)
	sess := model.NewSession(root, nil, "seed", nil)
	model.ApplyThreadEvent(sess, dap.ThreadEventBody{Reason: "started", ThreadID: 1})
	th, _ := sess.Threads.First(func(t *model.Thread) bool { return t.ID == 1 })

	fc := NewFocusContext(root)

	root.FocusedURL.Set(th.URI())
	if fc.Thread.Get() != th {
		t.Errorf("expected focused thread to resolve, got %v", fc.Thread.Get())
	}
	if fc.Session.Get() != sess {
		t.Errorf("expected focused session to walk up from thread, got %v", fc.Session.Get())
	}
	if fc.Frame.Get() != nil {
		t.Errorf("expected no focused frame, got %v", fc.Frame.Get())
	}

	root.FocusedURL.Set(sess.URI())
	if fc.Session.Get() != sess {
		t.Errorf("expected focused session to resolve directly, got %v", fc.Session.Get())
	}
	if fc.Thread.Get() != nil {
		t.Errorf("expected no focused thread once focus moves to the session, got %v", fc.Thread.Get())
	}
}

func TestFocusMarkerResolvesViaQuery(t *testing.T) {
	root := model.NewRoot(model.DefaultOptions(), nil)
	sess := model.NewSession(root, nil, "seed", nil)
	fc := NewFocusContext(root)
	root.FocusedURL.Set(sess.URI())

	u, err := Parse("@session")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	results, err := Query(root, fc, u)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) != 1 || results[0] != model.Entity(sess) {
		t.Fatalf("expected @session to resolve to the focused session, got %+v", results)
	}
}
