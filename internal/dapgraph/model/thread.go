package model

import (
	"context"
	"sync"

	"github.com/dshills/dapgraph/internal/dapgraph/dap"
	"github.com/dshills/dapgraph/internal/dapgraph/errs"
	"github.com/dshills/dapgraph/internal/dapgraph/graph"
)

// Thread is one adapter-reported thread of execution within a Session
// (§3).
type Thread struct {
	graph.Base
	sess *Session

	ID int

	Name    *graph.Signal[string]
	State   *graph.Signal[ThreadState]
	Stops   *graph.Signal[int]
	Focused *graph.Signal[bool]

	// Stacks is ordered newest-first by sequence (§3: "ordered
	// newest-first by sequence").
	Stacks *graph.Edge[*Stack]

	CurrentStack *graph.Rollup[*Stack]

	mu      sync.Mutex
	stackSeq int
}

func newThread(sess *Session, id int, name string) *Thread {
	t := &Thread{
		Base:    graph.NewBase(threadURI(sess.ID(), id)),
		sess:    sess,
		ID:      id,
		Name:    graph.NewSignal(name),
		State:   graph.NewSignal(ThreadRunning),
		Stops:   graph.NewSignal(0),
		Focused: graph.NewSignal(false),
	}
	t.Stacks = graph.NewEdge(func(s *Stack) string { return s.URI() },
		func(a, b *Stack) bool { return a.Seq > b.Seq })
	t.CurrentStack = graph.NewRollup(func() *Stack {
		s, _ := t.Stacks.First(func(s *Stack) bool { return s.Index.Get() == 0 })
		return s
	})
	return t
}

func (t *Thread) session() *Session { return t.sess }

// Session returns the owning Session.
func (t *Thread) Session() *Session { return t.sess }

// pushStack records a fresh Stack snapshot on top of history, shifting
// every existing Stack's Index up by one and clearing IsCurrent on the
// prior top (I3: at most one current Stack per Thread).
func (t *Thread) pushStack() *Stack {
	t.mu.Lock()
	t.stackSeq++
	seq := t.stackSeq
	t.mu.Unlock()

	for _, s := range t.Stacks.All() {
		if top, ok := s.TopFrame(); ok {
			top.Active.Set(false)
		}
		s.Index.Set(s.Index.Get() + 1)
		s.IsCurrent.Set(false)
	}

	s := newStack(t, seq)
	t.Stacks.Link(s)
	t.sess.register(s)
	t.CurrentStack.Recompute()
	t.enforceRetention()
	return s
}

// enforceRetention deletes the oldest Stack beyond the configured
// retention bound, cascading to its Frames/Scopes/Variables (Open
// Question Q1).
func (t *Thread) enforceRetention() {
	n := t.sess.debugger.Options.StackRetention
	if n <= 0 {
		return
	}
	all := t.Stacks.All() // newest-first
	for len(all) > n {
		oldest := all[len(all)-1]
		t.deleteStack(oldest)
		all = all[:len(all)-1]
	}
}

func (t *Thread) deleteStack(s *Stack) {
	if !s.MarkDeleted() {
		return
	}
	t.Stacks.Unlink(s)
	t.sess.debugger.lock()
	defer t.sess.debugger.unlock()
	t.sess.debugger.unregister(s)
	for _, f := range s.Frames.All() {
		t.sess.debugger.unregister(f)
		for _, sc := range f.Scopes.All() {
			t.sess.debugger.unregister(sc)
			for _, v := range sc.Variables.All() {
				t.sess.debugger.unregister(v)
			}
		}
	}
}

// invalidateStacks clears Stacks (e.g. on continued, or an
// `invalidated` event naming "stacks" for this thread) without
// touching historical retention accounting: a fresh fetch on the next
// stop rebuilds from a seq one past the last.
func (t *Thread) invalidateStacks() {
	for _, s := range t.Stacks.All() {
		t.deleteStack(s)
	}
}

// Continue resumes this thread, optimistically applying the same
// mutation the bridge's `continued` handler would apply, since many
// adapters omit the `continued` event after a successful response.
func (t *Thread) Continue(ctx context.Context) (*dap.ContinueResponseBody, error) {
	result, err := runAsTask(ctx, func(ctx context.Context) (*dap.ContinueResponseBody, error) {
		body, err := t.sess.Client.Continue(ctx, dap.ContinueArguments{ThreadID: t.ID})
		if err != nil {
			return nil, err
		}
		if body.AllThreadsContinued {
			ApplyContinued(t.sess, dap.ContinuedEventBody{ThreadID: t.ID, AllThreadsContinued: true})
		} else {
			ApplyContinued(t.sess, dap.ContinuedEventBody{ThreadID: t.ID})
		}
		return body, nil
	})
	if err != nil {
		return nil, errs.Wrap(t.URI(), "Continue", err)
	}
	return result, nil
}

// Pause requests a pause; the actual state transition arrives via the
// subsequent `stopped` event.
func (t *Thread) Pause(ctx context.Context) error {
	_, err := runAsTask(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, t.sess.Client.Pause(ctx, dap.PauseArguments{ThreadID: t.ID})
	})
	if err != nil {
		return errs.Wrap(t.URI(), "Pause", err)
	}
	return nil
}

// Granularity values for the step* methods ("statement", "line",
// "instruction" per the base protocol).
const (
	GranularityStatement   = "statement"
	GranularityLine        = "line"
	GranularityInstruction = "instruction"
)

// StepOver steps over the current line/statement.
func (t *Thread) StepOver(ctx context.Context, granularity string) error {
	_, err := runAsTask(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, t.sess.Client.Next(ctx, dap.NextArguments{ThreadID: t.ID, Granularity: granularity})
	})
	if err != nil {
		return errs.Wrap(t.URI(), "StepOver", err)
	}
	return nil
}

// StepIn steps into the current call.
func (t *Thread) StepIn(ctx context.Context, granularity string) error {
	_, err := runAsTask(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, t.sess.Client.StepIn(ctx, dap.StepInArguments{ThreadID: t.ID, Granularity: granularity})
	})
	if err != nil {
		return errs.Wrap(t.URI(), "StepIn", err)
	}
	return nil
}

// StepOut steps out of the current frame.
func (t *Thread) StepOut(ctx context.Context, granularity string) error {
	_, err := runAsTask(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, t.sess.Client.StepOut(ctx, dap.StepOutArguments{ThreadID: t.ID, Granularity: granularity})
	})
	if err != nil {
		return errs.Wrap(t.URI(), "StepOut", err)
	}
	return nil
}

func (t *Thread) delete() {
	if !t.MarkDeleted() {
		return
	}
	t.sess.Threads.Unlink(t)
	t.invalidateStacks()
	t.sess.debugger.lock()
	t.sess.debugger.unregister(t)
	t.sess.debugger.unlock()
}
