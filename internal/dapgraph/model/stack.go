package model

import "github.com/dshills/dapgraph/internal/dapgraph/graph"

// Stack is one snapshot of a Thread's call stack, taken on each stop
// (§3). Stacks are retained as history (bounded by Options.StackRetention,
// 0 = unbounded) rather than overwritten, so a consumer can inspect a
// prior stop after stepping past it.
type Stack struct {
	graph.Base
	thread *Thread

	Seq int // monotonic, assigned at creation; higher is more recent

	Index     *graph.Signal[int]  // 0 = most recent; recomputed on each push
	IsCurrent *graph.Signal[bool] // true iff Index == 0

	Frames *graph.Edge[*Frame]
}

func newStack(thread *Thread, seq int) *Stack {
	s := &Stack{
		Base:      graph.NewBase(stackURI(thread.session().ID(), thread.ID, seq)),
		thread:    thread,
		Seq:       seq,
		Index:     graph.NewSignal(0),
		IsCurrent: graph.NewSignal(true),
	}
	s.Frames = graph.NewEdge(func(f *Frame) string { return f.URI() },
		func(a, b *Frame) bool { return a.Index.Get() < b.Index.Get() })
	return s
}

func (s *Stack) session() *Session { return s.thread.session() }

// Thread returns the owning Thread.
func (s *Stack) Thread() *Thread { return s.thread }

// TopFrame returns the frame at Index 0, if any.
func (s *Stack) TopFrame() (*Frame, bool) {
	return s.Frames.First(func(f *Frame) bool { return f.Index.Get() == 0 })
}
