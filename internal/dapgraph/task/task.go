// Package task implements the cooperative task runtime (C4): the
// suspension points a cooperative single-threaded scheduler would
// provide — spawn, await, await-all, timeout, one-shot events, a
// FIFO-fair cancellable mutex, and memoized/coalesced calls — mapped
// onto goroutines, channels and context.Context. Go has no native
// coroutine primitive, so the goal is to preserve the *observable*
// ordering guarantees (O1-O4) rather than the literal mechanism.
package task

import (
	"context"
	"sync"

	"github.com/dshills/dapgraph/internal/dapgraph/logging"
)

// OrphanSink receives the result of a task whose caller never awaited
// it and which failed. The default logs a warning.
type OrphanSink func(err error)

var defaultOrphanSink OrphanSink = func(err error) {
	logging.Default().WithComponent("task").Warn("orphaned task failed: %v", err)
}

// SetOrphanSink overrides the process-wide orphan sink.
func SetOrphanSink(fn OrphanSink) {
	if fn == nil {
		fn = defaultOrphanSink
	}
	orphanMu.Lock()
	orphanSink = fn
	orphanMu.Unlock()
}

var (
	orphanMu   sync.Mutex
	orphanSink = defaultOrphanSink
)

func reportOrphan(err error) {
	orphanMu.Lock()
	sink := orphanSink
	orphanMu.Unlock()
	sink(err)
}

// Task is a cancellable handle to a unit of concurrent work with an
// awaitable result.
type Task struct {
	ctx    context.Context
	cancel context.CancelFunc

	done chan struct{}

	mu       sync.Mutex
	result   any
	err      error
	awaited  bool
	cleanups []func()
}

// Spawn starts fn on its own goroutine and returns a handle to it. The
// context passed to fn is derived from ctx and is cancelled when the
// task is cancelled or when ctx itself is cancelled, establishing the
// same parent-cancels-children relationship a cooperative scheduler's
// task tree would have.
func Spawn(ctx context.Context, fn func(context.Context) (any, error)) *Task {
	taskCtx, cancel := context.WithCancel(ctx)
	t := &Task{ctx: taskCtx, cancel: cancel, done: make(chan struct{})}

	go func() {
		result, err := fn(taskCtx)

		t.mu.Lock()
		t.result, t.err = result, err
		cleanups := t.cleanups
		t.cleanups = nil
		awaited := t.awaited
		t.mu.Unlock()

		if taskCtx.Err() != nil {
			for i := len(cleanups) - 1; i >= 0; i-- {
				cleanups[i]()
			}
		}
		close(t.done)

		if err != nil && !awaited {
			reportOrphan(err)
		}
	}()

	return t
}

// OnCancel registers a cleanup to run, LIFO with respect to other
// registrations, once the task's context is observed cancelled and the
// task function has returned.
func (t *Task) OnCancel(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cleanups = append(t.cleanups, fn)
}

// Cancel cancels the task's context. It does not block for the task
// function to observe cancellation; use Await to do that.
func (t *Task) Cancel() { t.cancel() }

// Done returns a channel closed when the task has finished (normally,
// by error, or by cancellation).
func (t *Task) Done() <-chan struct{} { return t.done }

// Await blocks until the task finishes or ctx is cancelled, whichever
// comes first, and returns the task's result.
func (t *Task) Await(ctx context.Context) (any, error) {
	t.mu.Lock()
	t.awaited = true
	t.mu.Unlock()

	select {
	case <-t.done:
		t.mu.Lock()
		defer t.mu.Unlock()
		return t.result, t.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
