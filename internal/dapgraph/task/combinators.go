package task

import (
	"context"
	"sync"
	"time"
)

// AwaitCallback converts a callback-style registration into a single
// blocking call: register is invoked with a function that must be
// called exactly once with the eventual result. Cancelling ctx before
// the callback fires returns ctx.Err().
func AwaitCallback[T any](ctx context.Context, register func(complete func(T, error))) (T, error) {
	type outcome struct {
		v   T
		err error
	}
	ch := make(chan outcome, 1)
	var once sync.Once
	register(func(v T, err error) {
		once.Do(func() { ch <- outcome{v, err} })
	})

	select {
	case o := <-ch:
		return o.v, o.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// AwaitAll awaits every task and returns their results in the same
// order. The first error cancels the remaining siblings and is
// returned immediately once all goroutines have unwound.
func AwaitAll(ctx context.Context, tasks ...*Task) ([]any, error) {
	results := make([]any, len(tasks))
	errs := make([]error, len(tasks))

	var wg sync.WaitGroup
	wg.Add(len(tasks))

	var firstErrOnce sync.Once
	var firstErr error
	cancelSiblings := func(except int) {
		for i, t := range tasks {
			if i != except {
				t.Cancel()
			}
		}
	}

	for i, t := range tasks {
		go func(i int, t *Task) {
			defer wg.Done()
			v, err := t.Await(ctx)
			results[i] = v
			errs[i] = err
			if err != nil {
				firstErrOnce.Do(func() {
					firstErr = err
					cancelSiblings(i)
				})
			}
		}(i, t)
	}

	wg.Wait()
	return results, firstErr
}

// Timeout races fn against d. On expiry, fn's context is cancelled and
// a deadline-exceeded error is returned; the underlying goroutine is
// allowed to unwind in the background.
func Timeout(ctx context.Context, d time.Duration, fn func(context.Context) (any, error)) (any, error) {
	tctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	t := Spawn(tctx, fn)
	return t.Await(tctx)
}

// Event is a one-shot value: Set delivers v to every past and future
// Wait call exactly once it resolves; subsequent Set calls are no-ops.
type Event[T any] struct {
	once sync.Once
	done chan struct{}

	mu    sync.RWMutex
	value T
}

// NewEvent creates an unset one-shot event.
func NewEvent[T any]() *Event[T] {
	return &Event[T]{done: make(chan struct{})}
}

// Set resolves the event. Only the first call has any effect.
func (e *Event[T]) Set(v T) {
	e.once.Do(func() {
		e.mu.Lock()
		e.value = v
		e.mu.Unlock()
		close(e.done)
	})
}

// Wait blocks until the event is set or ctx is cancelled. Every caller,
// past or future relative to Set, observes the same value.
func (e *Event[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-e.done:
		e.mu.RLock()
		defer e.mu.RUnlock()
		return e.value, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
