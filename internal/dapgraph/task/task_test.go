package task

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSpawnAwait(t *testing.T) {
	ctx := context.Background()
	tk := Spawn(ctx, func(context.Context) (any, error) {
		return 42, nil
	})

	v, err := tk.Await(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.(int) != 42 {
		t.Fatalf("got %v, want 42", v)
	}
}

func TestSpawnCancelRunsCleanupLIFO(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var order []int

	started := make(chan struct{})
	tk := Spawn(ctx, func(taskCtx context.Context) (any, error) {
		close(started)
		<-taskCtx.Done()
		return nil, taskCtx.Err()
	})
	tk.OnCancel(func() { order = append(order, 1) })
	tk.OnCancel(func() { order = append(order, 2) })

	<-started
	cancel()
	tk.Cancel()
	<-tk.Done()

	if len(order) != 2 || order[0] != 2 || order[1] != 1 {
		t.Fatalf("cleanups did not run LIFO: %v", order)
	}
}

func TestAwaitAllFirstErrorCancelsSiblings(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")

	failing := Spawn(ctx, func(context.Context) (any, error) {
		return nil, boom
	})
	slow := Spawn(ctx, func(taskCtx context.Context) (any, error) {
		<-taskCtx.Done()
		return nil, taskCtx.Err()
	})

	_, err := AwaitAll(ctx, failing, slow)
	if !errors.Is(err, boom) {
		t.Fatalf("got %v, want boom", err)
	}
	<-slow.Done()
	if !errors.Is(slow.err, context.Canceled) {
		t.Fatalf("sibling not cancelled: %v", slow.err)
	}
}

func TestTimeoutExpires(t *testing.T) {
	ctx := context.Background()
	_, err := Timeout(ctx, 10*time.Millisecond, func(taskCtx context.Context) (any, error) {
		<-taskCtx.Done()
		return nil, taskCtx.Err()
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("got %v, want DeadlineExceeded", err)
	}
}

func TestEventDeliversOnceToAllWaiters(t *testing.T) {
	ev := NewEvent[int]()
	ctx := context.Background()

	results := make(chan int, 2)
	for i := 0; i < 2; i++ {
		go func() {
			v, err := ev.Wait(ctx)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			results <- v
		}()
	}

	time.Sleep(5 * time.Millisecond)
	ev.Set(7)
	ev.Set(8) // no-op, first Set wins

	for i := 0; i < 2; i++ {
		if got := <-results; got != 7 {
			t.Fatalf("got %d, want 7", got)
		}
	}
}

func TestMutexCancelledWaiterAndRelock(t *testing.T) {
	m := NewMutex()
	ctx := context.Background()

	if err := m.Lock(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cancelCtx, cancel := context.WithCancel(context.Background())
	waiting := make(chan struct{})
	errCh := make(chan error, 1)
	go func() {
		close(waiting)
		errCh <- m.Lock(cancelCtx)
	}()

	<-waiting
	time.Sleep(5 * time.Millisecond)
	cancel()

	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}

	m.Unlock()
	if err := m.Lock(ctx); err != nil {
		t.Fatalf("unexpected error re-locking: %v", err)
	}
}

func TestMemoizeCoalescesConcurrentCalls(t *testing.T) {
	calls := 0
	var mu = make(chan struct{}, 1)
	mu <- struct{}{}

	release := make(chan struct{})
	fn := func(ctx context.Context, key string) (int, error) {
		<-mu
		calls++
		mu <- struct{}{}
		<-release
		return 99, nil
	}
	memoized := Memoize(fn)

	ctx := context.Background()
	results := make(chan int, 3)
	for i := 0; i < 3; i++ {
		go func() {
			v, err := memoized(ctx, "k")
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			results <- v
		}()
	}

	time.Sleep(10 * time.Millisecond)
	close(release)

	for i := 0; i < 3; i++ {
		if got := <-results; got != 99 {
			t.Fatalf("got %d, want 99", got)
		}
	}
	if calls != 1 {
		t.Fatalf("fn called %d times, want 1", calls)
	}
}
