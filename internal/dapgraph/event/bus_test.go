package event

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestBus_StartTwiceErrors(t *testing.T) {
	b := NewBus()
	if err := b.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer b.Stop(context.Background())

	if err := b.Start(); err != ErrBusAlreadyRunning {
		t.Errorf("Start again: got %v, want ErrBusAlreadyRunning", err)
	}
}

func TestBus_StopWithoutStartErrors(t *testing.T) {
	b := NewBus()
	if err := b.Stop(context.Background()); err != ErrBusNotRunning {
		t.Errorf("Stop: got %v, want ErrBusNotRunning", err)
	}
}

func TestBus_PublishBeforeStartErrors(t *testing.T) {
	b := NewBus()
	ev := NewEvent(Topic("dapgraph.session.started"), "payload", "test")
	if err := b.Publish(context.Background(), ev); err != ErrBusNotRunning {
		t.Errorf("Publish: got %v, want ErrBusNotRunning", err)
	}
}

func TestBus_PublishSync_DeliversToMatchingSubscriber(t *testing.T) {
	b := NewBus()
	if err := b.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer b.Stop(context.Background())

	var got atomic.Value
	_, err := b.SubscribeFunc(Topic("dapgraph.session.started"), func(ctx context.Context, v any) error {
		got.Store(v)
		return nil
	})
	if err != nil {
		t.Fatalf("SubscribeFunc: %v", err)
	}

	ev := NewEvent(Topic("dapgraph.session.started"), "hello", "test")
	if err := b.Publish(context.Background(), ev); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	v, ok := got.Load().(Event[string])
	if !ok {
		t.Fatal("handler was not invoked")
	}
	if v.Payload != "hello" {
		t.Errorf("Payload = %q, want %q", v.Payload, "hello")
	}
}

func TestBus_WildcardSubscriptionMatches(t *testing.T) {
	b := NewBus()
	if err := b.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer b.Stop(context.Background())

	var count atomic.Int32
	_, err := b.SubscribeFunc(Topic("dapgraph.session.*"), func(ctx context.Context, v any) error {
		count.Add(1)
		return nil
	})
	if err != nil {
		t.Fatalf("SubscribeFunc: %v", err)
	}

	_ = b.Publish(context.Background(), NewEvent(Topic("dapgraph.session.started"), 1, "test"))
	_ = b.Publish(context.Background(), NewEvent(Topic("dapgraph.session.stopped"), 1, "test"))
	_ = b.Publish(context.Background(), NewEvent(Topic("dapgraph.breakpoint.hit"), 1, "test"))

	if got := count.Load(); got != 2 {
		t.Errorf("handler invoked %d times, want 2", got)
	}
}

func TestBus_NonMatchingTopicNotDelivered(t *testing.T) {
	b := NewBus()
	if err := b.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer b.Stop(context.Background())

	called := false
	_, err := b.SubscribeFunc(Topic("dapgraph.output.*"), func(ctx context.Context, v any) error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("SubscribeFunc: %v", err)
	}

	_ = b.Publish(context.Background(), NewEvent(Topic("dapgraph.session.started"), 1, "test"))
	if called {
		t.Error("handler invoked for non-matching topic")
	}
}

func TestBus_Unsubscribe_StopsDelivery(t *testing.T) {
	b := NewBus()
	if err := b.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer b.Stop(context.Background())

	var count atomic.Int32
	sub, err := b.SubscribeFunc(Topic("dapgraph.session.started"), func(ctx context.Context, v any) error {
		count.Add(1)
		return nil
	})
	if err != nil {
		t.Fatalf("SubscribeFunc: %v", err)
	}

	_ = b.Publish(context.Background(), NewEvent(Topic("dapgraph.session.started"), 1, "test"))
	if err := b.Unsubscribe(sub); err != nil {
		t.Fatalf("Unsubscribe: %v", err)
	}
	_ = b.Publish(context.Background(), NewEvent(Topic("dapgraph.session.started"), 1, "test"))

	if got := count.Load(); got != 1 {
		t.Errorf("handler invoked %d times after unsubscribe, want 1", got)
	}
}

func TestBus_UnsubscribeUnknown_ReturnsError(t *testing.T) {
	b := NewBus()
	if err := b.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer b.Stop(context.Background())

	other := NewBus()
	_ = other.Start()
	defer other.Stop(context.Background())

	sub, _ := other.SubscribeFunc(Topic("x"), func(ctx context.Context, v any) error { return nil })
	if err := b.Unsubscribe(sub); err != ErrSubscriptionNotFound {
		t.Errorf("Unsubscribe foreign sub: got %v, want ErrSubscriptionNotFound", err)
	}
}

func TestBus_SubscribeFunc_NilHandler(t *testing.T) {
	b := NewBus()
	_ = b.Start()
	defer b.Stop(context.Background())

	if _, err := b.SubscribeFunc(Topic("x"), nil); err != ErrNilHandler {
		t.Errorf("SubscribeFunc(nil): got %v, want ErrNilHandler", err)
	}
}

func TestBus_PublishAsync_Delivers(t *testing.T) {
	b := NewBus()
	if err := b.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer b.Stop(context.Background())

	var wg sync.WaitGroup
	wg.Add(1)
	_, err := b.SubscribeFunc(Topic("dapgraph.output.appended"), func(ctx context.Context, v any) error {
		wg.Done()
		return nil
	})
	if err != nil {
		t.Fatalf("SubscribeFunc: %v", err)
	}

	if err := b.PublishAsync(context.Background(), NewEvent(Topic("dapgraph.output.appended"), "line", "test")); err != nil {
		t.Fatalf("PublishAsync: %v", err)
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for async delivery")
	}
}

func TestBus_PublishAsync_BeforeStartErrors(t *testing.T) {
	b := NewBus()
	if err := b.PublishAsync(context.Background(), NewEvent(Topic("x"), 1, "test")); err != ErrBusNotRunning {
		t.Errorf("PublishAsync: got %v, want ErrBusNotRunning", err)
	}
}

func TestBus_Publish_NonEventValue_ReturnsInvalidTopic(t *testing.T) {
	b := NewBus()
	_ = b.Start()
	defer b.Stop(context.Background())

	if err := b.Publish(context.Background(), "not an event"); err != ErrInvalidTopic {
		t.Errorf("Publish(non-event): got %v, want ErrInvalidTopic", err)
	}
}

func TestBus_Stats_TracksPublishAndDeliver(t *testing.T) {
	b := NewBus()
	_ = b.Start()
	defer b.Stop(context.Background())

	_, _ = b.SubscribeFunc(Topic("dapgraph.session.started"), func(ctx context.Context, v any) error { return nil })
	_ = b.Publish(context.Background(), NewEvent(Topic("dapgraph.session.started"), 1, "test"))

	stats := b.Stats()
	if stats.EventsPublished != 1 {
		t.Errorf("EventsPublished = %d, want 1", stats.EventsPublished)
	}
	if stats.EventsDelivered != 1 {
		t.Errorf("EventsDelivered = %d, want 1", stats.EventsDelivered)
	}
	if stats.ActiveSubscribers != 1 {
		t.Errorf("ActiveSubscribers = %d, want 1", stats.ActiveSubscribers)
	}
}

func TestBus_Stop_WaitsForWorkersToDrain(t *testing.T) {
	b := NewBus()
	_ = b.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := b.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if b.IsRunning() {
		t.Error("IsRunning() true after Stop")
	}
}
