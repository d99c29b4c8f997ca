package event

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/tidwall/match"
)

// Stats reports bus activity counters, read via Bus.Stats.
type Stats struct {
	EventsPublished   uint64
	EventsDelivered   uint64
	EventsDropped     uint64
	HandlerPanics     uint64
	ActiveSubscribers int
	QueueDepth        int
}

// Bus publishes topic-addressed values to pattern-matched subscribers.
type Bus interface {
	// Publish delivers synchronously, blocking until every matching
	// handler has run.
	Publish(ctx context.Context, value any) error
	// PublishAsync enqueues value for delivery on the bus's worker
	// goroutines and returns without waiting for handlers to run.
	PublishAsync(ctx context.Context, value any) error

	SubscribeFunc(pattern Topic, fn HandlerFunc) (Subscription, error)
	Unsubscribe(sub Subscription) error

	Start() error
	Stop(ctx context.Context) error

	Stats() Stats
	IsRunning() bool
}

// busConfig is set by BusOption at construction.
type busConfig struct {
	queueSize   int
	workerCount int
}

func defaultBusConfig() busConfig {
	return busConfig{queueSize: 256, workerCount: 2}
}

// BusOption configures a Bus at construction.
type BusOption func(*busConfig)

// WithQueueSize bounds the async delivery queue. Events published past
// this depth are dropped rather than blocking the publisher.
func WithQueueSize(n int) BusOption {
	return func(c *busConfig) { c.queueSize = n }
}

// WithWorkerCount sets how many goroutines drain the async queue.
func WithWorkerCount(n int) BusOption {
	return func(c *busConfig) { c.workerCount = n }
}

type queuedDelivery struct {
	ctx   context.Context
	value any
	sub   *subscription
}

type bus struct {
	mu   sync.RWMutex
	subs []*subscription

	queue chan queuedDelivery
	wg    sync.WaitGroup

	running atomic.Bool
	config  busConfig

	published  atomic.Uint64
	delivered  atomic.Uint64
	dropped    atomic.Uint64
	panicked   atomic.Uint64
}

// NewBus constructs a Bus. Start must be called before Publish or
// PublishAsync delivers anything; until then both return
// ErrBusNotRunning.
func NewBus(opts ...BusOption) Bus {
	cfg := defaultBusConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &bus{config: cfg}
}

func (b *bus) Start() error {
	if !b.running.CompareAndSwap(false, true) {
		return ErrBusAlreadyRunning
	}
	b.queue = make(chan queuedDelivery, b.config.queueSize)
	for i := 0; i < b.config.workerCount; i++ {
		b.wg.Add(1)
		go b.worker()
	}
	return nil
}

func (b *bus) Stop(ctx context.Context) error {
	if !b.running.CompareAndSwap(true, false) {
		return ErrBusNotRunning
	}
	close(b.queue)

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *bus) IsRunning() bool { return b.running.Load() }

func (b *bus) worker() {
	defer b.wg.Done()
	for d := range b.queue {
		b.deliver(d.ctx, d.value, d.sub)
	}
}

func (b *bus) deliver(ctx context.Context, value any, sub *subscription) {
	defer func() {
		if r := recover(); r != nil {
			b.panicked.Add(1)
		}
	}()
	if err := sub.handler(ctx, value); err == nil {
		b.delivered.Add(1)
	}
}

func (b *bus) topicOf(value any) (Topic, bool) {
	tp, ok := value.(TopicProvider)
	if !ok {
		return "", false
	}
	return tp.EventTopic(), true
}

func (b *bus) matching(t Topic) []*subscription {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var out []*subscription
	for _, s := range b.subs {
		if !s.isActive() {
			continue
		}
		if string(s.pattern) == string(t) || match.Match(string(t), string(s.pattern)) {
			out = append(out, s)
		}
	}
	return out
}

func (b *bus) Publish(ctx context.Context, value any) error {
	if !b.running.Load() {
		return ErrBusNotRunning
	}
	t, ok := b.topicOf(value)
	if !ok {
		return ErrInvalidTopic
	}
	subs := b.matching(t)
	if len(subs) == 0 {
		return nil
	}
	b.published.Add(1)
	for _, s := range subs {
		b.deliver(ctx, value, s)
	}
	return nil
}

func (b *bus) PublishAsync(ctx context.Context, value any) error {
	if !b.running.Load() {
		return ErrBusNotRunning
	}
	t, ok := b.topicOf(value)
	if !ok {
		return ErrInvalidTopic
	}
	subs := b.matching(t)
	if len(subs) == 0 {
		return nil
	}
	b.published.Add(1)
	for _, s := range subs {
		select {
		case b.queue <- queuedDelivery{ctx: ctx, value: value, sub: s}:
		default:
			b.dropped.Add(1)
		}
	}
	return nil
}

func (b *bus) SubscribeFunc(pattern Topic, fn HandlerFunc) (Subscription, error) {
	if fn == nil {
		return nil, ErrNilHandler
	}
	if pattern == "" {
		return nil, ErrInvalidTopic
	}
	sub := newSubscription(generateSubID(), pattern, fn)
	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()
	return sub, nil
}

func (b *bus) Unsubscribe(sub Subscription) error {
	s, ok := sub.(*subscription)
	if !ok || s == nil {
		return ErrSubscriptionNotFound
	}
	s.Cancel()

	b.mu.Lock()
	defer b.mu.Unlock()
	for i, existing := range b.subs {
		if existing == s {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return nil
		}
	}
	return ErrSubscriptionNotFound
}

func (b *bus) Stats() Stats {
	b.mu.RLock()
	active := 0
	for _, s := range b.subs {
		if s.isActive() {
			active++
		}
	}
	b.mu.RUnlock()

	return Stats{
		EventsPublished:   b.published.Load(),
		EventsDelivered:   b.delivered.Load(),
		EventsDropped:     b.dropped.Load(),
		HandlerPanics:     b.panicked.Load(),
		ActiveSubscribers: active,
		QueueDepth:        len(b.queue),
	}
}
