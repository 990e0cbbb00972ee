package services

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/renato0307/grove/internal/domain"
	"github.com/renato0307/grove/internal/logging"
	"github.com/renato0307/grove/internal/metrics"
	"github.com/renato0307/grove/internal/ports"
)

// EventFilter selects the events a subscription receives. A nil filter receives everything.
type EventFilter func(domain.Event) bool

// DefaultStallTimeout is how long a subscriber buffer may stay full before
// the subscriber is evicted
const DefaultStallTimeout = time.Second

// Subscription is one consumer of the event bus
type Subscription struct {
	// C delivers events in publish order. It is never closed; watch Done instead.
	C <-chan domain.Event
	// Done is closed on Unsubscribe and when the bus evicts the subscriber
	Done         <-chan struct{}
	ch           chan domain.Event
	done         chan struct{}
	evicted      atomic.Bool
	filter       EventFilter
	id           uint64
	once         sync.Once
	stalledSince atomic.Int64
}

// Evicted reports whether the bus dropped this subscriber for not keeping up.
// Events published after the eviction were not delivered to it.
func (s *Subscription) Evicted() bool {
	return s.evicted.Load()
}

// stallDeadline returns when a full buffer that was first seen now (or by an
// earlier publisher) turns into an eviction
func (s *Subscription) stallDeadline(now time.Time, timeout time.Duration) time.Time {
	s.stalledSince.CompareAndSwap(0, now.UnixNano())
	return time.Unix(0, s.stalledSince.Load()).Add(timeout)
}

// EventBus fans events out to subscribers. Publish waits on a full subscriber
// buffer until it drains, the subscriber leaves or the publish context ends.
// A buffer that stays full for the stall timeout evicts its subscriber, so a
// consumer that stops reading delays publishers by at most that long.
type EventBus struct {
	bufferSize   int
	mu           sync.RWMutex
	nextID       uint64
	stallTimeout time.Duration
	subscribers  map[uint64]*Subscription
}

// Verify interface compliance at compile time
var _ ports.EventPublisher = (*EventBus)(nil)

// NewEventBus creates an EventBus with the given per-subscriber buffer
func NewEventBus(bufferSize int) *EventBus {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &EventBus{
		bufferSize:   bufferSize,
		stallTimeout: DefaultStallTimeout,
		subscribers:  make(map[uint64]*Subscription),
	}
}

// SetStallTimeout changes how long a full subscriber buffer is tolerated
func (b *EventBus) SetStallTimeout(timeout time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stallTimeout = timeout
}

// Subscribe registers a consumer. Callers must Unsubscribe when done.
func (b *EventBus) Subscribe(filter EventFilter) *Subscription {
	ch := make(chan domain.Event, b.bufferSize)
	done := make(chan struct{})

	b.mu.Lock()
	b.nextID++
	sub := &Subscription{
		C:      ch,
		Done:   done,
		ch:     ch,
		done:   done,
		filter: filter,
		id:     b.nextID,
	}
	b.subscribers[sub.id] = sub
	count := len(b.subscribers)
	b.mu.Unlock()

	metrics.EventSubscribers.Inc()
	logging.Logger.Debug("Event subscriber added", "subscriber_id", sub.id, "subscribers", count)
	return sub
}

// Unsubscribe removes a consumer and releases any publisher blocked on it
func (b *EventBus) Unsubscribe(sub *Subscription) {
	b.remove(sub, "Event subscriber removed")
}

func (b *EventBus) evict(sub *Subscription, event domain.Event) {
	sub.evicted.Store(true)
	b.remove(sub, "Event subscriber evicted, buffer stayed full")
	logging.Logger.Warn("Evicted slow event subscriber", "subscriber_id", sub.id, "type", event.Type)
}

func (b *EventBus) remove(sub *Subscription, msg string) {
	sub.once.Do(func() {
		close(sub.done)

		b.mu.Lock()
		delete(b.subscribers, sub.id)
		b.mu.Unlock()

		metrics.EventSubscribers.Dec()
		logging.Logger.Debug(msg, "subscriber_id", sub.id)
	})
}

// Publish implements EventPublisher.Publish
func (b *EventBus) Publish(ctx context.Context, event domain.Event) {
	b.mu.RLock()
	targets := make([]*Subscription, 0, len(b.subscribers))
	for _, sub := range b.subscribers {
		if sub.filter == nil || sub.filter(event) {
			targets = append(targets, sub)
		}
	}
	stallTimeout := b.stallTimeout
	b.mu.RUnlock()

	for _, sub := range targets {
		select {
		case sub.ch <- event:
			sub.stalledSince.Store(0)
			continue
		case <-sub.done:
			continue
		default:
		}

		// Every publisher waiting on this subscriber shares one deadline
		deadline := sub.stallDeadline(time.Now(), stallTimeout)
		logging.Logger.Debug("Event subscriber is slow, waiting", "subscriber_id", sub.id, "type", event.Type)
		timer := time.NewTimer(time.Until(deadline))
		select {
		case sub.ch <- event:
			sub.stalledSince.Store(0)
		case <-sub.done:
		case <-timer.C:
			b.evict(sub, event)
		case <-ctx.Done():
			logging.Logger.Warn("Event not delivered, publish cancelled",
				"subscriber_id", sub.id, "type", event.Type, "error", ctx.Err())
		}
		timer.Stop()
	}
}
