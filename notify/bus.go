package notify

import (
	"sync"

	"github.com/kbukum/walletkit/logger"
)

// DefaultBuffer is the subscription buffer used when Subscribe gets 0.
const DefaultBuffer = 64

// Bus fans events out to synchronous sinks and buffered subscriptions.
// A subscription that falls behind loses events rather than blocking the
// publisher.
type Bus struct {
	mu     sync.RWMutex
	sinks  []Sink
	subs   map[*Subscription]struct{}
	closed bool
	log    *logger.Logger
}

var _ Sink = (*Bus)(nil)

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		subs: make(map[*Subscription]struct{}),
		log:  logger.Get("notify"),
	}
}

// AddSink registers a synchronous consumer. Sinks are called in
// registration order.
func (b *Bus) AddSink(s Sink) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sinks = append(b.sinks, s)
}

// Subscribe opens a buffered subscription.
func (b *Bus) Subscribe(buffer int) *Subscription {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	s := &Subscription{bus: b, events: make(chan Event, buffer)}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(s.events)
		s.closed = true
		return s
	}
	b.subs[s] = struct{}{}
	return s
}

// Publish delivers ev to every sink, then to every subscription.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, s := range b.sinks {
		s.Notify(ev)
	}
	for sub := range b.subs {
		select {
		case sub.events <- ev:
		default:
			b.log.Warn("subscriber too slow, dropping event", logger.Fields(
				logger.FieldEventType, string(ev.Type),
				"event_id", ev.ID,
			))
		}
	}
}

// Notify lets a Bus be chained as another publisher's sink.
func (b *Bus) Notify(ev Event) { b.Publish(ev) }

// Subscribers returns the number of open subscriptions.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close ends every subscription. Later publishes are dropped.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for sub := range b.subs {
		sub.closed = true
		close(sub.events)
		delete(b.subs, sub)
	}
}

// Subscription is a buffered stream of events.
type Subscription struct {
	bus    *Bus
	events chan Event
	closed bool
}

// Events returns the stream. It is closed by Close or when the bus closes.
func (s *Subscription) Events() <-chan Event { return s.events }

// Close detaches the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	delete(s.bus.subs, s)
	close(s.events)
}
