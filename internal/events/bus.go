package events

import (
	"sync"
	"sync/atomic"

	"github.com/kelindar/event"
	"github.com/smazurov/bedrockd/internal/bedrock"
)

const (
	// DefaultReplaySize is the number of events kept for late subscribers.
	DefaultReplaySize = 300
	// DefaultQueueSize is the per-subscriber live queue length.
	DefaultQueueSize = 64
)

// Option configures a Bus.
type Option func(*Bus)

// WithReplaySize sets how many recent events are kept for replay.
func WithReplaySize(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.replaySize = n
		}
	}
}

// WithQueueSize sets the per-subscriber live queue length.
func WithQueueSize(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.queueSize = n
		}
	}
}

// WithDropHandler registers a callback invoked each time a saturated
// subscriber misses an event.
func WithDropHandler(fn func()) Option {
	return func(b *Bus) {
		b.onDrop = fn
	}
}

// Bus broadcasts server events to any number of subscribers and keeps the
// most recent ones for replay. Live fan-out runs on a kelindar/event
// dispatcher; each subscriber owns a bounded queue and drops new events
// when that queue is full, so Publish never blocks.
type Bus struct {
	mu         sync.Mutex
	dispatcher *event.Dispatcher
	replay     *ringBuffer[Record]
	seq        uint64
	replaySize int
	queueSize  int
	onDrop     func()
	subs       map[*Subscription]struct{}
	closed     bool
}

// New creates a new event bus.
func New(opts ...Option) *Bus {
	b := &Bus{
		dispatcher: event.NewDispatcher(),
		replaySize: DefaultReplaySize,
		queueSize:  DefaultQueueSize,
		subs:       make(map[*Subscription]struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.replay = newRingBuffer[Record](b.replaySize)
	return b
}

// Publish records ev in the replay buffer and delivers it to every subscriber.
func (b *Bus) Publish(ev bedrock.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq++
	rec := Record{Seq: b.seq, Event: ev}
	b.replay.Write(rec)

	if !b.closed {
		event.Publish(b.dispatcher, rec)
	}
}

// Subscribe registers a new subscriber. The returned subscription's Replay
// holds the buffer as it was at this instant; Events carries everything
// published afterwards.
func (b *Bus) Subscribe() *Subscription {
	return b.SubscribeWithQueue(0)
}

// SubscribeWithQueue is Subscribe with a custom live queue length for
// consumers that must not miss events. A size of zero or less uses the
// bus default.
func (b *Bus) SubscribeWithQueue(size int) *Subscription {
	if size <= 0 {
		size = b.queueSize
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	s := &Subscription{
		bus:    b,
		ch:     make(chan Record, size),
		done:   make(chan struct{}),
		replay: b.replay.ReadAll(),
	}
	if b.closed {
		close(s.done)
		return s
	}

	s.unsubscribe = event.Subscribe(b.dispatcher, s.deliver)
	b.subs[s] = struct{}{}
	return s
}

// Snapshot returns the replay buffer oldest first without subscribing.
func (b *Bus) Snapshot() []bedrock.Event {
	b.mu.Lock()
	records := b.replay.ReadAll()
	b.mu.Unlock()

	out := make([]bedrock.Event, len(records))
	for i, rec := range records {
		out[i] = rec.Event
	}
	return out
}

// Close unsubscribes every live subscription and stops the dispatcher.
// Publish keeps filling the replay buffer afterwards but no longer delivers.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	subs := make([]*Subscription, 0, len(b.subs))
	for s := range b.subs {
		subs = append(subs, s)
	}
	b.mu.Unlock()

	for _, s := range subs {
		s.Close()
	}
	_ = b.dispatcher.Close()
}

func (b *Bus) remove(s *Subscription) {
	b.mu.Lock()
	delete(b.subs, s)
	b.mu.Unlock()
}

// Subscription is one consumer's view of the bus.
type Subscription struct {
	bus         *Bus
	ch          chan Record
	done        chan struct{}
	replay      []Record
	unsubscribe func()
	dropped     atomic.Uint64
	closeOnce   sync.Once
}

// Replay returns the events that were buffered when the subscription was made.
func (s *Subscription) Replay() []Record {
	return s.replay
}

// Events returns the live feed. The channel is never closed; select on Done
// to learn that the subscription ended.
func (s *Subscription) Events() <-chan Record {
	return s.ch
}

// Done is closed once the subscription is closed.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Dropped returns how many live events this subscriber missed because its
// queue was full.
func (s *Subscription) Dropped() uint64 {
	return s.dropped.Load()
}

// Close unsubscribes. It is safe to call more than once.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		if s.unsubscribe != nil {
			s.unsubscribe()
		}
		s.bus.remove(s)
		select {
		case <-s.done:
		default:
			close(s.done)
		}
	})
}

// deliver runs on the dispatcher's consumer goroutine for this subscription.
func (s *Subscription) deliver(rec Record) {
	select {
	case s.ch <- rec:
	default:
		// Drop the new event if the subscriber is saturated (non-blocking)
		s.dropped.Add(1)
		if s.bus.onDrop != nil {
			s.bus.onDrop()
		}
	}
}
