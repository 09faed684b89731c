// Package roster maintains the set of players currently connected to the
// server by folding player events from the event bus.
package roster

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/smazurov/bedrockd/internal/bedrock"
	"github.com/smazurov/bedrockd/internal/events"
	"github.com/smazurov/bedrockd/internal/logging"
)

// queueSize is the live queue requested from the bus.
const queueSize = 1024

// Source is the part of the event bus the aggregator consumes.
type Source interface {
	SubscribeWithQueue(size int) *events.Subscription
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithClearOnStop empties the roster when the supervisor reports
// ProcessStopped. Off by default: the server never reports disconnects for
// the players it was holding when killed, so with this off those players
// stay listed until Reset.
func WithClearOnStop(enabled bool) Option {
	return func(a *Aggregator) {
		a.clearOnStop = enabled
	}
}

// WithOnChange registers a callback receiving the roster size after every
// change.
func WithOnChange(fn func(count int)) Option {
	return func(a *Aggregator) {
		a.onChange = fn
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger logging.Logger) Option {
	return func(a *Aggregator) {
		a.logger = logger
	}
}

// Aggregator keeps the list of connected players in join order.
type Aggregator struct {
	source      Source
	logger      logging.Logger
	clearOnStop bool
	onChange    func(count int)

	mu      sync.RWMutex
	players map[string]bedrock.Player
	order   []string

	lifecycleMu sync.Mutex
	sub         *events.Subscription
	wg          sync.WaitGroup
}

// New creates an aggregator over source. Call Start to begin folding.
func New(source Source, opts ...Option) *Aggregator {
	a := &Aggregator{
		source:  source,
		logger:  slog.Default(),
		players: make(map[string]bedrock.Player),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Start subscribes to the source, folds its replay synchronously and then
// keeps folding live events in the background. Calling Start twice is a no-op.
func (a *Aggregator) Start() {
	a.lifecycleMu.Lock()
	defer a.lifecycleMu.Unlock()

	if a.sub != nil {
		return
	}

	sub := a.source.SubscribeWithQueue(queueSize)
	a.sub = sub

	for _, rec := range sub.Replay() {
		a.apply(rec.Event)
	}
	a.logger.Debug("Roster replay applied", "events", len(sub.Replay()), "players", a.Len())

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.consume(sub)
	}()
}

// Close unsubscribes and waits for the background goroutine.
func (a *Aggregator) Close() {
	a.lifecycleMu.Lock()
	sub := a.sub
	a.lifecycleMu.Unlock()

	if sub == nil {
		return
	}
	sub.Close()
	a.wg.Wait()

	if dropped := sub.Dropped(); dropped > 0 {
		a.logger.Warn("Roster missed events", "dropped", dropped)
	}
}

func (a *Aggregator) consume(sub *events.Subscription) {
	for {
		select {
		case rec := <-sub.Events():
			a.apply(rec.Event)
		case <-sub.Done():
			return
		}
	}
}

// apply folds one event into the roster.
func (a *Aggregator) apply(ev bedrock.Event) {
	switch e := ev.(type) {
	case bedrock.PlayerConnected:
		a.upsert(e.Player)
	case bedrock.PlayerDisconnected:
		a.remove(e.Player.Key())
	case bedrock.ProcessStopped:
		if a.clearOnStop {
			a.Reset()
		}
	}
}

// upsert replaces a player with the same username in place, or appends.
func (a *Aggregator) upsert(p bedrock.Player) {
	a.mu.Lock()
	key := p.Key()
	if _, ok := a.players[key]; !ok {
		a.order = append(a.order, key)
	}
	a.players[key] = p
	count := len(a.order)
	a.mu.Unlock()

	a.logger.Debug("Player joined", "username", p.Username, "xuid", p.XUID)
	a.notify(count)
}

func (a *Aggregator) remove(key string) {
	a.mu.Lock()
	if _, ok := a.players[key]; !ok {
		a.mu.Unlock()
		return
	}
	delete(a.players, key)
	if i := slices.Index(a.order, key); i >= 0 {
		a.order = slices.Delete(a.order, i, i+1)
	}
	count := len(a.order)
	a.mu.Unlock()

	a.logger.Debug("Player left", "username", key)
	a.notify(count)
}

// Reset empties the roster.
func (a *Aggregator) Reset() {
	a.mu.Lock()
	cleared := len(a.order) > 0
	clear(a.players)
	a.order = nil
	a.mu.Unlock()

	if cleared {
		a.notify(0)
	}
}

// Snapshot returns the connected players in join order.
func (a *Aggregator) Snapshot() []bedrock.Player {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]bedrock.Player, 0, len(a.order))
	for _, key := range a.order {
		out = append(out, a.players[key])
	}
	return out
}

// Len returns the number of connected players.
func (a *Aggregator) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.order)
}

func (a *Aggregator) notify(count int) {
	if a.onChange != nil {
		a.onChange(count)
	}
}
