// Package notify relays server events to a chat channel and chat messages
// back into the server.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/smazurov/bedrockd/internal/bedrock"
	"github.com/smazurov/bedrockd/internal/events"
	"github.com/smazurov/bedrockd/internal/logging"
)

// maxInboundLength caps relayed chat text, in runes.
const maxInboundLength = 200

// Sender posts text to the chat channel.
type Sender interface {
	Send(ctx context.Context, text string) error
}

// Message is a chat message addressed to the server.
type Message struct {
	Author  string
	Content string
}

// Console accepts commands for the server. *process.Supervisor satisfies it.
type Console interface {
	IsRunning() bool
	SendCommand(ctx context.Context, cmd bedrock.Command) error
}

// Source is the event bus. *events.Bus satisfies it.
type Source interface {
	Subscribe() *events.Subscription
}

// Relay forwards player and lifecycle events to a Sender and inbound chat
// messages to the server console as say commands.
type Relay struct {
	source  Source
	sender  Sender
	console Console
	inbound <-chan Message
	logger  logging.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup

	stopMu sync.Mutex
	stops  uint64
	stopCh chan struct{} // closed and replaced each time a stop is relayed
}

// NewRelay creates a relay. inbound may be nil for a one-way relay.
func NewRelay(source Source, sender Sender, console Console, inbound <-chan Message, logger logging.Logger) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{
		source:  source,
		sender:  sender,
		console: console,
		inbound: inbound,
		logger:  logger,
		stopCh:  make(chan struct{}),
	}
}

// Start subscribes to the bus and relays on a background goroutine until ctx
// is done or Close is called. Events already in the replay buffer are not
// relayed.
func (r *Relay) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)
	sub := r.source.Subscribe()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer sub.Close()
		r.run(ctx, sub)
	}()
}

// Close stops relaying and waits for the relay goroutine.
func (r *Relay) Close() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
}

func (r *Relay) run(ctx context.Context, sub *events.Subscription) {
	inbound := r.inbound
	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.Done():
			return
		case rec := <-sub.Events():
			r.relayEvent(ctx, rec.Event)
		case msg, ok := <-inbound:
			if !ok {
				inbound = nil
				continue
			}
			r.relayInbound(ctx, msg)
		}
	}
}

func (r *Relay) relayEvent(ctx context.Context, ev bedrock.Event) {
	text := FormatEvent(ev)
	if text == "" {
		return
	}
	if err := r.sender.Send(ctx, text); err != nil {
		r.logger.Warn("Failed to relay event", "kind", ev.Kind(), "error", err)
	}
	if ev.Kind() == bedrock.KindProcessStopped {
		r.stopMu.Lock()
		r.stops++
		close(r.stopCh)
		r.stopCh = make(chan struct{})
		r.stopMu.Unlock()
	}
}

// Stops returns how many ProcessStopped events have been relayed.
func (r *Relay) Stops() uint64 {
	r.stopMu.Lock()
	defer r.stopMu.Unlock()
	return r.stops
}

// AwaitStop waits until more than after ProcessStopped events have been
// relayed, or timeout passes. Call it before Close so the stop
// announcement is not cut off.
func (r *Relay) AwaitStop(after uint64, timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		r.stopMu.Lock()
		n, ch := r.stops, r.stopCh
		r.stopMu.Unlock()
		if n > after {
			return true
		}

		select {
		case <-ch:
		case <-timer.C:
			return false
		}
	}
}

func (r *Relay) relayInbound(ctx context.Context, msg Message) {
	if !r.console.IsRunning() {
		r.logger.Debug("Server not running, dropping chat message", "author", msg.Author)
		return
	}
	cmd := bedrock.Say{Message: FormatInbound(msg)}
	if err := r.console.SendCommand(ctx, cmd); err != nil {
		r.logger.Warn("Failed to relay chat message", "author", msg.Author, "error", err)
	}
}

// FormatEvent renders an event as a chat message. Events not worth relaying
// render as "".
func FormatEvent(ev bedrock.Event) string {
	switch e := ev.(type) {
	case bedrock.PlayerConnected:
		return fmt.Sprintf("➡️ **%s** joined the server", e.Player.Username)
	case bedrock.PlayerDisconnected:
		return fmt.Sprintf("⬅️ **%s** left the server", e.Player.Username)
	case bedrock.ProcessStopped:
		return "🛑 Server stopped"
	default:
		return ""
	}
}

// FormatInbound renders a chat message as say text.
func FormatInbound(msg Message) string {
	content := strings.Join(strings.Fields(msg.Content), " ")
	if utf8.RuneCountInString(content) > maxInboundLength {
		content = string([]rune(content)[:maxInboundLength]) + "..."
	}
	return fmt.Sprintf("[Discord] %s: %s", msg.Author, content)
}
