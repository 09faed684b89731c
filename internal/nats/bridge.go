package nats

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/smazurov/bedrockd/internal/bedrock"
	"github.com/smazurov/bedrockd/internal/events"
	"github.com/smazurov/bedrockd/internal/process"
)

const commandTimeout = 5 * time.Second

// Source is the event bus. *events.Bus satisfies it.
type Source interface {
	SubscribeWithQueue(size int) *events.Subscription
}

// Console controls the server. *process.Supervisor satisfies it.
type Console interface {
	Run() error
	Stop() error
	IsRunning() bool
	SendCommand(ctx context.Context, cmd bedrock.Command) error
}

// Bridge publishes bus events to NATS and serves control requests.
type Bridge struct {
	url     string
	source  Source
	console Console
	logger  *slog.Logger

	mu     sync.Mutex
	conn   *nats.Conn
	ctrl   *nats.Subscription
	events *events.Subscription
	wg     sync.WaitGroup
}

// NewBridge creates a bridge to the NATS server at url.
func NewBridge(url string, source Source, console Console, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}

	return &Bridge{
		url:     url,
		source:  source,
		console: console,
		logger:  logger.With("component", "nats-bridge"),
	}
}

// Start connects, subscribes to control requests and begins forwarding live
// bus events. Replayed events are not forwarded.
func (b *Bridge) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	conn, err := nats.Connect(b.url,
		nats.Name("bedrockd"),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				b.logger.Warn("NATS bridge disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			b.logger.Info("NATS bridge reconnected")
		}),
	)
	if err != nil {
		return err
	}

	ctrl, err := conn.Subscribe(SubjectControl, b.handleControl)
	if err != nil {
		conn.Close()
		return err
	}

	b.conn = conn
	b.ctrl = ctrl
	b.events = b.source.SubscribeWithQueue(256)
	b.logger.Info("NATS bridge connected", "url", b.url)

	b.wg.Add(1)
	go func(sub *events.Subscription) {
		defer b.wg.Done()
		b.forward(conn, sub)
	}(b.events)

	return nil
}

func (b *Bridge) forward(conn *nats.Conn, sub *events.Subscription) {
	for {
		select {
		case <-sub.Done():
			return
		case rec := <-sub.Events():
			data, err := NewEventMessage(rec).Marshal()
			if err != nil {
				b.logger.Warn("Failed to marshal event", "error", err)
				continue
			}
			if err := conn.Publish(SubjectEvents(rec.Event.Kind()), data); err != nil {
				b.logger.Debug("Failed to publish event", "kind", rec.Event.Kind(), "error", err)
			}
		}
	}
}

// handleControl runs on the NATS subscription goroutine.
func (b *Bridge) handleControl(msg *nats.Msg) {
	err := b.control(msg.Data)
	if err != nil {
		b.logger.Warn("Control request failed", "error", err)
	}

	if msg.Reply == "" {
		return
	}
	reply := ControlReply{OK: err == nil}
	if err != nil {
		reply.Error = err.Error()
	}
	data, mErr := reply.Marshal()
	if mErr != nil {
		return
	}
	if rErr := msg.Respond(data); rErr != nil {
		b.logger.Debug("Failed to respond to control request", "error", rErr)
	}
}

func (b *Bridge) control(data []byte) error {
	m, err := UnmarshalControl(data)
	if err != nil {
		return err
	}

	b.logger.Info("Received control request", "action", m.Action)

	switch m.Action {
	case ActionStart:
		return b.console.Run()
	case ActionStop:
		return b.console.Stop()
	}

	cmd, err := m.Command()
	if err != nil {
		return err
	}
	if !b.console.IsRunning() {
		return process.ErrNotRunning
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	return b.console.SendCommand(ctx, cmd)
}

// Stop unsubscribes from the bus and closes the connection.
func (b *Bridge) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.events != nil {
		b.events.Close()
		b.events = nil
	}
	b.wg.Wait()

	if b.ctrl != nil {
		_ = b.ctrl.Unsubscribe()
		b.ctrl = nil
	}
	if b.conn != nil {
		b.conn.Close()
		b.conn = nil
	}
	b.logger.Info("NATS bridge stopped")
}

// IsConnected returns true if the bridge is connected to NATS.
func (b *Bridge) IsConnected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conn != nil && b.conn.IsConnected()
}
