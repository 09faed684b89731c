package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smazurov/bedrockd/internal/api"
	"github.com/smazurov/bedrockd/internal/bedrock"
	"github.com/smazurov/bedrockd/internal/config"
	"github.com/smazurov/bedrockd/internal/events"
	"github.com/smazurov/bedrockd/internal/logging"
	"github.com/smazurov/bedrockd/internal/metrics"
	"github.com/smazurov/bedrockd/internal/nats"
	"github.com/smazurov/bedrockd/internal/notify"
	"github.com/smazurov/bedrockd/internal/process"
	"github.com/smazurov/bedrockd/internal/roster"
	"github.com/smazurov/bedrockd/internal/systemd"
	"github.com/smazurov/bedrockd/internal/version"
)

// relayDrainTimeout bounds how long shutdown waits for the stop announcement.
const relayDrainTimeout = 3 * time.Second

// daemon owns every long-lived component of the server command.
type daemon struct {
	opts   *Options
	logger *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc

	bus        *events.Bus
	supervisor *process.Supervisor
	roster     *roster.Aggregator
	server     *api.Server
	watcher    *config.Watcher[logging.Config]
	discord    *notify.Discord
	relay      *notify.Relay
	natsServer *nats.Server
	natsBridge *nats.Bridge
	systemd    *systemd.Notifier
}

func newDaemon(opts *Options, logger *slog.Logger) (*daemon, error) {
	args, err := process.ParseArgs(opts.ServerArgs)
	if err != nil {
		return nil, fmt.Errorf("server args: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &daemon{
		opts:    opts,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		systemd: systemd.NewNotifier(),
	}

	d.bus = events.New(
		events.WithReplaySize(opts.EventsReplaySize),
		events.WithQueueSize(opts.EventsQueueSize),
		events.WithDropHandler(metrics.RecordDrop),
	)

	d.supervisor, err = process.NewSupervisor(ctx, process.Options{
		Executable:    opts.ServerExecutable,
		Args:          args,
		Dir:           opts.ServerDir,
		Publisher:     d.bus,
		OutputHandler: metrics.LineRecorder{},
		OnStateChange: d.onStateChange,
		Logger:        logging.GetLogger("process"),
		OutputLogger:  logging.GetLogger("bedrock"),
		LogParser:     bedrock.ParseLogLevel,
	})
	if err != nil {
		cancel()
		return nil, err
	}

	d.roster = roster.New(d.bus,
		roster.WithClearOnStop(opts.RosterClearOnStop),
		roster.WithOnChange(metrics.SetPlayersConnected),
		roster.WithLogger(logging.GetLogger("roster")),
	)

	apiOpts := &api.Options{
		Supervisor: d.supervisor,
		Roster:     d.roster,
		Events:     d.bus,
		Version:    version.Version,
	}
	if opts.MetricsEnabled {
		apiOpts.PrometheusHandler = promhttp.Handler()
	}
	d.server = api.NewServer(apiOpts)

	if opts.Config != "" {
		if _, statErr := os.Stat(opts.Config); statErr == nil {
			d.watcher = config.NewConfigWatcher(opts.Config, config.LoadLoggingConfig, logging.GetLogger("config"))
			d.watcher.OnReload(func(cfg logging.Config) {
				logging.SetLevels(cfg)
				logger.Info("Logging levels reloaded", "level", cfg.Level)
			})
		}
	}

	if opts.DiscordToken != "" && opts.DiscordChannel != "" {
		discordLogger := logging.GetLogger("discord")
		d.discord, err = notify.NewDiscord(opts.DiscordToken, opts.DiscordChannel, discordLogger)
		if err != nil {
			logger.Warn("Discord relay disabled", "error", err)
		} else {
			d.relay = notify.NewRelay(d.bus, d.discord, d.supervisor, d.discord.Messages(), discordLogger)
		}
	}

	natsURL := opts.NatsAddress
	if opts.NatsEmbedded {
		d.natsServer = nats.NewServer(nats.ServerOptions{Port: opts.NatsPort, Logger: logging.GetLogger("nats")})
		natsURL = d.natsServer.ClientURL()
	}
	if natsURL != "" {
		d.natsBridge = nats.NewBridge(natsURL, d.bus, d.supervisor, logging.GetLogger("nats"))
	}

	return d, nil
}

func (d *daemon) onStateChange(oldState, newState process.State, err error) {
	metrics.SetProcessState(string(newState), newState == process.StateRunning)
	if oldState == process.StateStopping && newState == process.StateNotRunning {
		metrics.RecordEvent(bedrock.KindProcessStopped)
	}
	if newState == process.StateCrashed {
		d.logger.Warn("Bedrock server crashed", "error", err)
	}
	if nErr := d.systemd.Status(systemd.ProcessStatus(newState)); nErr != nil {
		d.logger.Debug("sd_notify failed", "error", nErr)
	}
}

// serve starts the background components and blocks in the HTTP server.
func (d *daemon) serve() error {
	d.logger.Info("Starting bedrockd", "version", version.Get().String(), "executable", d.opts.ServerExecutable)

	d.roster.Start()

	if d.watcher != nil {
		if err := d.watcher.Start(); err != nil {
			d.logger.Warn("Config watcher not started", "error", err)
		}
	}

	if d.relay != nil {
		if err := d.discord.Open(); err != nil {
			d.logger.Warn("Discord relay not started", "error", err)
		} else {
			d.relay.Start(d.ctx)
		}
	}

	if d.natsServer != nil {
		if err := d.natsServer.Start(); err != nil {
			d.logger.Warn("Embedded NATS server not started", "error", err)
		}
	}
	if d.natsBridge != nil {
		if err := d.natsBridge.Start(); err != nil {
			d.logger.Warn("NATS bridge not started", "error", err)
		}
	}

	if d.opts.ServerAutostart {
		if err := d.supervisor.Run(); err != nil {
			d.logger.Error("Failed to start bedrock server", "error", err)
		}
	}

	if err := d.systemd.Ready(); err != nil {
		d.logger.Debug("sd_notify failed", "error", err)
	}

	d.logger.Info("Starting HTTP server", "port", d.opts.Port)
	if err := d.server.Start(d.opts.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (d *daemon) shutdown() {
	d.logger.Info("Shutting down")
	_ = d.systemd.Stopping()

	if err := d.server.Stop(); err != nil {
		d.logger.Error("Error stopping HTTP server", "error", err)
	}

	var relayedStops uint64
	if d.relay != nil {
		relayedStops = d.relay.Stops()
	}
	wasRunning := d.supervisor.IsRunning()

	// Stops the bedrock server if it is running and publishes ProcessStopped.
	if err := d.supervisor.Close(); err != nil {
		d.logger.Error("Error stopping bedrock server", "error", err)
	}

	if d.relay != nil {
		if wasRunning && !d.relay.AwaitStop(relayedStops, relayDrainTimeout) {
			d.logger.Warn("Shutdown announcement not relayed in time")
		}
		d.relay.Close()
		if err := d.discord.Close(); err != nil {
			d.logger.Warn("Error closing Discord session", "error", err)
		}
	}
	if d.natsBridge != nil {
		d.natsBridge.Stop()
	}
	if d.natsServer != nil {
		d.natsServer.Stop()
	}
	if d.watcher != nil {
		if err := d.watcher.Stop(); err != nil {
			d.logger.Warn("Error stopping config watcher", "error", err)
		}
	}

	d.roster.Close()
	d.bus.Close()
	d.cancel()
}
