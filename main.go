package main

import (
	"log/slog"
	"os"
	"sync"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/smazurov/bedrockd/cmd"
	"github.com/smazurov/bedrockd/internal/config"
	"github.com/smazurov/bedrockd/internal/logging"
	"github.com/spf13/cobra"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"bedrockd.toml"`

	// HTTP settings
	Port           string `help:"Address for the HTTP API" short:"p" default:":8090" toml:"http.port" env:"HTTP_PORT"`
	MetricsEnabled bool   `help:"Serve Prometheus metrics on /metrics" default:"true" toml:"http.metrics_enabled" env:"HTTP_METRICS_ENABLED"`

	// Bedrock server settings
	ServerExecutable string `help:"Path to the bedrock_server binary" default:"./bedrock_server" toml:"server.executable" env:"SERVER_EXECUTABLE"`
	ServerArgs       string `help:"Arguments for the server, shell-quoted" default:"" toml:"server.args" env:"SERVER_ARGS"`
	ServerDir        string `help:"Working directory (defaults to the binary's directory)" default:"" toml:"server.dir" env:"SERVER_DIR"`
	ServerAutostart  bool   `help:"Start the server when the daemon starts" default:"true" toml:"server.autostart" env:"SERVER_AUTOSTART"`

	// Event settings
	EventsReplaySize  int  `help:"Events kept for replay to new subscribers" default:"300" toml:"events.replay_size" env:"EVENTS_REPLAY_SIZE"`
	EventsQueueSize   int  `help:"Per-subscriber live queue size" default:"64" toml:"events.queue_size" env:"EVENTS_QUEUE_SIZE"`
	RosterClearOnStop bool `help:"Clear the player list when the server is stopped" default:"false" toml:"roster.clear_on_stop" env:"ROSTER_CLEAR_ON_STOP"`

	// Discord relay settings
	DiscordToken   string `help:"Discord bot token (empty disables the relay)" default:"" toml:"discord.token" env:"DISCORD_TOKEN"`
	DiscordChannel string `help:"Discord channel ID to relay to" default:"" toml:"discord.channel_id" env:"DISCORD_CHANNEL_ID"`

	// NATS settings
	NatsAddress  string `help:"NATS server to bridge events to (empty disables the bridge)" default:"" toml:"nats.url" env:"NATS_URL"`
	NatsEmbedded bool   `help:"Run an embedded NATS server and bridge to it" default:"false" toml:"nats.embedded" env:"NATS_EMBEDDED"`
	NatsPort     int    `help:"Port for the embedded NATS server" default:"4222" toml:"nats.port" env:"NATS_PORT"`

	// Logging settings
	LoggingLevel   string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat  string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingProcess string `help:"Supervisor logging level" default:"info" toml:"logging.modules.process" env:"LOGGING_PROCESS"`
	LoggingBedrock string `help:"Server output logging level" default:"info" toml:"logging.modules.bedrock" env:"LOGGING_BEDROCK"`
	LoggingAPI     string `help:"API logging level" default:"info" toml:"logging.modules.api" env:"LOGGING_API"`
	LoggingHTTP    string `help:"HTTP request logging level" default:"info" toml:"logging.modules.http" env:"LOGGING_HTTP"`
}

func (o *Options) loggingConfig() logging.Config {
	return logging.Config{
		Level:  o.LoggingLevel,
		Format: o.LoggingFormat,
		Modules: map[string]string{
			"process": o.LoggingProcess,
			"bedrock": o.LoggingBedrock,
			"api":     o.LoggingAPI,
			"http":    o.LoggingHTTP,
		},
	}
}

func main() {
	var root *cobra.Command

	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		if loadErr := config.LoadConfig(opts, root); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		logging.Initialize(opts.loggingConfig())
		logger := logging.GetLogger("main")

		var (
			mu sync.Mutex
			d  *daemon
		)

		hooks.OnStart(func() {
			mu.Lock()
			var err error
			d, err = newDaemon(opts, logger)
			mu.Unlock()
			if err != nil {
				logger.Error("Failed to initialize", "error", err)
				os.Exit(1)
			}

			if err := d.serve(); err != nil {
				logger.Error("Failed to start HTTP server", "error", err)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			mu.Lock()
			defer mu.Unlock()
			if d != nil {
				d.shutdown()
			}
		})
	})

	root = cli.Root()
	root.AddCommand(cmd.CreateClassifyCmd())
	root.AddCommand(cmd.CreateVersionCmd())

	cli.Run()
}
