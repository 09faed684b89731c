package process

import (
	"github.com/smazurov/bedrockd/internal/bedrock"
	"github.com/smazurov/bedrockd/internal/logging"
)

// Publisher receives the events derived from process output.
// *events.Bus satisfies it.
type Publisher interface {
	Publish(ev bedrock.Event)
}

// OutputHandler receives every output line together with the events it produced.
// Used for metrics and diagnostics; it must not block.
type OutputHandler interface {
	HandleLine(line string, events []bedrock.Event)
}

// LogParser parses a log line and returns the log level and message.
// Used to re-log process output at a level matching the server's own.
type LogParser func(line string) (level, msg string)

// StateChangeCallback is called when the supervisor state changes.
// Used for domain-specific reactions (e.g., metrics, notifications).
type StateChangeCallback func(oldState, newState State, err error)

// Options configures a new Supervisor.
type Options struct {
	// Executable is the server binary (required). It must be a regular,
	// executable file.
	Executable string

	// Args are passed to the executable.
	Args []string

	// Dir is the working directory. Defaults to the executable's directory.
	Dir string

	// Publisher receives classified events (required).
	Publisher Publisher

	// OutputHandler observes raw lines (optional).
	OutputHandler OutputHandler

	// OnStateChange is called when the state transitions (optional).
	OnStateChange StateChangeCallback

	// Logger for supervisor operations. If nil, uses slog.Default().
	Logger logging.Logger

	// OutputLogger re-logs process output (optional, nil disables).
	OutputLogger logging.Logger

	// LogParser extracts a level from process output for OutputLogger.
	// Nil logs every line at info.
	LogParser LogParser
}
