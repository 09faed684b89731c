package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Logger is a duck-typed interface satisfied by *slog.Logger.
// Components accept it instead of *slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config represents logging configuration.
type Config struct {
	Level   string            `toml:"level"`
	Format  string            `toml:"format"`
	Modules map[string]string `toml:"modules"`
}

var (
	mu          sync.RWMutex
	current     Config
	initialized bool
	loggers     = make(map[string]*slog.Logger)
	levels      = make(map[string]*slog.LevelVar)
	rootLevel   = &slog.LevelVar{}
)

// Initialize sets up the logging system and the default slog logger.
// Module loggers obtained earlier keep their handler but pick up the new levels.
func Initialize(config Config) {
	mu.Lock()
	defer mu.Unlock()

	current = config
	initialized = true
	applyLevels()

	slog.SetDefault(slog.New(newHandler(os.Stdout, config.Format, rootLevel)))
}

// SetLevels changes the global and per-module levels at runtime.
// The output format is fixed at Initialize.
func SetLevels(config Config) {
	mu.Lock()
	defer mu.Unlock()

	current.Level = config.Level
	current.Modules = config.Modules
	applyLevels()
}

// GetLogger returns a logger for the specified module, creating it if needed.
func GetLogger(module string) *slog.Logger {
	mu.RLock()
	logger, ok := loggers[module]
	mu.RUnlock()
	if ok {
		return logger
	}

	mu.Lock()
	defer mu.Unlock()

	if logger, ok := loggers[module]; ok {
		return logger
	}

	levelVar := &slog.LevelVar{}
	levelVar.Set(moduleLevel(module))

	format := "text"
	if initialized {
		format = current.Format
	}

	logger = slog.New(newHandler(os.Stdout, format, levelVar)).With("module", module)
	loggers[module] = logger
	levels[module] = levelVar
	return logger
}

// applyLevels pushes the current configuration into every LevelVar (must hold mu).
func applyLevels() {
	rootLevel.Set(ParseLevelOr(current.Level, slog.LevelInfo))
	for module, levelVar := range levels {
		levelVar.Set(moduleLevel(module))
	}
}

// moduleLevel resolves the level of a module: its override, else the global level.
func moduleLevel(module string) slog.Level {
	global := ParseLevelOr(current.Level, slog.LevelInfo)
	if override, ok := current.Modules[module]; ok {
		return ParseLevelOr(override, global)
	}
	return global
}

// newHandler builds the handler chain: stdout when it is usable, plus the
// systemd journal when it is reachable.
func newHandler(w io.Writer, format string, level slog.Leveler) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}

	var stdout slog.Handler
	if strings.EqualFold(format, "json") {
		stdout = slog.NewJSONHandler(w, opts)
	} else {
		stdout = slog.NewTextHandler(w, opts)
	}

	var handlers []slog.Handler
	if isStdoutAvailable() {
		handlers = append(handlers, stdout)
	}
	if IsJournalAvailable() {
		handlers = append(handlers, NewJournalHandler(level))
	}

	switch len(handlers) {
	case 0:
		return stdout
	case 1:
		return handlers[0]
	default:
		return NewMultiHandler(handlers...)
	}
}

// isStdoutAvailable reports whether stdout goes somewhere other than /dev/null.
func isStdoutAvailable() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	mode := fi.Mode()
	return mode&os.ModeCharDevice != 0 ||
		mode&os.ModeNamedPipe != 0 ||
		mode&os.ModeSocket != 0 ||
		mode.IsRegular()
}

// ParseLevel converts a level name to slog.Level.
// It reports false for unknown names.
func ParseLevel(level string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return 0, false
	}
}

// ParseLevelOr is ParseLevel with a fallback for unknown names.
func ParseLevelOr(level string, fallback slog.Level) slog.Level {
	if l, ok := ParseLevel(level); ok {
		return l
	}
	return fallback
}
