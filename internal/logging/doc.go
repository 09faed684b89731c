// Package logging provides structured logging with per-module log levels.
//
// Loggers are plain *slog.Logger values tagged with a "module" attribute.
// Records go to stdout (text or JSON) when stdout is connected to something,
// and to the systemd journal under the identifier "bedrockd" when journald
// is reachable.
//
//	logging.Initialize(logging.Config{
//		Level:  "info",
//		Format: "text",
//		Modules: map[string]string{
//			"process": "debug",
//			"bedrock": "warn",
//		},
//	})
//
//	logger := logging.GetLogger("process")
//	logger.Info("Process started", "pid", pid)
//
// Every module logger owns a slog.LevelVar, so SetLevels can raise or lower
// levels while the daemon runs. The config watcher calls it when the
// [logging] table of the config file changes.
//
// The "bedrock" module carries the server's own console output, re-logged at
// the level of each line's TYPE tag. Lower it to "warn" to keep only server
// warnings and errors:
//
//	journalctl -t bedrockd MODULE=bedrock -p warning
package logging
