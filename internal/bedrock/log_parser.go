package bedrock

import (
	"regexp"
	"strings"
	"time"
)

// logTimeLayout is the server's timestamp format once milliseconds are dropped.
const logTimeLayout = "2006-01-02 15:04:05"

var (
	logEntryPattern = regexp.MustCompile(`^.*\[(\d{4}-\d{2}-\d{2})\s(\d{2}:\d{2}:\d{2}):\d{3}\s(\w+)\]\s(.+)$`)

	// The server puts a comma before "xuid:" on connect/disconnect but not on spawn.
	connectedPattern    = regexp.MustCompile(`Player connected: ([^,]+), xuid: (\d+)`)
	disconnectedPattern = regexp.MustCompile(`Player disconnected: ([^,]+), xuid: (\d+), pfid: ([\da-f]+)`)
	spawnedPattern      = regexp.MustCompile(`Player Spawned: (.+?) xuid: (\d+), pfid: ([\da-f]+)`)
)

// Classify turns one line of server output into events.
// A line yields at most one LogEvent and at most one player event; when both
// match, the LogEvent comes first. Player events are stamped with now.
func Classify(line string, now time.Time) []Event {
	var out []Event
	if entry, ok := ParseLogEntry(line); ok {
		out = append(out, entry)
	}
	if ev, ok := parsePlayerEvent(line, now); ok {
		out = append(out, ev)
	}
	return out
}

// parsePlayerEvent applies the player rules in order; the first match wins.
func parsePlayerEvent(line string, now time.Time) (Event, bool) {
	if ev, ok := ParsePlayerConnected(line, now); ok {
		return ev, true
	}
	if ev, ok := ParsePlayerDisconnected(line, now); ok {
		return ev, true
	}
	if ev, ok := ParsePlayerSpawned(line, now); ok {
		return ev, true
	}
	return nil, false
}

// ParseLogEntry parses "[2024-01-01 18:59:22:123 INFO] message".
func ParseLogEntry(line string) (LogEvent, bool) {
	m := logEntryPattern.FindStringSubmatch(line)
	if m == nil {
		return LogEvent{}, false
	}
	t, err := time.ParseInLocation(logTimeLayout, m[1]+" "+m[2], time.Local)
	if err != nil {
		return LogEvent{}, false
	}
	return LogEvent{Time: t, Message: m[4], Type: m[3]}, true
}

// ParsePlayerConnected parses "Player connected: <name>, xuid: <xuid>".
func ParsePlayerConnected(line string, now time.Time) (PlayerConnected, bool) {
	m := connectedPattern.FindStringSubmatch(line)
	if m == nil {
		return PlayerConnected{}, false
	}
	return PlayerConnected{
		Time:   now,
		Player: Player{Username: m[1], XUID: m[2]},
	}, true
}

// ParsePlayerDisconnected parses "Player disconnected: <name>, xuid: <xuid>, pfid: <pfid>".
func ParsePlayerDisconnected(line string, now time.Time) (PlayerDisconnected, bool) {
	m := disconnectedPattern.FindStringSubmatch(line)
	if m == nil {
		return PlayerDisconnected{}, false
	}
	return PlayerDisconnected{
		Time:   now,
		Player: Player{Username: m[1], XUID: m[2], PFID: m[3]},
	}, true
}

// ParsePlayerSpawned parses "Player Spawned: <name> xuid: <xuid>, pfid: <pfid>".
func ParsePlayerSpawned(line string, now time.Time) (PlayerSpawned, bool) {
	m := spawnedPattern.FindStringSubmatch(line)
	if m == nil {
		return PlayerSpawned{}, false
	}
	return PlayerSpawned{
		Time:   now,
		Player: Player{Username: m[1], XUID: m[2], PFID: m[3]},
	}, true
}

// ParseLogLevel extracts the log level from a server console line.
// Lines look like "[2024-01-01 18:59:22:123 WARN] message"; the level is
// returned lowercased together with the message after the bracket.
// Lines without a header are reported at info level unchanged.
func ParseLogLevel(line string) (level, msg string) {
	m := logEntryPattern.FindStringSubmatch(line)
	if m == nil {
		return "info", line
	}

	switch strings.ToUpper(m[3]) {
	case "ERROR", "FATAL":
		return "error", m[4]
	case "WARN", "WARNING":
		return "warning", m[4]
	case "VERBOSE", "DEBUG", "TRACE":
		return "debug", m[4]
	default:
		return "info", m[4]
	}
}
