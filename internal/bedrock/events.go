package bedrock

import "time"

// Kind names an event variant.
type Kind string

// Event kinds.
const (
	KindLog                Kind = "log"
	KindPlayerConnected    Kind = "player_connected"
	KindPlayerDisconnected Kind = "player_disconnected"
	KindPlayerSpawned      Kind = "player_spawned"
	KindProcessStopped     Kind = "process_stopped"
)

// Event is a timestamped fact derived from server output or the process lifecycle.
// The set of implementations is closed to this package.
type Event interface {
	EventTime() time.Time
	Kind() Kind
	isEvent()
}

// LogEvent is a generic server log line.
type LogEvent struct {
	Time    time.Time
	Message string
	Type    string
}

// PlayerConnected is emitted when a client finishes the login handshake.
type PlayerConnected struct {
	Time   time.Time
	Player Player
}

// PlayerDisconnected is emitted when a client leaves.
type PlayerDisconnected struct {
	Time   time.Time
	Player Player
}

// PlayerSpawned is emitted when a connected client spawns into the world.
type PlayerSpawned struct {
	Time   time.Time
	Player Player
}

// ProcessStopped is published by the supervisor after it has killed the server.
// It is the last event of a process instance.
type ProcessStopped struct {
	Time time.Time
}

func (e LogEvent) EventTime() time.Time           { return e.Time }
func (e PlayerConnected) EventTime() time.Time    { return e.Time }
func (e PlayerDisconnected) EventTime() time.Time { return e.Time }
func (e PlayerSpawned) EventTime() time.Time      { return e.Time }
func (e ProcessStopped) EventTime() time.Time     { return e.Time }

func (LogEvent) Kind() Kind           { return KindLog }
func (PlayerConnected) Kind() Kind    { return KindPlayerConnected }
func (PlayerDisconnected) Kind() Kind { return KindPlayerDisconnected }
func (PlayerSpawned) Kind() Kind      { return KindPlayerSpawned }
func (ProcessStopped) Kind() Kind     { return KindProcessStopped }

func (LogEvent) isEvent()           {}
func (PlayerConnected) isEvent()    {}
func (PlayerDisconnected) isEvent() {}
func (PlayerSpawned) isEvent()      {}
func (ProcessStopped) isEvent()     {}

// PlayerOf returns the player carried by a player event.
func PlayerOf(ev Event) (Player, bool) {
	switch e := ev.(type) {
	case PlayerConnected:
		return e.Player, true
	case PlayerDisconnected:
		return e.Player, true
	case PlayerSpawned:
		return e.Player, true
	default:
		return Player{}, false
	}
}
