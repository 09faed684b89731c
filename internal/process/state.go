package process

import "time"

// State represents the current state of the supervised server.
type State string

// Supervisor states.
const (
	StateNotRunning State = "not_running" // Never started or stopped via Stop
	StateRunning    State = "running"     // Reader active
	StateStopping   State = "stopping"    // Stop in progress
	StateExited     State = "exited"      // Ended on its own with exit code 0
	StateCrashed    State = "crashed"     // Ended on its own otherwise, or output read failed
)

// Active reports whether a process instance is attached in this state.
func (s State) Active() bool {
	return s == StateRunning || s == StateStopping
}

// Info contains information about the supervised process.
type Info struct {
	State     State
	PID       int
	StartedAt time.Time
	ExitCode  int
	LastError error
}
