package models

import "time"

// ProcessStatusData describes the supervised server process.
type ProcessStatusData struct {
	State     string     `json:"state" example:"running" enum:"not_running,running,stopping,exited,crashed" doc:"Supervisor state"`
	Running   bool       `json:"running" example:"true" doc:"Whether the output reader is active"`
	PID       int        `json:"pid,omitempty" example:"4242" doc:"Process ID while running"`
	StartedAt *time.Time `json:"started_at,omitempty" doc:"When the current or last process was started"`
	ExitCode  int        `json:"exit_code" example:"0" doc:"Exit code of the last process"`
	LastError string     `json:"last_error,omitempty" example:"process exited with code 1" doc:"Why the last process ended, if it failed"`
}

type ProcessStatusResponse struct {
	Body ProcessStatusData
}
