package process

import (
	"errors"
	"fmt"
)

// Error codes
const (
	ErrCodeInvalidExecutable = "INVALID_EXECUTABLE"
	ErrCodeAlreadyRunning    = "ALREADY_RUNNING"
	ErrCodeNotRunning        = "NOT_RUNNING"
	ErrCodeSpawnFailed       = "SPAWN_FAILED"
)

// Sentinel errors for errors.Is; any *Error with the same code matches.
var (
	ErrInvalidExecutable = &Error{Code: ErrCodeInvalidExecutable, Message: "invalid executable"}
	ErrAlreadyRunning    = &Error{Code: ErrCodeAlreadyRunning, Message: "process is already running"}
	ErrNotRunning        = &Error{Code: ErrCodeNotRunning, Message: "process is not running"}
	ErrSpawnFailed       = &Error{Code: ErrCodeSpawnFailed, Message: "failed to start process"}
)

// Error represents a supervisor error
type Error struct {
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error carrying the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewError creates a new supervisor error
func NewError(code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// ErrorCode returns the code of a supervisor error, or "" for other errors.
func ErrorCode(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
