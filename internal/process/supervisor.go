package process

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/smazurov/bedrockd/internal/bedrock"
	"github.com/smazurov/bedrockd/internal/logging"
)

// maxLineSize bounds a single line of server output.
const maxLineSize = 1024 * 1024

// Supervisor owns one server process at a time: it starts and kills it,
// feeds its console, and turns its output into events.
type Supervisor struct {
	opts   Options
	logger logging.Logger
	now    func() time.Time

	// ctx owns every goroutine the supervisor spawns; Close cancels it.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// lifecycleMu serializes Run, Stop and Close.
	lifecycleMu sync.Mutex

	mu        sync.RWMutex
	state     State
	active    bool
	run       *instance
	startedAt time.Time
	exitCode  int
	lastError error
}

// instance is a single started process.
type instance struct {
	cmd    *exec.Cmd
	output *os.File // read end of the merged stdout/stderr pipe
	stdin  io.WriteCloser
	cancel context.CancelFunc
	done   chan struct{}

	writeMu sync.Mutex
	writer  *bufio.Writer

	// gateMu orders the reader's publishes against Stop's ProcessStopped.
	gateMu  sync.Mutex
	stopped bool
}

// NewSupervisor validates the executable and creates a supervisor.
// Goroutines started by the supervisor live at most as long as ctx.
func NewSupervisor(ctx context.Context, opts Options) (*Supervisor, error) {
	if opts.Publisher == nil {
		panic("process: Options.Publisher is required")
	}

	executable, err := validateExecutable(opts.Executable)
	if err != nil {
		return nil, err
	}
	opts.Executable = executable
	if opts.Dir == "" {
		opts.Dir = filepath.Dir(executable)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(ctx)
	return &Supervisor{
		opts:   opts,
		logger: logger,
		now:    time.Now,
		ctx:    ctx,
		cancel: cancel,
		state:  StateNotRunning,
	}, nil
}

// validateExecutable resolves path and checks it is a regular executable file.
func validateExecutable(path string) (string, error) {
	if path == "" {
		return "", NewError(ErrCodeInvalidExecutable, "no executable configured", nil)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", NewError(ErrCodeInvalidExecutable, "cannot resolve "+path, err)
	}

	fi, err := os.Stat(abs)
	if err != nil {
		return "", NewError(ErrCodeInvalidExecutable, abs+" isn't a file", err)
	}
	if !fi.Mode().IsRegular() {
		return "", NewError(ErrCodeInvalidExecutable, abs+" isn't a file", nil)
	}
	if fi.Mode().Perm()&0o111 == 0 {
		return "", NewError(ErrCodeInvalidExecutable, abs+" isn't executable", nil)
	}
	return abs, nil
}

// Run starts the server and its output reader.
func (s *Supervisor) Run() error {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	if err := s.ctx.Err(); err != nil {
		return NewError(ErrCodeSpawnFailed, "supervisor closed", err)
	}

	s.mu.RLock()
	active := s.active
	s.mu.RUnlock()
	if active {
		return ErrAlreadyRunning
	}

	inst, err := s.startProcess()
	if err != nil {
		s.logger.Error("Failed to start process", "error", err, "executable", s.opts.Executable)
		s.mu.Lock()
		s.lastError = err
		s.mu.Unlock()
		return NewError(ErrCodeSpawnFailed, "failed to start "+s.opts.Executable, err)
	}

	s.mu.Lock()
	oldState := s.state
	s.state = StateRunning
	s.active = true
	s.run = inst
	s.startedAt = s.now()
	s.exitCode = 0
	s.lastError = nil
	s.mu.Unlock()

	s.logger.Info("Process started", "pid", inst.cmd.Process.Pid, "executable", s.opts.Executable)
	s.notifyStateChange(oldState, StateRunning, nil)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.readOutput(inst)
	}()

	return nil
}

// startProcess spawns the executable with stdout and stderr merged into one pipe.
func (s *Supervisor) startProcess() (*instance, error) {
	ctx, cancel := context.WithCancel(s.ctx)

	cmd := exec.CommandContext(ctx, s.opts.Executable, s.opts.Args...)
	cmd.Dir = s.opts.Dir
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error { return killGroup(cmd.Process) }

	stdin, err := cmd.StdinPipe()
	if err != nil {
		cancel()
		return nil, err
	}

	// One pipe for both streams keeps stdout and stderr lines in arrival order
	output, outputWriter, err := os.Pipe()
	if err != nil {
		cancel()
		stdin.Close()
		return nil, err
	}
	cmd.Stdout = outputWriter
	cmd.Stderr = outputWriter

	if err := cmd.Start(); err != nil {
		cancel()
		stdin.Close()
		output.Close()
		outputWriter.Close()
		return nil, err
	}

	// The child holds its own copy of the write end
	outputWriter.Close()

	return &instance{
		cmd:    cmd,
		output: output,
		stdin:  stdin,
		cancel: cancel,
		done:   make(chan struct{}),
		writer: bufio.NewWriter(stdin),
	}, nil
}

// readOutput classifies and publishes each output line until the stream ends,
// then reaps the process.
func (s *Supervisor) readOutput(inst *instance) {
	defer close(inst.done)

	scanner := bufio.NewScanner(inst.output)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		line := scanner.Text()
		evs := bedrock.Classify(line, s.now())

		if len(evs) == 0 || evs[0].Kind() != bedrock.KindLog {
			s.logger.Debug("Unparsable data", "line", line)
		}
		if s.opts.OutputHandler != nil {
			s.opts.OutputHandler.HandleLine(line, evs)
		}
		s.logOutput(line)

		inst.publish(s.opts.Publisher, evs)
	}

	readErr := scanner.Err()
	stopping := inst.isStopped()
	if readErr != nil && !stopping {
		// Nobody is draining the pipe anymore; take the process down with the reader
		s.logger.Warn("Error reading output", "error", readErr)
		if err := killGroup(inst.cmd.Process); err != nil {
			s.logger.Warn("Failed to kill process", "error", err)
		}
	}
	inst.output.Close()

	waitErr := inst.cmd.Wait()
	inst.cancel()

	if stopping {
		readErr = nil
	}
	s.finish(inst, readErr, waitErr)
}

// finish records how the instance ended. Outcomes of a Stop are left to Stop.
func (s *Supervisor) finish(inst *instance, readErr, waitErr error) {
	exitCode := exitCodeFromError(waitErr)

	s.mu.Lock()
	oldState := s.state
	newState := oldState
	var stateErr error
	if oldState == StateRunning && s.run == inst {
		switch {
		case readErr != nil:
			newState = StateCrashed
			stateErr = fmt.Errorf("reading output: %w", readErr)
		case exitCode != 0:
			newState = StateCrashed
			stateErr = fmt.Errorf("process exited with code %d", exitCode)
		default:
			newState = StateExited
		}
		s.state = newState
		s.lastError = stateErr
		s.run = nil
	}
	s.exitCode = exitCode
	s.active = false
	s.mu.Unlock()

	if newState == oldState {
		return
	}
	if newState == StateCrashed {
		s.logger.Error("Process crashed", "exit_code", exitCode, "error", stateErr)
	} else {
		s.logger.Info("Process exited", "exit_code", exitCode)
	}
	s.notifyStateChange(oldState, newState, stateErr)
}

// Stop kills the server, publishes ProcessStopped and waits for the reader.
func (s *Supervisor) Stop() error {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()
	return s.stopLocked()
}

// stopLocked implements Stop (must hold lifecycleMu).
func (s *Supervisor) stopLocked() error {
	s.mu.Lock()
	inst := s.run
	if inst == nil || s.state != StateRunning {
		s.mu.Unlock()
		return ErrNotRunning
	}
	oldState := s.state
	s.state = StateStopping
	s.mu.Unlock()

	s.notifyStateChange(oldState, StateStopping, nil)
	s.logger.Info("Stopping process", "pid", inst.cmd.Process.Pid)

	if err := killGroup(inst.cmd.Process); err != nil {
		s.logger.Warn("Failed to kill process", "error", err)
	}

	// Published after the kill and before the reader is released, so it is
	// the last event of this instance
	inst.gateMu.Lock()
	inst.stopped = true
	s.opts.Publisher.Publish(bedrock.ProcessStopped{Time: s.now()})
	inst.gateMu.Unlock()

	inst.cancel()
	inst.output.Close()
	<-inst.done

	s.mu.Lock()
	s.state = StateNotRunning
	s.run = nil
	exitCode := s.exitCode
	s.mu.Unlock()

	s.logger.Info("Process stopped", "exit_code", exitCode)
	s.notifyStateChange(StateStopping, StateNotRunning, nil)
	return nil
}

// SendCommand writes cmd as one line to the server console.
// Without an attached process it does nothing and returns nil.
func (s *Supervisor) SendCommand(ctx context.Context, cmd bedrock.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	inst := s.run
	s.mu.RUnlock()
	if inst == nil {
		s.logger.Debug("No process attached, dropping command")
		return nil
	}

	line := cmd.Line()

	inst.writeMu.Lock()
	defer inst.writeMu.Unlock()

	if _, err := inst.writer.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("write command: %w", err)
	}
	if err := inst.writer.Flush(); err != nil {
		return fmt.Errorf("flush command: %w", err)
	}

	s.logger.Debug("Command sent", "command", line)
	return nil
}

// IsRunning reports whether the output reader is active.
//
// During Stop the reader may see EOF and return before ProcessStopped is
// published, so IsRunning can turn false while State still reports
// StateStopping. Use State to tell a requested stop from an exit.
func (s *Supervisor) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// State returns the current state.
func (s *Supervisor) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Info returns a snapshot of the supervisor's state.
func (s *Supervisor) Info() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info := Info{
		State:     s.state,
		StartedAt: s.startedAt,
		ExitCode:  s.exitCode,
		LastError: s.lastError,
	}
	if s.run != nil && s.run.cmd.Process != nil {
		info.PID = s.run.cmd.Process.Pid
	}
	return info
}

// Close stops a running process, cancels the supervisor's context and waits
// for every goroutine it started. The supervisor cannot be run afterwards.
func (s *Supervisor) Close() error {
	s.lifecycleMu.Lock()
	err := s.stopLocked()
	s.cancel()
	s.lifecycleMu.Unlock()

	s.wg.Wait()

	if errors.Is(err, ErrNotRunning) {
		return nil
	}
	return err
}

// logOutput re-logs a process line at the level reported by the parser.
func (s *Supervisor) logOutput(line string) {
	logger := s.opts.OutputLogger
	if logger == nil {
		return
	}

	level, msg := "info", line
	if s.opts.LogParser != nil {
		level, msg = s.opts.LogParser(line)
	}

	switch level {
	case "fatal", "error":
		logger.Error(msg)
	case "warning":
		logger.Warn(msg)
	case "debug", "trace":
		logger.Debug(msg)
	default:
		logger.Info(msg)
	}
}

// notifyStateChange invokes the OnStateChange callback if configured.
func (s *Supervisor) notifyStateChange(oldState, newState State, err error) {
	if s.opts.OnStateChange != nil {
		s.opts.OnStateChange(oldState, newState, err)
	}
}

func (inst *instance) publish(p Publisher, evs []bedrock.Event) {
	if len(evs) == 0 {
		return
	}
	inst.gateMu.Lock()
	defer inst.gateMu.Unlock()
	if inst.stopped {
		return
	}
	for _, ev := range evs {
		p.Publish(ev)
	}
}

func (inst *instance) isStopped() bool {
	inst.gateMu.Lock()
	defer inst.gateMu.Unlock()
	return inst.stopped
}

// killGroup sends SIGKILL to the process group so children holding the
// output pipe die with the server.
func killGroup(p *os.Process) error {
	if p == nil {
		return nil
	}
	err := syscall.Kill(-p.Pid, syscall.SIGKILL)
	if err == nil || errors.Is(err, syscall.ESRCH) {
		return nil
	}
	if killErr := p.Kill(); killErr != nil && !errors.Is(killErr, os.ErrProcessDone) {
		return killErr
	}
	return nil
}

// exitCodeFromError extracts exit code from process error.
// Returns 0 for nil error, the exit code for ExitError, or 1 for other errors.
func exitCodeFromError(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 1
}
