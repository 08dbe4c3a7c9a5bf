package process

import (
	"fmt"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Supervisor manages child processes with lifecycle tracking and cleanup.
type Supervisor struct {
	mu        sync.RWMutex
	processes map[string]*Process

	closed atomic.Bool

	// maxProcesses limits the number of concurrent processes (0 = unlimited)
	maxProcesses int

	onProcessExit func(p *Process)
	logger        *zap.Logger
}

// SupervisorOption configures a Supervisor instance.
type SupervisorOption func(*Supervisor)

// WithMaxProcesses sets the maximum number of concurrent processes.
// A value of 0 (default) means unlimited.
func WithMaxProcesses(n int) SupervisorOption {
	return func(s *Supervisor) {
		s.maxProcesses = n
	}
}

// WithProcessExitCallback sets a callback for when processes exit.
func WithProcessExitCallback(fn func(p *Process)) SupervisorOption {
	return func(s *Supervisor) {
		s.onProcessExit = fn
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) SupervisorOption {
	return func(s *Supervisor) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSupervisor creates a new process supervisor.
func NewSupervisor(opts ...SupervisorOption) *Supervisor {
	s := &Supervisor{
		processes: make(map[string]*Process),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start starts a new managed process under a random ID.
//
// Stdin, stdout and stderr are piped unless the command already has them.
func (s *Supervisor) Start(name string, cmd *exec.Cmd) (*Process, error) {
	return s.startWithID(uuid.NewString(), name, cmd)
}

func (s *Supervisor) startWithID(id, name string, cmd *exec.Cmd) (*Process, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Load() {
		return nil, ErrSupervisorShutdown
	}
	if s.maxProcesses > 0 && len(s.processes) >= s.maxProcesses {
		return nil, fmt.Errorf("process limit reached: %d", s.maxProcesses)
	}
	if _, exists := s.processes[id]; exists {
		return nil, fmt.Errorf("process ID already exists: %s", id)
	}

	proc := NewProcess(id, name, cmd)
	fail := func(err error) (*Process, error) {
		_ = proc.Close()
		return nil, err
	}

	var err error
	if cmd.Stdin == nil {
		if proc.Stdin, err = cmd.StdinPipe(); err != nil {
			return fail(fmt.Errorf("create stdin pipe: %w", err))
		}
	}
	if cmd.Stdout == nil {
		if proc.Stdout, err = cmd.StdoutPipe(); err != nil {
			return fail(fmt.Errorf("create stdout pipe: %w", err))
		}
	}
	if cmd.Stderr == nil {
		if proc.Stderr, err = cmd.StderrPipe(); err != nil {
			return fail(fmt.Errorf("create stderr pipe: %w", err))
		}
	}

	if err := proc.start(); err != nil {
		return fail(err)
	}

	s.processes[id] = proc
	s.logger.Debug("process started",
		zap.String("id", id),
		zap.String("name", name),
		zap.Int("pid", proc.PID()))

	go s.monitorProcess(proc)
	return proc, nil
}

func (s *Supervisor) monitorProcess(proc *Process) {
	<-proc.Done()

	s.logger.Debug("process exited",
		zap.String("id", proc.ID),
		zap.String("name", proc.Name),
		zap.Int("code", proc.ExitCode()),
		zap.Stringer("state", proc.State()))

	if s.onProcessExit != nil {
		func() {
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("process exit callback panicked", zap.Any("panic", r))
				}
			}()
			s.onProcessExit(proc)
		}()
	}

	s.mu.Lock()
	delete(s.processes, proc.ID)
	s.mu.Unlock()
}

// Get returns a process by ID, or nil.
func (s *Supervisor) Get(id string) *Process {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.processes[id]
}

// List returns all managed processes.
func (s *Supervisor) List() []*Process {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Process, 0, len(s.processes))
	for _, p := range s.processes {
		result = append(result, p)
	}
	return result
}

// Count returns the number of managed processes.
func (s *Supervisor) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.processes)
}

// Kill kills a process by ID.
func (s *Supervisor) Kill(id string) error {
	proc := s.Get(id)
	if proc == nil {
		return ErrProcessNotFound
	}
	if !proc.IsRunning() {
		return nil
	}
	return proc.Kill()
}

// Terminate sends SIGTERM to a process by ID.
func (s *Supervisor) Terminate(id string) error {
	proc := s.Get(id)
	if proc == nil {
		return ErrProcessNotFound
	}
	if !proc.IsRunning() {
		return nil
	}
	return proc.Terminate()
}

// Shutdown terminates all processes, waits up to timeout, then kills the
// rest. It blocks until every process is gone. Repeated calls are no-ops.
func (s *Supervisor) Shutdown(timeout time.Duration) {
	if s.closed.Swap(true) {
		return
	}

	procs := s.List()
	if len(procs) == 0 {
		return
	}
	for _, p := range procs {
		if p.IsRunning() {
			_ = p.Terminate()
		}
	}

	done := make(chan struct{})
	go func() {
		for _, p := range procs {
			<-p.Done()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		s.logger.Warn("processes did not exit in time, killing", zap.Duration("timeout", timeout))
		for _, p := range procs {
			if p.IsRunning() {
				_ = p.Kill()
			}
		}
		<-done
	}

	// Wait for the monitors to drop their entries.
	for s.Count() > 0 {
		time.Sleep(time.Millisecond)
	}
}
