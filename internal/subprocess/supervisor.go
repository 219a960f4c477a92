package subprocess

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/wagiedev/linepipe-go/internal/cli"
	"github.com/wagiedev/linepipe-go/internal/config"
	"github.com/wagiedev/linepipe-go/internal/errors"
)

// Supervisor creates child processes from session options.
type Supervisor struct {
	log     *slog.Logger
	options *config.Options
}

// NewSupervisor creates a supervisor for the given options.
func NewSupervisor(log *slog.Logger, options *config.Options) *Supervisor {
	return &Supervisor{
		log:     log.With("component", "supervisor"),
		options: options,
	}
}

// Spawn discovers the executable and starts it with redirected stdio.
//
// Every failure is returned as a SpawnError; spawning is never retried.
func (s *Supervisor) Spawn(ctx context.Context, sessionID string) (*Child, error) {
	s.log.Info("Spawning child process")

	discoverer := cli.NewDiscoverer(&cli.Config{
		Executable:  s.options.Executable,
		SearchPaths: s.options.SearchPaths,
		Logger:      s.log,
	})

	path, err := discoverer.Discover(ctx)
	if err != nil {
		return nil, &errors.SpawnError{Err: err}
	}

	args := cli.BuildArgs(s.options)
	s.log.Debug("Built command arguments", "path", path, "args", args)

	cwd := s.options.Cwd
	if cwd == "" {
		cwd, err = os.Getwd()
		if err != nil {
			return nil, &errors.SpawnError{Path: path, Err: fmt.Errorf("get working directory: %w", err)}
		}
	}

	//nolint:gosec // G204: launching a configured executable is the purpose of this package
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Dir = cwd
	cmd.Env = cli.BuildEnvironment(s.options, sessionID)

	setProcessGroup(cmd)
	cmd.Cancel = func() error {
		return killProcessGroup(cmd.Process)
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		s.log.Error("Failed to create stdin pipe", "error", err)

		return nil, &errors.SpawnError{Path: path, Err: fmt.Errorf("stdin pipe: %w", err)}
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		s.log.Error("Failed to create stdout pipe", "error", err)

		return nil, &errors.SpawnError{Path: path, Err: fmt.Errorf("stdout pipe: %w", err)}
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		s.log.Error("Failed to create stderr pipe", "error", err)

		return nil, &errors.SpawnError{Path: path, Err: fmt.Errorf("stderr pipe: %w", err)}
	}

	if err := cmd.Start(); err != nil {
		s.log.Error("Failed to start child process", "error", err)

		return nil, &errors.SpawnError{Path: path, Err: fmt.Errorf("start process: %w", err)}
	}

	s.log.Info("Child process started", "path", path, "pid", cmd.Process.Pid)

	return &Child{
		log:       s.log.With("pid", cmd.Process.Pid),
		path:      path,
		args:      args,
		cmd:       cmd,
		stdin:     stdin,
		stdout:    stdout,
		stderr:    stderr,
		readEnds:  []io.Closer{stdout, stderr},
		startedAt: time.Now(),
	}, nil
}

// ExitStatus is the child's termination status.
type ExitStatus struct {
	// Code is the exit code, or -1 if the child was killed by a signal.
	Code int
	// Success is true iff the child exited with code zero.
	Success bool
	// Description is the OS description, e.g. "exit status 1" or "signal: killed".
	Description string
}

func (s ExitStatus) String() string {
	if s.Description != "" {
		return s.Description
	}

	return fmt.Sprintf("exit status %d", s.Code)
}

// Child is a running child process.
type Child struct {
	log       *slog.Logger
	path      string
	args      []string
	cmd       *exec.Cmd
	startedAt time.Time

	mu     sync.Mutex
	stdin  io.WriteCloser
	stdout io.ReadCloser
	stderr io.ReadCloser
	waited bool

	// readEnds stay reachable after the handles are taken so Kill can
	// unblock their readers.
	readEnds []io.Closer
}

// Stdin hands out the request-write handle. It panics if taken twice.
func (c *Child) Stdin() io.WriteCloser {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stdin == nil {
		panic(fmt.Sprintf("subprocess: stdin: %v", errors.ErrHandleTaken))
	}

	h := c.stdin
	c.stdin = nil

	return h
}

// Stdout hands out the response-read handle. It panics if taken twice.
func (c *Child) Stdout() io.ReadCloser {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stdout == nil {
		panic(fmt.Sprintf("subprocess: stdout: %v", errors.ErrHandleTaken))
	}

	h := c.stdout
	c.stdout = nil

	return h
}

// Stderr hands out the log-read handle. It panics if taken twice.
func (c *Child) Stderr() io.ReadCloser {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stderr == nil {
		panic(fmt.Sprintf("subprocess: stderr: %v", errors.ErrHandleTaken))
	}

	h := c.stderr
	c.stderr = nil

	return h
}

// Wait blocks until the child terminates and returns its exit status.
//
// A non-zero exit is reported in ExitStatus, not as an error. Wait closes the
// stdout and stderr pipes, so readers must be finished before it is called.
// A second call returns errors.ErrAlreadyWaited.
func (c *Child) Wait() (ExitStatus, error) {
	c.mu.Lock()

	if c.waited {
		c.mu.Unlock()

		return ExitStatus{}, errors.ErrAlreadyWaited
	}

	c.waited = true
	c.mu.Unlock()

	c.log.Debug("Waiting for child process to exit")

	err := c.cmd.Wait()
	if err == nil {
		c.log.Info("Child process exited successfully", "runtime", time.Since(c.startedAt))

		return ExitStatus{Code: 0, Success: true, Description: c.cmd.ProcessState.String()}, nil
	}

	if exitErr, ok := stderrors.AsType[*exec.ExitError](err); ok {
		status := ExitStatus{
			Code:        exitErr.ExitCode(),
			Description: exitErr.ProcessState.String(),
		}

		c.log.Warn("Child process exited with error", "exit_code", status.Code, "status", status.Description)

		return status, nil
	}

	c.log.Error("Waiting for child process failed", "error", err)

	return ExitStatus{}, &errors.WaitError{Err: err}
}

// Kill forcefully terminates the child and its process group, then closes
// the stdout and stderr read ends so readers return even when a detached
// descendant still holds the pipes. It is safe to call after exit.
func (c *Child) Kill() error {
	if c.cmd.Process == nil {
		return nil
	}

	c.mu.Lock()
	waited := c.waited
	c.mu.Unlock()

	var err error

	// After Wait the pid may already belong to another process.
	if !waited {
		c.log.Debug("Killing child process group")

		err = killProcessGroup(c.cmd.Process)
	}

	for _, r := range c.readEnds {
		_ = r.Close()
	}

	if err != nil && !stderrors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("kill child process (pid %d): %w", c.cmd.Process.Pid, err)
	}

	return nil
}

// PID returns the child's process ID.
func (c *Child) PID() int {
	return c.cmd.Process.Pid
}

// Path returns the resolved executable path.
func (c *Child) Path() string {
	return c.path
}

// Args returns the arguments the child was started with.
func (c *Child) Args() []string {
	return c.args
}
