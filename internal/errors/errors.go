package errors

import (
	"errors"
	"fmt"
)

// LinePipeError is the base interface for all supervisor errors.
type LinePipeError interface {
	error
	IsLinePipeError() bool
}

// Compile-time verification that all error types implement LinePipeError.
var (
	_ LinePipeError = (*ExecutableNotFoundError)(nil)
	_ LinePipeError = (*SpawnError)(nil)
	_ LinePipeError = (*HandshakeError)(nil)
	_ LinePipeError = (*WriteError)(nil)
	_ LinePipeError = (*ReceiveError)(nil)
	_ LinePipeError = (*WaitError)(nil)
	_ LinePipeError = (*DrainError)(nil)
)

// Sentinel errors for commonly checked conditions.
var (
	// ErrStreamClosed indicates the child closed a stream before the expected line arrived.
	ErrStreamClosed = errors.New("stream closed")

	// ErrTimeout indicates a blocking read did not complete within its deadline.
	ErrTimeout = errors.New("timeout")

	// ErrAlreadyWaited indicates Wait was called more than once on the same child.
	ErrAlreadyWaited = errors.New("child already waited")

	// ErrHandleTaken indicates a stream handle was taken a second time.
	ErrHandleTaken = errors.New("stream handle already taken")

	// ErrInvalidPayload indicates a request payload would break line framing.
	ErrInvalidPayload = errors.New("request payload contains a line terminator")

	// ErrChannelClosed indicates a send after the request side was closed.
	ErrChannelClosed = errors.New("request channel closed")

	// ErrNoRequests indicates a session file did not list any requests.
	ErrNoRequests = errors.New("no requests configured")
)

// ExecutableNotFoundError indicates the child executable could not be located.
type ExecutableNotFoundError struct {
	SearchedPaths []string
}

func (e *ExecutableNotFoundError) Error() string {
	return fmt.Sprintf("executable not found in: %v", e.SearchedPaths)
}

// IsLinePipeError implements LinePipeError.
func (e *ExecutableNotFoundError) IsLinePipeError() bool { return true }

// SpawnError indicates the child process could not be created.
// It is always fatal: spawn failures point at the environment, not a transient fault.
type SpawnError struct {
	Path string
	Err  error
}

func (e *SpawnError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("failed to spawn child: %v", e.Err)
	}

	return fmt.Sprintf("failed to spawn child %q: %v", e.Path, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// IsLinePipeError implements LinePipeError.
func (e *SpawnError) IsLinePipeError() bool { return true }

// HandshakeReason describes why the readiness handshake failed.
type HandshakeReason string

const (
	// ReasonStreamClosed means the output stream ended before the sentinel line.
	ReasonStreamClosed HandshakeReason = "stream_closed"
	// ReasonTimeout means the sentinel did not arrive within the handshake deadline.
	ReasonTimeout HandshakeReason = "timeout"
	// ReasonReadFailed means reading the output stream failed.
	ReasonReadFailed HandshakeReason = "read_failed"
)

// HandshakeError indicates the child never signalled readiness.
type HandshakeError struct {
	Reason   HandshakeReason
	Preamble int
	Err      error
}

func (e *HandshakeError) Error() string {
	return fmt.Sprintf("handshake failed (%s after %d preamble lines): %v", e.Reason, e.Preamble, e.Err)
}

func (e *HandshakeError) Unwrap() error {
	return e.Err
}

// IsLinePipeError implements LinePipeError.
func (e *HandshakeError) IsLinePipeError() bool { return true }

// WriteError indicates a request could not be written to the child's input.
type WriteError struct {
	Index int
	Err   error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write request %d: %v", e.Index, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// IsLinePipeError implements LinePipeError.
func (e *WriteError) IsLinePipeError() bool { return true }

// ReceiveError indicates no response line could be read for a request.
type ReceiveError struct {
	Index int
	Err   error
}

func (e *ReceiveError) Error() string {
	return fmt.Sprintf("receive response %d: %v", e.Index, e.Err)
}

func (e *ReceiveError) Unwrap() error {
	return e.Err
}

// IsLinePipeError implements LinePipeError.
func (e *ReceiveError) IsLinePipeError() bool { return true }

// WaitError indicates waiting for the child to terminate failed.
// A non-zero exit status is not a WaitError.
type WaitError struct {
	Err error
}

func (e *WaitError) Error() string {
	return fmt.Sprintf("wait for child: %v", e.Err)
}

func (e *WaitError) Unwrap() error {
	return e.Err
}

// IsLinePipeError implements LinePipeError.
func (e *WaitError) IsLinePipeError() bool { return true }

// DrainError indicates the log drain stopped on a read failure.
type DrainError struct {
	Lines int
	Err   error
}

func (e *DrainError) Error() string {
	return fmt.Sprintf("log drain failed after %d lines: %v", e.Lines, e.Err)
}

func (e *DrainError) Unwrap() error {
	return e.Err
}

// IsLinePipeError implements LinePipeError.
func (e *DrainError) IsLinePipeError() bool { return true }

// IsFatal reports whether err aborts a session.
// Receive errors are absorbed into the tally as missing responses, except
// timeouts.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}

	if recvErr, ok := errors.AsType[*ReceiveError](err); ok {
		return errors.Is(recvErr, ErrTimeout)
	}

	return true
}
