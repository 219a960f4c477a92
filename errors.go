package linepipe

import "github.com/wagiedev/linepipe-go/internal/errors"

// Re-export error types from internal package

// LinePipeError is the base interface for all supervisor errors.
type LinePipeError = errors.LinePipeError

// ExecutableNotFoundError indicates the child executable was not found.
type ExecutableNotFoundError = errors.ExecutableNotFoundError

// SpawnError indicates the child process could not be started.
type SpawnError = errors.SpawnError

// HandshakeError indicates the child never printed the readiness sentinel.
type HandshakeError = errors.HandshakeError

// HandshakeReason classifies a HandshakeError.
type HandshakeReason = errors.HandshakeReason

const (
	// ReasonStreamClosed means stdout closed before the sentinel.
	ReasonStreamClosed = errors.ReasonStreamClosed
	// ReasonTimeout means the handshake timeout elapsed.
	ReasonTimeout = errors.ReasonTimeout
	// ReasonReadFailed means reading stdout failed.
	ReasonReadFailed = errors.ReasonReadFailed
)

// WriteError indicates a request could not be written to the child.
type WriteError = errors.WriteError

// ReceiveError indicates no response line could be read for a request.
type ReceiveError = errors.ReceiveError

// WaitError indicates waiting for the child failed.
type WaitError = errors.WaitError

// DrainError indicates reading the child's stderr failed.
type DrainError = errors.DrainError

// Re-export sentinel errors from internal package.
var (
	// ErrStreamClosed indicates the child closed a stream before the expected line arrived.
	ErrStreamClosed = errors.ErrStreamClosed

	// ErrTimeout indicates a read did not complete within its deadline.
	ErrTimeout = errors.ErrTimeout

	// ErrInvalidPayload indicates a request contains a line terminator.
	ErrInvalidPayload = errors.ErrInvalidPayload

	// ErrNoRequests indicates a session file lists no requests.
	ErrNoRequests = errors.ErrNoRequests
)

// IsFatal reports whether err aborts a session.
func IsFatal(err error) bool {
	return errors.IsFatal(err)
}
