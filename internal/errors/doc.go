// Package errors defines error types for the pipe supervisor.
//
// Each failure category of a session has its own structured type so callers
// can tell an environment problem (spawn), a protocol violation (handshake),
// a transport failure (write), a per-item miss (receive) and a teardown
// failure (wait, drain) apart. All error types support unwrapping and can be
// checked using errors.Is, errors.As, and errors.AsType.
package errors
