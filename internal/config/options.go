// Package config provides configuration types for the pipe supervisor.
package config

import (
	"log/slog"
	"time"

	"github.com/wagiedev/linepipe-go/internal/metrics"
	"github.com/wagiedev/linepipe-go/internal/observer"
)

// DefaultPipeFlag is the argument that switches the child into pipe mode.
const DefaultPipeFlag = "--pipe"

// Options configures a supervised session.
type Options struct {
	// Logger is the slog logger for debug output.
	// If nil, logging is disabled (silent operation).
	Logger *slog.Logger

	// Executable is the path or name of the child executable.
	// If empty, discovery falls back to LINEPIPE_EXECUTABLE and SearchPaths.
	Executable string

	// SearchPaths are candidate executable paths tried in order when
	// Executable is empty.
	SearchPaths []string

	// PipeFlag is passed as the first argument to enable pipe mode.
	// Empty means DefaultPipeFlag.
	PipeFlag string

	// DisablePipeFlag omits the pipe-mode flag entirely.
	DisablePipeFlag bool

	// Args are extra arguments appended after the pipe flag.
	Args []string

	// Env provides additional environment variables for the child process.
	Env map[string]string

	// Cwd sets the working directory for the child process.
	Cwd string

	// Observer receives preamble, log, request and response lines.
	// If nil, lines are discarded.
	Observer observer.Observer

	// Sentinel is the readiness line. Empty means "READY".
	Sentinel string

	// SuccessSuffix marks a successful response. Empty means "_ok".
	SuccessSuffix string

	// HandshakeTimeout bounds the wait for the sentinel. Zero waits forever.
	HandshakeTimeout time.Duration

	// ResponseTimeout bounds each response read. Zero waits forever.
	ResponseTimeout time.Duration

	// Metrics records session outcomes. If nil, nothing is recorded.
	Metrics metrics.Recorder
}

// EffectivePipeFlag returns the pipe flag to pass, or "" when disabled.
func (o *Options) EffectivePipeFlag() string {
	if o.DisablePipeFlag {
		return ""
	}

	if o.PipeFlag == "" {
		return DefaultPipeFlag
	}

	return o.PipeFlag
}
