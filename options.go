package linepipe

import (
	"log/slog"
	"maps"
	"time"
)

// Option configures Options using the functional options pattern.
type Option func(*Options)

// applyOptions applies functional options on top of base.
func applyOptions(base *Options, opts []Option) *Options {
	if base == nil {
		base = &Options{}
	}

	for _, opt := range opts {
		opt(base)
	}

	return base
}

// ===== Basic Configuration =====

// WithLogger sets the logger for debug output.
// If not set, logging is disabled (silent operation).
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithExecutable sets the path or name of the child executable.
// A bare name is looked up in PATH.
func WithExecutable(path string) Option {
	return func(o *Options) {
		o.Executable = path
	}
}

// WithSearchPaths sets candidate executable paths tried in order when no
// executable is set.
func WithSearchPaths(paths ...string) Option {
	return func(o *Options) {
		o.SearchPaths = paths
	}
}

// WithArgs sets extra arguments passed after the pipe-mode flag.
func WithArgs(args ...string) Option {
	return func(o *Options) {
		o.Args = args
	}
}

// WithPipeFlag overrides the pipe-mode flag (default "--pipe").
func WithPipeFlag(flag string) Option {
	return func(o *Options) {
		o.PipeFlag = flag
	}
}

// WithoutPipeFlag starts the child without any pipe-mode flag.
func WithoutPipeFlag() Option {
	return func(o *Options) {
		o.DisablePipeFlag = true
	}
}

// WithEnv adds environment variables for the child process.
// Later calls merge with earlier ones.
func WithEnv(env map[string]string) Option {
	return func(o *Options) {
		if o.Env == nil {
			o.Env = make(map[string]string, len(env))
		}

		maps.Copy(o.Env, env)
	}
}

// WithCwd sets the working directory for the child process.
func WithCwd(cwd string) Option {
	return func(o *Options) {
		o.Cwd = cwd
	}
}

// ===== Protocol =====

// WithSentinel overrides the readiness line (default "READY").
func WithSentinel(sentinel string) Option {
	return func(o *Options) {
		o.Sentinel = sentinel
	}
}

// WithSuccessSuffix overrides the success marker (default "_ok").
func WithSuccessSuffix(suffix string) Option {
	return func(o *Options) {
		o.SuccessSuffix = suffix
	}
}

// WithHandshakeTimeout bounds the whole handshake. Zero waits forever.
func WithHandshakeTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.HandshakeTimeout = d
	}
}

// WithResponseTimeout bounds each response read. Zero waits forever.
// A timed-out response aborts the session.
func WithResponseTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.ResponseTimeout = d
	}
}

// ===== Observability =====

// WithObserver sets the sink for preamble, log, request and response lines.
func WithObserver(obs Observer) Option {
	return func(o *Options) {
		o.Observer = obs
	}
}

// WithMetrics sets the recorder for session events.
func WithMetrics(recorder MetricsRecorder) Option {
	return func(o *Options) {
		o.Metrics = recorder
	}
}
