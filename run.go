package linepipe

import (
	"context"
	"fmt"

	"github.com/wagiedev/linepipe-go/internal/session"
)

// Run executes one session: it spawns the child, waits for the readiness
// sentinel, sends every request in order and returns the verdict.
//
// Fatal failures (spawn, handshake, write, timeouts, wait) are returned as
// errors with a nil result. A child that fails some requests or exits non-zero
// yields a result whose Success reports false.
func Run(ctx context.Context, requests []string, opts ...Option) (*SessionResult, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	options := applyOptions(nil, opts)

	return session.New(options).Run(ctx, requests)
}

// RunFile loads a TOML session file and runs its requests. Options given here
// override the file's settings.
func RunFile(ctx context.Context, path string, opts ...Option) (*SessionResult, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	file, err := LoadSessionFile(path)
	if err != nil {
		return nil, err
	}

	if len(file.Requests) == 0 {
		return nil, fmt.Errorf("session file %q: %w", path, ErrNoRequests)
	}

	options := &Options{}
	file.Apply(options)
	options = applyOptions(options, opts)

	return session.New(options).Run(ctx, file.Requests)
}
