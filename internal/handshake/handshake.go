// Package handshake waits for a child to announce readiness on its output
// stream before any request is sent.
package handshake

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"time"

	"github.com/wagiedev/linepipe-go/internal/errors"
	"github.com/wagiedev/linepipe-go/internal/lineio"
	"github.com/wagiedev/linepipe-go/internal/observer"
)

// DefaultSentinel is the line a child prints once it is ready for requests.
const DefaultSentinel = "READY"

// State is the readiness state of a session. It moves from AwaitingReady to
// Ready exactly once and never reverts.
type State int

const (
	// AwaitingReady means the sentinel has not been seen yet.
	AwaitingReady State = iota
	// Ready means the sentinel was seen.
	Ready
)

func (s State) String() string {
	if s == Ready {
		return "ready"
	}

	return "awaiting_ready"
}

// Gate consumes preamble lines until the sentinel line arrives.
type Gate struct {
	log      *slog.Logger
	observer observer.Observer
	sentinel string
	timeout  time.Duration

	state    State
	preamble int
}

// New creates a gate. An empty sentinel means DefaultSentinel; a zero
// timeout waits indefinitely.
func New(log *slog.Logger, obs observer.Observer, sentinel string, timeout time.Duration) *Gate {
	if sentinel == "" {
		sentinel = DefaultSentinel
	}

	return &Gate{
		log:      log.With("component", "handshake"),
		observer: observer.OrNop(obs),
		sentinel: sentinel,
		timeout:  timeout,
	}
}

// AwaitReady reads lines from src until the sentinel is observed.
//
// Empty lines are ignored and every other line is forwarded to the observer
// as preamble. The timeout covers the whole handshake, not each line.
func (g *Gate) AwaitReady(ctx context.Context, src lineio.Source) error {
	if g.state == Ready {
		return nil
	}

	var deadline time.Time
	if g.timeout > 0 {
		deadline = time.Now().Add(g.timeout)
	}

	g.log.Debug("Awaiting readiness sentinel", "sentinel", g.sentinel)

	for {
		var remaining time.Duration

		if !deadline.IsZero() {
			remaining = time.Until(deadline)
			if remaining <= 0 {
				return g.fail(errors.ReasonTimeout, errors.ErrTimeout)
			}
		}

		line, err := src.ReadLine(ctx, remaining)
		if err != nil {
			switch {
			case ctx.Err() != nil:
				return ctx.Err()
			case stderrors.Is(err, io.EOF):
				return g.fail(errors.ReasonStreamClosed, errors.ErrStreamClosed)
			case stderrors.Is(err, errors.ErrTimeout):
				return g.fail(errors.ReasonTimeout, err)
			default:
				return g.fail(errors.ReasonReadFailed, err)
			}
		}

		switch line {
		case "":
			continue
		case g.sentinel:
			g.state = Ready
			g.log.Info("Child signalled readiness", "preamble_lines", g.preamble)

			return nil
		default:
			g.preamble++
			g.observer.ObserveLine(observer.KindPreamble, line)
		}
	}
}

func (g *Gate) fail(reason errors.HandshakeReason, err error) error {
	g.log.Error("Handshake failed", "reason", reason, "preamble_lines", g.preamble, "error", err)

	return &errors.HandshakeError{Reason: reason, Preamble: g.preamble, Err: err}
}

// State returns the current readiness state.
func (g *Gate) State() State {
	return g.state
}

// Preamble returns how many non-empty preamble lines were seen.
func (g *Gate) Preamble() int {
	return g.preamble
}
