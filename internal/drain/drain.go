// Package drain consumes a child's diagnostic stream so the child never
// blocks on a full stderr pipe.
package drain

import (
	"bufio"
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/wagiedev/linepipe-go/internal/errors"
	"github.com/wagiedev/linepipe-go/internal/lineio"
	"github.com/wagiedev/linepipe-go/internal/observer"
)

// maxTailSize caps the retained stderr tail used in error reports.
// Reading continues past the cap; only retention stops.
const maxTailSize = 1024 * 1024 // 1MB

// Drain forwards every line of a stream to an observer until end-of-stream.
type Drain struct {
	log      *slog.Logger
	observer observer.Observer

	mu    sync.Mutex
	tail  strings.Builder
	lines int
}

// New creates a drain forwarding lines to obs.
func New(log *slog.Logger, obs observer.Observer) *Drain {
	return &Drain{
		log:      log.With("component", "log_drain"),
		observer: observer.OrNop(obs),
	}
}

// Run reads r line by line until end-of-stream.
//
// It relies on the stream closing (child exit or kill) to return; ctx is only
// checked between lines. A clean end-of-stream, including a pipe closed by
// os/exec, returns nil.
func (d *Drain) Run(ctx context.Context, r io.Reader) error {
	d.log.Debug("Log drain started")

	reader := bufio.NewReaderSize(r, 64*1024)

	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			d.forward(strings.TrimRight(line, "\r\n"))
		}

		if err != nil {
			if stderrors.Is(err, io.EOF) || lineio.IsClosed(err) {
				d.log.Debug("Log drain reached end of stream", "lines", d.Lines())

				return nil
			}

			d.log.Warn("Log drain read failed", "error", err)

			return &errors.DrainError{Lines: d.Lines(), Err: err}
		}

		select {
		case <-ctx.Done():
			d.log.Debug("Log drain cancelled", "lines", d.Lines())

			return ctx.Err()
		default:
		}
	}
}

func (d *Drain) forward(line string) {
	d.mu.Lock()

	d.lines++

	if d.tail.Len() < maxTailSize {
		if d.tail.Len() > 0 {
			d.tail.WriteString("\n")
		}

		d.tail.WriteString(line)
	}

	d.mu.Unlock()

	d.observer.ObserveLine(observer.KindLog, line)
}

// Lines returns the number of lines forwarded so far.
func (d *Drain) Lines() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.lines
}

// Tail returns the retained stderr output, capped at maxTailSize.
func (d *Drain) Tail() string {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.tail.String()
}
