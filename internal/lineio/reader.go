package lineio

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/wagiedev/linepipe-go/internal/errors"
)

// Source yields one line per call. ReadLine returns io.EOF once the stream
// has ended and every line has been delivered.
type Source interface {
	ReadLine(ctx context.Context, timeout time.Duration) (string, error)
}

// Reader implements Source over an io.Reader.
type Reader struct {
	log   *slog.Logger
	lines chan string
	stop  chan struct{}
	done  chan struct{}

	stopOnce sync.Once
	err      error // terminal read error, valid once done is closed
	count    int
}

// Compile-time verification that Reader implements Source.
var _ Source = (*Reader)(nil)

// NewReader starts reading r in a background goroutine. Lines have no length
// limit.
func NewReader(log *slog.Logger, r io.Reader) *Reader {
	lr := &Reader{
		log:   log.With("component", "line_reader"),
		lines: make(chan string),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}

	go lr.pump(r)

	return lr
}

func (r *Reader) pump(src io.Reader) {
	defer close(r.done)
	defer r.log.Debug("Line reader stopped")

	reader := bufio.NewReaderSize(src, 64*1024)

	for {
		raw, err := reader.ReadString('\n')

		// A final line without a terminator is still a line.
		if err == nil || raw != "" {
			select {
			case r.lines <- TrimTerminators(raw):
			case <-r.stop:
				return
			}
		}

		if err != nil {
			if !stderrors.Is(err, io.EOF) && !IsClosed(err) {
				r.log.Debug("Read error on child output", "error", err)
				r.err = fmt.Errorf("read child output: %w", err)
			}

			return
		}
	}
}

// ReadLine returns the next line. A zero timeout waits indefinitely.
//
// It returns io.EOF when the stream ended cleanly, errors.ErrTimeout when the
// timeout elapsed first, and ctx.Err() when ctx was cancelled.
func (r *Reader) ReadLine(ctx context.Context, timeout time.Duration) (string, error) {
	var expired <-chan time.Time

	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()

		expired = timer.C
	}

	select {
	case line := <-r.lines:
		r.count++

		return line, nil
	case <-r.done:
		// The pump may have delivered its last line just before exiting.
		select {
		case line := <-r.lines:
			r.count++

			return line, nil
		default:
		}

		if r.err != nil {
			return "", r.err
		}

		return "", io.EOF
	case <-expired:
		return "", fmt.Errorf("no line within %s: %w", timeout, errors.ErrTimeout)
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Count returns the number of lines delivered so far.
func (r *Reader) Count() int {
	return r.count
}

// Close stops the background goroutine. Lines not yet read are discarded.
// It does not close the underlying stream.
func (r *Reader) Close() {
	r.stopOnce.Do(func() {
		close(r.stop)
	})
}

// TrimTerminators strips line terminators and surrounding whitespace.
func TrimTerminators(line string) string {
	return strings.TrimSpace(line)
}

// IsClosed reports whether err comes from reading a pipe that os/exec closed
// after the child exited; that is an ordinary end of stream.
func IsClosed(err error) bool {
	return stderrors.Is(err, fs.ErrClosed) || stderrors.Is(err, os.ErrClosed) || stderrors.Is(err, io.ErrClosedPipe)
}
