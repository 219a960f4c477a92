package channel

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/wagiedev/linepipe-go/internal/errors"
	"github.com/wagiedev/linepipe-go/internal/lineio"
	"github.com/wagiedev/linepipe-go/internal/observer"
)

// DefaultSuccessSuffix marks a response as successful.
const DefaultSuccessSuffix = "_ok"

// writeExitGrace bounds how long Send waits for a blocked write goroutine
// after closing stdin on cancellation.
const writeExitGrace = time.Second

// Response is one response line, paired with its request by position.
type Response struct {
	Index   int
	Line    string
	Success bool
}

// Classify reports whether line ends with the success suffix.
// Anything else is an unsuccessful response, not an error.
func Classify(line, suffix string) bool {
	if suffix == "" {
		suffix = DefaultSuccessSuffix
	}

	return strings.HasSuffix(line, suffix)
}

// Channel exchanges request and response lines with a child.
type Channel struct {
	log      *slog.Logger
	observer observer.Observer
	source   lineio.Source
	suffix   string
	timeout  time.Duration

	mu     sync.Mutex // Protects stdin writes
	stdin  io.WriteCloser
	writer *bufio.Writer
	closed bool

	sent     int
	received int
}

// New creates a channel over the child's input and a line source reading its
// output. A zero timeout makes Receive wait indefinitely.
func New(
	log *slog.Logger,
	obs observer.Observer,
	stdin io.WriteCloser,
	source lineio.Source,
	suffix string,
	timeout time.Duration,
) *Channel {
	if suffix == "" {
		suffix = DefaultSuccessSuffix
	}

	return &Channel{
		log:      log.With("component", "channel"),
		observer: observer.OrNop(obs),
		source:   source,
		suffix:   suffix,
		timeout:  timeout,
		stdin:    stdin,
		writer:   bufio.NewWriter(stdin),
	}
}

// Send writes payload followed by a newline and flushes it to the child.
//
// Payloads containing a line terminator are rejected. Write failures return a
// WriteError. If ctx is cancelled during a blocked write, stdin is closed to
// unblock it and ctx.Err() is returned.
func (c *Channel) Send(ctx context.Context, payload string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	index := c.sent

	if c.closed {
		return &errors.WriteError{Index: index, Err: errors.ErrChannelClosed}
	}

	if strings.ContainsAny(payload, "\r\n") {
		return &errors.WriteError{Index: index, Err: errors.ErrInvalidPayload}
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	c.log.Debug("Sending request", "index", index, "data_len", len(payload))

	done := make(chan error, 1)

	go func() {
		if _, err := c.writer.WriteString(payload + "\n"); err != nil {
			done <- err

			return
		}

		done <- c.writer.Flush()
	}()

	select {
	case err := <-done:
		if err != nil {
			c.log.Error("Failed to write request", "index", index, "error", err)

			return &errors.WriteError{Index: index, Err: err}
		}

	case <-ctx.Done():
		c.log.Debug("Context cancelled during write, closing stdin", "index", index)

		_ = c.stdin.Close()
		c.closed = true

		select {
		case <-done:
		case <-time.After(writeExitGrace):
			c.log.Warn("Write goroutine did not exit after stdin close, potential leak")
		}

		return ctx.Err()
	}

	c.sent++
	c.observer.ObserveLine(observer.KindRequest, payload)

	return nil
}

// Receive blocks until one response line is available.
//
// A stream that ends before the response arrives yields a ReceiveError
// wrapping errors.ErrStreamClosed; a timeout yields one wrapping
// errors.ErrTimeout.
func (c *Channel) Receive(ctx context.Context) (Response, error) {
	index := c.received
	c.received++

	line, err := c.source.ReadLine(ctx, c.timeout)
	if err != nil {
		// The child is killed when ctx ends, so a cancelled ctx wins over
		// the end of stream that follows.
		if ctx.Err() != nil {
			return Response{Index: index}, ctx.Err()
		}

		if stderrors.Is(err, io.EOF) {
			err = errors.ErrStreamClosed
		}

		c.log.Warn("No response from child", "index", index, "error", err)

		return Response{Index: index}, &errors.ReceiveError{Index: index, Err: err}
	}

	resp := Response{
		Index:   index,
		Line:    line,
		Success: Classify(line, c.suffix),
	}

	c.log.Debug("Received response", "index", index, "success", resp.Success)
	c.observer.ObserveLine(observer.KindResponse, line)

	return resp, nil
}

// Close closes the child's input, signalling end of requests.
// It is safe to call more than once.
func (c *Channel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	c.closed = true
	c.log.Debug("Closing request stream", "sent", c.sent)

	if err := c.stdin.Close(); err != nil {
		return fmt.Errorf("close request stream: %w", err)
	}

	return nil
}

// Sent returns how many requests were written successfully.
func (c *Channel) Sent() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.sent
}

// Received returns how many Receive calls were made.
func (c *Channel) Received() int {
	return c.received
}
