package session

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/wagiedev/linepipe-go/internal/channel"
	"github.com/wagiedev/linepipe-go/internal/config"
	"github.com/wagiedev/linepipe-go/internal/drain"
	"github.com/wagiedev/linepipe-go/internal/errors"
	"github.com/wagiedev/linepipe-go/internal/handshake"
	"github.com/wagiedev/linepipe-go/internal/lineio"
	"github.com/wagiedev/linepipe-go/internal/metrics"
	"github.com/wagiedev/linepipe-go/internal/observer"
	"github.com/wagiedev/linepipe-go/internal/subprocess"
)

// Orchestrator runs sessions with a fixed set of options.
type Orchestrator struct {
	log      *slog.Logger
	options  *config.Options
	observer observer.Observer
	metrics  metrics.Recorder
}

// New creates an orchestrator. Nil options run the child with defaults.
func New(options *config.Options) *Orchestrator {
	if options == nil {
		options = &config.Options{}
	}

	log := options.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Orchestrator{
		log:      log.With("component", "session"),
		options:  options,
		observer: observer.OrNop(options.Observer),
		metrics:  metrics.OrNop(options.Metrics),
	}
}

// run holds the state of a single session.
type run struct {
	log     *slog.Logger
	child   *subprocess.Child
	stdin   io.WriteCloser
	reader  *lineio.Reader
	drain   *drain.Drain
	eg      *errgroup.Group
	result  *Result
	metrics metrics.Recorder
}

// Run executes one session: spawn, handshake, exchange every request in
// order, close the request side, and collect the verdict.
//
// Any error other than a missing response aborts the session: the child is
// killed, its streams and the log drain are joined, and the error is returned
// without a Result. An empty request list is valid.
func (o *Orchestrator) Run(ctx context.Context, requests []string) (*Result, error) {
	id := ulid.Make().String()
	log := o.log.With("session_id", id)
	startedAt := time.Now()

	log.Info("Starting session", "requests", len(requests))

	child, err := subprocess.NewSupervisor(log, o.options).Spawn(ctx, id)
	if err != nil {
		o.metrics.SessionFinished(metrics.OutcomeError, time.Since(startedAt))

		return nil, err
	}

	r := &run{
		log:     log,
		child:   child,
		stdin:   child.Stdin(),
		drain:   drain.New(log, o.observer),
		eg:      &errgroup.Group{},
		metrics: o.metrics,
		result: &Result{
			ID:         id,
			Executable: child.Path(),
			Requests:   len(requests),
			Responses:  make([]Item, 0, len(requests)),
			StartedAt:  startedAt,
		},
	}

	stderr := child.Stderr()
	r.eg.Go(func() error {
		return r.drain.Run(ctx, stderr)
	})

	r.reader = lineio.NewReader(log, child.Stdout())

	if err := r.exchange(ctx, o.options, o.observer, requests); err != nil {
		r.abort()
		o.metrics.SessionFinished(metrics.OutcomeError, time.Since(startedAt))

		log.Error("Session aborted", "error", err)

		return nil, err
	}

	if err := r.finish(ctx); err != nil {
		o.metrics.SessionFinished(metrics.OutcomeError, time.Since(startedAt))

		log.Error("Session failed to finish", "error", err)

		return nil, err
	}

	result := r.result
	result.Duration = time.Since(startedAt)

	outcome := metrics.OutcomeFailure
	if result.Success() {
		outcome = metrics.OutcomeSuccess
	}

	o.metrics.SessionFinished(outcome, result.Duration)

	log.Info("Session finished",
		"outcome", outcome,
		"successes", result.Successes,
		"requests", result.Requests,
		"missing", result.Missing,
		"exit_code", result.Exit.Code,
		"duration", result.Duration,
	)

	return result, nil
}

// exchange performs the handshake and the request/response sequence.
func (r *run) exchange(
	ctx context.Context,
	options *config.Options,
	obs observer.Observer,
	requests []string,
) error {
	handshakeStart := time.Now()

	gate := handshake.New(r.log, obs, options.Sentinel, options.HandshakeTimeout)
	err := gate.AwaitReady(ctx, r.reader)

	r.result.Preamble = gate.Preamble()

	if err != nil {
		return err
	}

	r.metrics.HandshakeCompleted(time.Since(handshakeStart))

	ch := channel.New(r.log, obs, r.stdin, r.reader, options.SuccessSuffix, options.ResponseTimeout)
	streamDown := false

	for i, request := range requests {
		item := Item{Index: i, Request: request}

		// A closed or failed response stream cannot recover; the remaining
		// requests are recorded as missing without a write.
		if streamDown {
			item.Err = &errors.ReceiveError{Index: i, Err: errors.ErrStreamClosed}
			r.record(item, 0)

			continue
		}

		sentAt := time.Now()

		if err := ch.Send(ctx, request); err != nil {
			return err
		}

		resp, err := ch.Receive(ctx)
		if err != nil {
			if errors.IsFatal(err) {
				return err
			}

			r.log.Warn("Response stream ended before response", "index", i, "error", err)

			streamDown = true
			item.Err = err
			r.record(item, time.Since(sentAt))

			continue
		}

		item.Response = resp.Line
		item.Success = resp.Success
		r.record(item, time.Since(sentAt))
	}

	if err := ch.Close(); err != nil {
		r.log.Debug("Closing request stream failed", "error", err)
	}

	return nil
}

// record appends item to the result and updates the tally.
func (r *run) record(item Item, latency time.Duration) {
	result := metrics.ResultFailure

	switch {
	case item.Missing():
		r.result.Missing++
		result = metrics.ResultMissing
	case item.Success:
		r.result.Successes++
		result = metrics.ResultSuccess
	}

	r.result.Responses = append(r.result.Responses, item)
	r.metrics.ResponseObserved(result, latency)
}

// finish consumes any trailing output, joins the log drain and waits for the
// child. The drain is joined before Wait because Wait closes the pipes.
func (r *run) finish(ctx context.Context) error {
	for {
		line, err := r.reader.ReadLine(ctx, 0)
		if err == nil {
			r.log.Debug("Discarding trailing output", "line", line)

			continue
		}

		if stderrors.Is(err, io.EOF) {
			break
		}

		if ctx.Err() != nil {
			r.abort()

			return ctx.Err()
		}

		r.log.Warn("Reading trailing output failed", "error", err)

		break
	}

	r.reader.Close()

	drainErr := drainFailure(ctx, r.eg.Wait())

	exit, err := r.child.Wait()
	if err != nil {
		return err
	}

	if drainErr != nil {
		return drainErr
	}

	r.result.Exit = exit
	r.result.OutputLines = r.reader.Count()
	r.result.LogLines = r.drain.Lines()
	r.result.StderrTail = r.drain.Tail()

	return nil
}

// drainFailure maps the drain's result to the session error. A drain stopped
// by cancellation reports the cancellation, not a drain failure.
func drainFailure(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}

	if _, ok := stderrors.AsType[*errors.DrainError](err); ok {
		return err
	}

	return &errors.DrainError{Err: err}
}

// abort kills the child and joins everything it owns.
func (r *run) abort() {
	if err := r.child.Kill(); err != nil {
		r.log.Warn("Failed to kill child", "error", err)
	}

	_ = r.stdin.Close()

	r.reader.Close()

	if err := r.eg.Wait(); err != nil {
		r.log.Debug("Log drain failed during abort", "error", err)
	}

	if _, err := r.child.Wait(); err != nil && !stderrors.Is(err, errors.ErrAlreadyWaited) {
		r.log.Debug("Wait after abort failed", "error", err)
	}
}
