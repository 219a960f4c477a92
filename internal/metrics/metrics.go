// Package metrics records session outcomes.
//
// The Recorder interface keeps the session code independent of any metrics
// backend. Prometheus is the production implementation; Nop is the default.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for finished sessions.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeError   = "error"
)

// Response result labels.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultMissing = "missing"
)

// Recorder receives session events.
type Recorder interface {
	// HandshakeCompleted records how long the child took to become ready.
	HandshakeCompleted(d time.Duration)
	// ResponseObserved records one request/response exchange.
	ResponseObserved(result string, d time.Duration)
	// SessionFinished records the outcome of a whole session.
	SessionFinished(outcome string, d time.Duration)
}

// Nop discards all events.
type Nop struct{}

// HandshakeCompleted implements Recorder.
func (Nop) HandshakeCompleted(time.Duration) {}

// ResponseObserved implements Recorder.
func (Nop) ResponseObserved(string, time.Duration) {}

// SessionFinished implements Recorder.
func (Nop) SessionFinished(string, time.Duration) {}

// OrNop returns r, or Nop when r is nil.
func OrNop(r Recorder) Recorder {
	if r == nil {
		return Nop{}
	}

	return r
}

// Prometheus records session events as Prometheus metrics.
type Prometheus struct {
	sessions          *prometheus.CounterVec
	sessionDuration   *prometheus.HistogramVec
	responses         *prometheus.CounterVec
	responseLatency   prometheus.Histogram
	handshakeDuration prometheus.Histogram
}

// Compile-time verification that Prometheus implements Recorder.
var _ Recorder = (*Prometheus)(nil)

// NewPrometheus creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	p := &Prometheus{
		sessions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linepipe_sessions_total",
				Help: "Pipe sessions finished, by outcome",
			},
			[]string{"outcome"},
		),
		sessionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "linepipe_session_duration_seconds",
				Help:    "Wall time from spawn to verdict",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
			},
			[]string{"outcome"},
		),
		responses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linepipe_responses_total",
				Help: "Responses read from children, by result",
			},
			[]string{"result"},
		),
		responseLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "linepipe_response_latency_seconds",
				Help:    "Time from sending a request to reading its response",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
			},
		),
		handshakeDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "linepipe_handshake_duration_seconds",
				Help:    "Time from spawn until the child signalled readiness",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
			},
		),
	}

	if reg != nil {
		reg.MustRegister(
			p.sessions,
			p.sessionDuration,
			p.responses,
			p.responseLatency,
			p.handshakeDuration,
		)
	}

	return p
}

// HandshakeCompleted implements Recorder.
func (p *Prometheus) HandshakeCompleted(d time.Duration) {
	p.handshakeDuration.Observe(d.Seconds())
}

// ResponseObserved implements Recorder.
func (p *Prometheus) ResponseObserved(result string, d time.Duration) {
	p.responses.WithLabelValues(result).Inc()

	if result != ResultMissing {
		p.responseLatency.Observe(d.Seconds())
	}
}

// SessionFinished implements Recorder.
func (p *Prometheus) SessionFinished(outcome string, d time.Duration) {
	p.sessions.WithLabelValues(outcome).Inc()
	p.sessionDuration.WithLabelValues(outcome).Observe(d.Seconds())
}
