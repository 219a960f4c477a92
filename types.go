package linepipe

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wagiedev/linepipe-go/internal/channel"
	"github.com/wagiedev/linepipe-go/internal/config"
	"github.com/wagiedev/linepipe-go/internal/metrics"
	"github.com/wagiedev/linepipe-go/internal/observer"
	"github.com/wagiedev/linepipe-go/internal/session"
	"github.com/wagiedev/linepipe-go/internal/subprocess"
)

// Re-export types from internal packages

// ===== Options and Configuration =====

// Options configures a supervised session.
type Options = config.Options

// SessionFile is a decoded TOML session file.
type SessionFile = config.File

// LoadSessionFile decodes a TOML session file. Relative paths in the file are
// resolved against its directory.
func LoadSessionFile(path string) (*SessionFile, error) {
	return config.Load(path)
}

// ===== Results =====

// SessionResult is the verdict of a completed session.
type SessionResult = session.Result

// ResponseItem pairs one request with its response.
type ResponseItem = session.Item

// ExitStatus is the child's termination status.
type ExitStatus = subprocess.ExitStatus

// Classify reports whether a response line carries the success suffix.
// An empty suffix means "_ok".
func Classify(line, suffix string) bool {
	return channel.Classify(line, suffix)
}

// ===== Observers =====

// LineKind identifies where an observed line came from.
type LineKind = observer.Kind

const (
	// KindPreamble is a stdout line printed before the readiness sentinel.
	KindPreamble = observer.KindPreamble
	// KindLog is a stderr line.
	KindLog = observer.KindLog
	// KindRequest is a request line written to the child.
	KindRequest = observer.KindRequest
	// KindResponse is a response line read from the child.
	KindResponse = observer.KindResponse
)

// Observer receives lines as they flow through a session.
type Observer = observer.Observer

// ObserverFunc adapts a function to Observer.
type ObserverFunc = observer.Func

// WriterSink writes observed lines to an io.Writer, one line per write.
type WriterSink = observer.WriterSink

// NewWriterSink creates a sink for the given kinds, or all kinds if none are
// given, using the default prefixes.
func NewWriterSink(w io.Writer, kinds ...LineKind) *WriterSink {
	return observer.NewWriterSink(w, kinds...)
}

// ===== Metrics =====

// MetricsRecorder receives session events.
type MetricsRecorder = metrics.Recorder

// PrometheusMetrics records session events as Prometheus metrics.
type PrometheusMetrics = metrics.Prometheus

// NewPrometheusMetrics creates Prometheus collectors registered with reg.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	return metrics.NewPrometheus(reg)
}
