// Package observer defines the sink that receives every line the supervisor
// sees or sends, so callers can print, capture or discard them.
package observer

import (
	"fmt"
	"io"
	"sync"
)

// Kind identifies which flow a line belongs to.
type Kind int

const (
	// KindPreamble is a stdout line read before the sentinel.
	KindPreamble Kind = iota
	// KindLog is a stderr line forwarded by the log drain.
	KindLog
	// KindRequest is a request line written to the child.
	KindRequest
	// KindResponse is a response line read from the child.
	KindResponse
)

func (k Kind) String() string {
	switch k {
	case KindPreamble:
		return "preamble"
	case KindLog:
		return "log"
	case KindRequest:
		return "request"
	case KindResponse:
		return "response"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Observer receives lines from both the protocol flow and the log drain.
// Implementations must be safe for concurrent use.
type Observer interface {
	ObserveLine(kind Kind, line string)
}

// Func adapts a plain function to Observer.
type Func func(kind Kind, line string)

// ObserveLine implements Observer.
func (f Func) ObserveLine(kind Kind, line string) {
	f(kind, line)
}

// Nop discards every line.
type Nop struct{}

// ObserveLine implements Observer.
func (Nop) ObserveLine(Kind, string) {}

// OrNop returns o, or a Nop observer when o is nil.
func OrNop(o Observer) Observer {
	if o == nil {
		return Nop{}
	}

	return o
}

// DefaultPrefixes mirrors the console layout of a pipe session.
var DefaultPrefixes = map[Kind]string{
	KindPreamble: "Initial stdout from child: ",
	KindLog:      "Child STDERR: ",
	KindRequest:  "Sent: ",
	KindResponse: "Received: ",
}

// WriterSink writes each line to an io.Writer with a per-kind prefix.
//
// Every line is emitted with a single Write call under a mutex, so lines from
// the drain and the protocol flow never interleave mid-line.
type WriterSink struct {
	mu       sync.Mutex
	w        io.Writer
	prefixes map[Kind]string
	kinds    map[Kind]bool
}

// NewWriterSink creates a sink writing to w using DefaultPrefixes.
// When kinds is non-empty only those kinds are written.
func NewWriterSink(w io.Writer, kinds ...Kind) *WriterSink {
	s := &WriterSink{
		w:        w,
		prefixes: DefaultPrefixes,
	}

	if len(kinds) > 0 {
		s.kinds = make(map[Kind]bool, len(kinds))
		for _, k := range kinds {
			s.kinds[k] = true
		}
	}

	return s
}

// WithPrefixes replaces the per-kind prefixes.
func (s *WriterSink) WithPrefixes(prefixes map[Kind]string) *WriterSink {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prefixes = prefixes

	return s
}

// ObserveLine implements Observer.
func (s *WriterSink) ObserveLine(kind Kind, line string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.kinds != nil && !s.kinds[kind] {
		return
	}

	buf := make([]byte, 0, len(s.prefixes[kind])+len(line)+1)
	buf = append(buf, s.prefixes[kind]...)
	buf = append(buf, line...)
	buf = append(buf, '\n')

	_, _ = s.w.Write(buf)
}

// Line is one observed line.
type Line struct {
	Kind Kind
	Text string
}

// Recorder keeps every observed line in memory.
type Recorder struct {
	mu    sync.Mutex
	lines []Line
}

// ObserveLine implements Observer.
func (r *Recorder) ObserveLine(kind Kind, line string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lines = append(r.lines, Line{Kind: kind, Text: line})
}

// Lines returns a copy of all recorded lines in arrival order.
func (r *Recorder) Lines() []Line {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Line, len(r.lines))
	copy(out, r.lines)

	return out
}

// Texts returns the text of the recorded lines of one kind.
func (r *Recorder) Texts(kind Kind) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []string

	for _, l := range r.lines {
		if l.Kind == kind {
			out = append(out, l.Text)
		}
	}

	return out
}

// Multi fans a line out to several observers in order.
type Multi []Observer

// ObserveLine implements Observer.
func (m Multi) ObserveLine(kind Kind, line string) {
	for _, o := range m {
		if o != nil {
			o.ObserveLine(kind, line)
		}
	}
}
