package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/wagiedev/linepipe-go/internal/subprocess"
)

// Item pairs the i-th request with the i-th response.
type Item struct {
	Index    int
	Request  string
	Response string
	Success  bool
	// Err is set when no response line arrived for this request.
	Err error
}

// Missing reports whether no response was read for this item.
func (i Item) Missing() bool {
	return i.Err != nil
}

// Result is the verdict of a completed session.
type Result struct {
	ID         string
	Executable string
	Requests   int
	Successes  int
	Missing    int
	Responses  []Item
	Exit       subprocess.ExitStatus
	StartedAt  time.Time
	Duration   time.Duration
	Preamble   int
	LogLines   int
	StderrTail string

	// OutputLines counts every stdout line read, from the preamble through
	// trailing output after the last response.
	OutputLines int
}

// Success reports whether the child exited successfully and every response
// carried the success marker.
func (r *Result) Success() bool {
	return r.Exit.Success && r.Successes == r.Requests
}

// Summary returns a one-line user-facing statement of the verdict.
func (r *Result) Summary() string {
	if r.Success() {
		return fmt.Sprintf("all %d requests succeeded", r.Requests)
	}

	var reasons []string

	if !r.Exit.Success {
		reasons = append(reasons, "child exited with "+r.Exit.String())
	}

	if r.Successes != r.Requests {
		tally := fmt.Sprintf("%d of %d responses succeeded", r.Successes, r.Requests)
		if r.Missing > 0 {
			tally += fmt.Sprintf(" (%d missing)", r.Missing)
		}

		reasons = append(reasons, tally)
	}

	return "session failed: " + strings.Join(reasons, "; ")
}
