package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestPrometheus_RecordsSessionEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg)

	p.HandshakeCompleted(150 * time.Millisecond)
	p.ResponseObserved(ResultSuccess, 10*time.Millisecond)
	p.ResponseObserved(ResultSuccess, 12*time.Millisecond)
	p.ResponseObserved(ResultFailure, 8*time.Millisecond)
	p.ResponseObserved(ResultMissing, 0)
	p.SessionFinished(OutcomeFailure, 2*time.Second)

	require.InDelta(t, 2, testutil.ToFloat64(p.responses.WithLabelValues(ResultSuccess)), 0)
	require.InDelta(t, 1, testutil.ToFloat64(p.responses.WithLabelValues(ResultFailure)), 0)
	require.InDelta(t, 1, testutil.ToFloat64(p.responses.WithLabelValues(ResultMissing)), 0)
	require.InDelta(t, 1, testutil.ToFloat64(p.sessions.WithLabelValues(OutcomeFailure)), 0)

	expected := `
# HELP linepipe_sessions_total Pipe sessions finished, by outcome
# TYPE linepipe_sessions_total counter
linepipe_sessions_total{outcome="failure"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "linepipe_sessions_total"))

	count, err := testutil.GatherAndCount(reg, "linepipe_response_latency_seconds")
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestNewPrometheus_NilRegisterer(t *testing.T) {
	p := NewPrometheus(nil)

	require.NotPanics(t, func() {
		p.SessionFinished(OutcomeSuccess, time.Second)
	})
}

func TestOrNop(t *testing.T) {
	require.Equal(t, Nop{}, OrNop(nil))

	p := NewPrometheus(nil)
	require.Same(t, p, OrNop(p))
}
