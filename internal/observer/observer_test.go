package observer

import (
	"bytes"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriterSink_Prefixes(t *testing.T) {
	var buf bytes.Buffer

	sink := NewWriterSink(&buf)
	sink.ObserveLine(KindPreamble, "warming up")
	sink.ObserveLine(KindLog, "INFO loaded model")
	sink.ObserveLine(KindRequest, "hello")
	sink.ObserveLine(KindResponse, "szia_ok")

	require.Equal(t,
		"Initial stdout from child: warming up\n"+
			"Child STDERR: INFO loaded model\n"+
			"Sent: hello\n"+
			"Received: szia_ok\n",
		buf.String(),
	)
}

func TestWriterSink_KindFilter(t *testing.T) {
	var buf bytes.Buffer

	sink := NewWriterSink(&buf, KindLog).WithPrefixes(map[Kind]string{KindLog: "[child] "})
	sink.ObserveLine(KindRequest, "hidden")
	sink.ObserveLine(KindLog, "shown")

	require.Equal(t, "[child] shown\n", buf.String())
}

// TestWriterSink_ConcurrentWritesAreLineAtomic checks that two writers never
// tear each other's lines.
func TestWriterSink_ConcurrentWritesAreLineAtomic(t *testing.T) {
	var buf bytes.Buffer

	sink := NewWriterSink(&buf).WithPrefixes(map[Kind]string{})

	const perWriter = 200

	var wg sync.WaitGroup

	for _, kind := range []Kind{KindLog, KindResponse} {
		wg.Go(func() {
			for i := range perWriter {
				sink.ObserveLine(kind, kind.String()+"-"+strconv.Itoa(i)+"-"+strings.Repeat("x", 64))
			}
		})
	}

	wg.Wait()

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2*perWriter)

	for _, line := range lines {
		require.True(t, strings.HasPrefix(line, "log-") || strings.HasPrefix(line, "response-"), line)
		require.True(t, strings.HasSuffix(line, strings.Repeat("x", 64)), line)
	}
}

func TestRecorder(t *testing.T) {
	rec := &Recorder{}
	obs := Multi{rec, nil, Func(func(Kind, string) {})}

	obs.ObserveLine(KindPreamble, "a")
	obs.ObserveLine(KindLog, "b")
	obs.ObserveLine(KindPreamble, "c")

	require.Equal(t, []string{"a", "c"}, rec.Texts(KindPreamble))
	require.Equal(t, []Line{
		{Kind: KindPreamble, Text: "a"},
		{Kind: KindLog, Text: "b"},
		{Kind: KindPreamble, Text: "c"},
	}, rec.Lines())
}

func TestOrNop(t *testing.T) {
	require.Equal(t, Nop{}, OrNop(nil))

	rec := &Recorder{}
	require.Same(t, rec, OrNop(rec))
}

func TestKindString(t *testing.T) {
	require.Equal(t, "preamble", KindPreamble.String())
	require.Equal(t, "kind(9)", Kind(9).String())
}
