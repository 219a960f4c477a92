//go:build integration

package integration

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	linepipe "github.com/wagiedev/linepipe-go"
)

const echoChild = `
[ "$1" = "--pipe" ] || { echo "pipe mode required" >&2; exit 64; }
echo "translator v1 starting"
echo "loading dictionaries" >&2
echo READY
while IFS= read -r line; do
	echo "translating: $line" >&2
	case "$line" in
		*fail*) echo "${line}_fail" ;;
		*) echo "${line}_ok" ;;
	esac
done
exit ${EXIT_CODE:-0}
`

func TestScriptChild_Scenarios(t *testing.T) {
	script := writeScript(t, echoChild)

	testCases := []struct {
		name      string
		requests  []string
		env       map[string]string
		success   bool
		successes int
	}{
		{name: "all succeed", requests: []string{"x", "y", "z"}, success: true, successes: 3},
		{name: "one failure marker", requests: []string{"x", "y fail", "z"}, successes: 2},
		{name: "non-zero exit", requests: []string{"x", "y", "z"}, env: map[string]string{"EXIT_CODE": "3"}, successes: 3},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			var responses []string

			result, err := linepipe.Run(ctx, tc.requests,
				linepipe.WithExecutable(script),
				linepipe.WithEnv(tc.env),
				linepipe.WithObserver(linepipe.ObserverFunc(func(kind linepipe.LineKind, line string) {
					if kind == linepipe.KindResponse {
						responses = append(responses, line)
					}
				})),
				linepipe.WithHandshakeTimeout(10*time.Second),
				linepipe.WithResponseTimeout(10*time.Second),
			)
			require.NoError(t, err)
			require.Equal(t, tc.success, result.Success())
			require.Equal(t, tc.successes, result.Successes)
			require.Equal(t, 1, result.Preamble)
			require.Equal(t, 1+len(tc.requests), result.LogLines)
			require.Len(t, responses, len(tc.requests))
		})
	}
}

func TestScriptChild_NeverReady(t *testing.T) {
	script := writeScript(t, "echo booting\nexit 0\n")

	_, err := linepipe.Run(context.Background(), []string{"x"}, linepipe.WithExecutable(script))
	require.Error(t, err)

	hsErr, ok := errors.AsType[*linepipe.HandshakeError](err)
	require.True(t, ok)
	require.Equal(t, linepipe.ReasonStreamClosed, hsErr.Reason)
	require.Equal(t, 1, hsErr.Preamble)
}

func TestScriptChild_FoundThroughSearchPaths(t *testing.T) {
	t.Setenv("LINEPIPE_EXECUTABLE", "")

	script := writeScript(t, "echo READY\nwhile IFS= read -r line; do echo \"${line}_ok\"; done\n")

	result, err := linepipe.Run(context.Background(), []string{"a"},
		linepipe.WithSearchPaths(filepath.Join(t.TempDir(), "missing"), script),
	)
	require.NoError(t, err)
	require.True(t, result.Success())
}

func TestScriptChild_KilledOnCancel(t *testing.T) {
	script := writeScript(t, "echo READY\nexec sleep 3600\n")

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	start := time.Now()

	_, err := linepipe.Run(ctx, []string{"x"}, linepipe.WithExecutable(script))
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Less(t, time.Since(start), 10*time.Second)
}

// TestExternalChild runs against the executable named by LINEPIPE_EXECUTABLE.
func TestExternalChild(t *testing.T) {
	if os.Getenv("LINEPIPE_EXECUTABLE") == "" {
		t.Skip("LINEPIPE_EXECUTABLE not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	requests := []string{"This is what I type", "and this too"}

	result, err := linepipe.Run(ctx, requests, linepipe.WithHandshakeTimeout(30*time.Second))
	if err != nil {
		skipIfChildNotInstalled(t, err)
		t.Fatalf("Run failed: %v", err)
	}

	require.Len(t, result.Responses, len(requests))

	for i, item := range result.Responses {
		require.Equal(t, i, item.Index)
		require.Equal(t, requests[i], item.Request)
	}

	t.Logf("verdict: %s", result.Summary())
}
