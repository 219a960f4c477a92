package linepipe

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wagiedev/linepipe-go/internal/observer"
)

func TestApplyOptions(t *testing.T) {
	rec := &observer.Recorder{}
	logger := slog.Default()

	options := applyOptions(nil, []Option{
		WithLogger(logger),
		WithExecutable("translate"),
		WithSearchPaths("/opt/a", "/opt/b"),
		WithArgs("--lang", "fr"),
		WithPipeFlag("--stdio"),
		WithEnv(map[string]string{"A": "1"}),
		WithEnv(map[string]string{"B": "2"}),
		WithCwd("/tmp"),
		WithSentinel("GO"),
		WithSuccessSuffix("<ok>"),
		WithHandshakeTimeout(5 * time.Second),
		WithResponseTimeout(time.Second),
		WithObserver(rec),
		WithMetrics(NewPrometheusMetrics(nil)),
	})

	require.Same(t, logger, options.Logger)
	require.Equal(t, "translate", options.Executable)
	require.Equal(t, []string{"/opt/a", "/opt/b"}, options.SearchPaths)
	require.Equal(t, []string{"--lang", "fr"}, options.Args)
	require.Equal(t, "--stdio", options.EffectivePipeFlag())
	require.Equal(t, map[string]string{"A": "1", "B": "2"}, options.Env)
	require.Equal(t, "/tmp", options.Cwd)
	require.Equal(t, "GO", options.Sentinel)
	require.Equal(t, "<ok>", options.SuccessSuffix)
	require.Equal(t, 5*time.Second, options.HandshakeTimeout)
	require.Equal(t, time.Second, options.ResponseTimeout)
	require.Same(t, rec, options.Observer)
	require.NotNil(t, options.Metrics)
}

func TestWithoutPipeFlag(t *testing.T) {
	options := applyOptions(nil, []Option{WithPipeFlag("--stdio"), WithoutPipeFlag()})
	require.Empty(t, options.EffectivePipeFlag())
}

func TestApplyOptions_OverridesBase(t *testing.T) {
	base := &Options{Executable: "from-file", Sentinel: "READY"}

	options := applyOptions(base, []Option{WithExecutable("from-option")})
	require.Same(t, base, options)
	require.Equal(t, "from-option", options.Executable)
	require.Equal(t, "READY", options.Sentinel)
}
