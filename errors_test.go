package linepipe

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReexportedErrors(t *testing.T) {
	var err error = &SpawnError{Path: "/bin/translate", Err: &ExecutableNotFoundError{SearchedPaths: []string{"/bin/translate"}}}

	var lpErr LinePipeError
	require.ErrorAs(t, err, &lpErr)

	_, ok := errors.AsType[*ExecutableNotFoundError](err)
	require.True(t, ok)
	require.True(t, IsFatal(err))
}

func TestIsFatal_MissingResponse(t *testing.T) {
	missing := &ReceiveError{Index: 2, Err: ErrStreamClosed}
	require.False(t, IsFatal(missing))

	timedOut := &ReceiveError{Index: 2, Err: fmt.Errorf("no line within 1s: %w", ErrTimeout)}
	require.True(t, IsFatal(timedOut))
	require.ErrorIs(t, timedOut, ErrTimeout)

	require.False(t, IsFatal(nil))
}

func TestHandshakeError_Reason(t *testing.T) {
	err := &HandshakeError{Reason: ReasonTimeout, Preamble: 3, Err: ErrTimeout}
	require.ErrorIs(t, err, ErrTimeout)
	require.Contains(t, err.Error(), "timeout after 3 preamble lines")
}
