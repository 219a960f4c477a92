package lineio

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	lperrors "github.com/wagiedev/linepipe-go/internal/errors"
)

func TestReader_DeliversLinesInOrder(t *testing.T) {
	reader := NewReader(slog.Default(), strings.NewReader("one\r\n\n  two  \nthree"))
	defer reader.Close()

	ctx := context.Background()

	var got []string

	for {
		line, err := reader.ReadLine(ctx, 0)
		if errors.Is(err, io.EOF) {
			break
		}

		require.NoError(t, err)

		got = append(got, line)
	}

	require.Equal(t, []string{"one", "", "two", "three"}, got)
	require.Equal(t, 4, reader.Count())
}

func TestReader_TimeoutKeepsLineForNextRead(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	reader := NewReader(slog.Default(), pr)
	defer reader.Close()

	ctx := context.Background()

	_, err := reader.ReadLine(ctx, 20*time.Millisecond)
	require.ErrorIs(t, err, lperrors.ErrTimeout)

	go func() {
		_, _ = pw.Write([]byte("late\n"))
	}()

	line, err := reader.ReadLine(ctx, time.Second)
	require.NoError(t, err)
	require.Equal(t, "late", line)
}

func TestReader_ContextCancellation(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	reader := NewReader(slog.Default(), pr)
	defer reader.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := reader.ReadLine(ctx, 0)
	require.ErrorIs(t, err, context.Canceled)
}

func TestReader_ClosedPipeIsEndOfStream(t *testing.T) {
	pr, pw := io.Pipe()

	reader := NewReader(slog.Default(), pr)
	defer reader.Close()

	require.NoError(t, pr.Close())

	_, err := reader.ReadLine(context.Background(), time.Second)
	require.ErrorIs(t, err, io.EOF)

	_ = pw.Close()
}

func TestReader_ReadErrorIsReported(t *testing.T) {
	pr, pw := io.Pipe()

	reader := NewReader(slog.Default(), pr)
	defer reader.Close()

	root := errors.New("device gone")
	require.NoError(t, pw.CloseWithError(root))

	_, err := reader.ReadLine(context.Background(), time.Second)
	require.ErrorIs(t, err, root)
}

func TestReader_CloseStopsPump(t *testing.T) {
	reader := NewReader(slog.Default(), strings.NewReader("a\nb\nc\n"))

	reader.Close()
	reader.Close()

	select {
	case <-reader.done:
	case <-time.After(time.Second):
		t.Fatal("pump goroutine did not exit after Close")
	}
}

func TestReader_LongLines(t *testing.T) {
	long := strings.Repeat("x", 3*1024*1024) + "_ok"

	reader := NewReader(slog.Default(), strings.NewReader(long+"\n"+long))
	defer reader.Close()

	ctx := context.Background()

	for range 2 {
		line, err := reader.ReadLine(ctx, 5*time.Second)
		require.NoError(t, err)
		require.Equal(t, long, line)
	}

	_, err := reader.ReadLine(ctx, time.Second)
	require.ErrorIs(t, err, io.EOF)
	require.Equal(t, 2, reader.Count())
}
