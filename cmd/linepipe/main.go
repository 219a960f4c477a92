// Command linepipe runs pipe-protocol sessions against a child executable.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

// Version is set at build time.
var Version = "dev"

// exitError carries a process exit code without an extra message.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)

	stop()

	os.Exit(exitCode(err, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cmd := newRootCommand(stdout, stderr)
	cmd.SetArgs(args)

	return cmd.ExecuteContext(ctx)
}

func exitCode(err error, stderr io.Writer) int {
	if err == nil {
		return 0
	}

	if exitErr, ok := errors.AsType[*exitError](err); ok {
		return exitErr.code
	}

	fmt.Fprintf(stderr, "error: %v\n", err)

	return 2
}
