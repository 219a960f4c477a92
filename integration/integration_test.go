//go:build integration

package integration

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	linepipe "github.com/wagiedev/linepipe-go"
)

// skipIfChildNotInstalled skips the test if the error indicates the child
// executable was not found.
func skipIfChildNotInstalled(t *testing.T, err error) {
	t.Helper()

	if _, ok := errors.AsType[*linepipe.ExecutableNotFoundError](err); ok {
		t.Skip("child executable not installed; set LINEPIPE_EXECUTABLE")
	}
}

// writeScript writes an executable shell script child into a temp dir.
func writeScript(t *testing.T, body string) string {
	t.Helper()

	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("/bin/sh not available")
	}

	path := filepath.Join(t.TempDir(), "child.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o700))

	return path
}
