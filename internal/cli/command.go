package cli

import (
	"fmt"
	"os"
	"slices"

	"github.com/wagiedev/linepipe-go/internal/config"
)

// SessionEnvVar is set in the child's environment to the session ID.
const SessionEnvVar = "LINEPIPE_SESSION_ID"

// BuildArgs constructs the child's arguments: the pipe-mode flag first,
// then any extra arguments in order.
func BuildArgs(options *config.Options) []string {
	args := make([]string, 0, len(options.Args)+1)

	if flag := options.EffectivePipeFlag(); flag != "" {
		args = append(args, flag)
	}

	return append(args, options.Args...)
}

// BuildEnvironment constructs the environment for the child process.
// User-provided variables come last so they override inherited ones.
func BuildEnvironment(options *config.Options, sessionID string) []string {
	env := os.Environ()

	if sessionID != "" {
		env = append(env, SessionEnvVar+"="+sessionID)
	}

	keys := make([]string, 0, len(options.Env))
	for key := range options.Env {
		keys = append(keys, key)
	}

	slices.Sort(keys)

	for _, key := range keys {
		env = append(env, fmt.Sprintf("%s=%s", key, options.Env[key]))
	}

	return env
}
