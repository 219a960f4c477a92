package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/wagiedev/linepipe-go/internal/errors"
)

// ExecutableEnvVar overrides the child executable when no explicit path is set.
const ExecutableEnvVar = "LINEPIPE_EXECUTABLE"

// Config holds configuration for executable discovery.
type Config struct {
	// Executable is an explicit path or command name that skips the search.
	Executable string

	// SearchPaths are candidate paths checked when Executable is empty.
	SearchPaths []string

	// Logger is an optional logger for discovery operations.
	// If nil, a default no-op logger is used.
	Logger *slog.Logger
}

// Discoverer locates the child executable.
type Discoverer interface {
	// Discover returns the path to launch or an ExecutableNotFoundError.
	Discover(ctx context.Context) (string, error)
}

// discoverer implements the Discoverer interface.
type discoverer struct {
	cfg *Config
	log *slog.Logger
}

// Compile-time verification that discoverer implements Discoverer.
var _ Discoverer = (*discoverer)(nil)

// NewDiscoverer creates a new executable discoverer with the given configuration.
func NewDiscoverer(cfg *Config) Discoverer {
	if cfg == nil {
		cfg = &Config{}
	}

	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 1}))
	}

	return &discoverer{
		cfg: cfg,
		log: log,
	}
}

// Discover locates the child executable.
func (d *discoverer) Discover(ctx context.Context) (string, error) {
	d.log.Debug("Discovering child executable")

	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("discover executable: %w", err)
	}

	if d.cfg.Executable != "" {
		return d.resolve(d.cfg.Executable)
	}

	if fromEnv := os.Getenv(ExecutableEnvVar); fromEnv != "" {
		d.log.Debug("Using executable from environment", "env", ExecutableEnvVar, "path", fromEnv)

		return d.resolve(fromEnv)
	}

	searched := make([]string, 0, len(d.cfg.SearchPaths)+1)
	searched = append(searched, "$"+ExecutableEnvVar)

	for _, candidate := range d.cfg.SearchPaths {
		searched = append(searched, candidate)
		d.log.Debug("Checking search path", "path", candidate)

		if isExecutableFile(candidate) {
			d.log.Debug("Found executable at search path", "path", candidate)

			return candidate, nil
		}
	}

	d.log.Warn("Child executable not found in any searched paths", "searched_paths", searched)

	return "", &errors.ExecutableNotFoundError{SearchedPaths: searched}
}

// resolve checks an explicit path, or looks a bare command name up in PATH.
func (d *discoverer) resolve(name string) (string, error) {
	if !strings.ContainsRune(name, filepath.Separator) && !strings.ContainsRune(name, '/') {
		path, err := exec.LookPath(name)
		if err == nil {
			d.log.Debug("Found executable in PATH", "name", name, "path", path)

			return path, nil
		}

		d.log.Debug("Executable name not found in PATH", "name", name)

		return "", &errors.ExecutableNotFoundError{SearchedPaths: []string{"$PATH/" + name}}
	}

	if isExecutableFile(name) {
		return name, nil
	}

	d.log.Debug("Explicit executable path not found", "path", name)

	return "", &errors.ExecutableNotFoundError{SearchedPaths: []string{name}}
}

func isExecutableFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	return !info.IsDir()
}
