package config

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// File is a session description loaded from TOML.
type File struct {
	Executable       string
	SearchPaths      []string
	PipeFlag         string
	DisablePipeFlag  bool
	Args             []string
	Cwd              string
	Env              map[string]string
	Sentinel         string
	SuccessSuffix    string
	HandshakeTimeout time.Duration
	ResponseTimeout  time.Duration
	Requests         []string
}

type fileConfig struct {
	Executable       *string           `toml:"executable"`
	SearchPaths      []string          `toml:"search_paths"`
	PipeFlag         *string           `toml:"pipe_flag"`
	DisablePipeFlag  *bool             `toml:"disable_pipe_flag"`
	Args             []string          `toml:"args"`
	Cwd              *string           `toml:"cwd"`
	Env              map[string]string `toml:"env"`
	EnvFile          *string           `toml:"env_file"`
	Sentinel         *string           `toml:"sentinel"`
	SuccessSuffix    *string           `toml:"success_suffix"`
	HandshakeTimeout *string           `toml:"handshake_timeout"`
	ResponseTimeout  *string           `toml:"response_timeout"`
	Requests         []string          `toml:"requests"`
}

// Load reads a session file. Relative cwd and env_file paths are resolved
// against the file's directory.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}

	f, err := decode(string(data), filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("session file %q: %w", path, err)
	}

	return f, nil
}

// decode parses a session description from TOML text. Relative paths are
// resolved against baseDir. Unknown keys are rejected.
func decode(data string, baseDir string) (*File, error) {
	var decoded fileConfig

	meta, err := toml.Decode(data, &decoded)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown key %q", undecoded[0].String())
	}

	return decoded.resolve(baseDir)
}

func (fc *fileConfig) resolve(baseDir string) (*File, error) {
	f := &File{
		SearchPaths: fc.SearchPaths,
		Args:        fc.Args,
		Requests:    fc.Requests,
		Env:         map[string]string{},
	}

	if fc.Executable != nil {
		f.Executable = *fc.Executable
	}

	if fc.PipeFlag != nil {
		f.PipeFlag = *fc.PipeFlag
	}

	if fc.DisablePipeFlag != nil {
		f.DisablePipeFlag = *fc.DisablePipeFlag
	}

	if fc.Cwd != nil {
		f.Cwd = resolvePath(baseDir, *fc.Cwd)
	}

	if fc.Sentinel != nil {
		f.Sentinel = *fc.Sentinel
	}

	if fc.SuccessSuffix != nil {
		f.SuccessSuffix = *fc.SuccessSuffix
	}

	var err error

	if f.HandshakeTimeout, err = parseDuration("handshake_timeout", fc.HandshakeTimeout); err != nil {
		return nil, err
	}

	if f.ResponseTimeout, err = parseDuration("response_timeout", fc.ResponseTimeout); err != nil {
		return nil, err
	}

	// Variables from env_file sit under the explicit env table.
	if fc.EnvFile != nil && *fc.EnvFile != "" {
		fromFile, err := godotenv.Read(resolvePath(baseDir, *fc.EnvFile))
		if err != nil {
			return nil, fmt.Errorf("read env_file %q: %w", *fc.EnvFile, err)
		}

		maps.Copy(f.Env, fromFile)
	}

	maps.Copy(f.Env, fc.Env)

	return f, nil
}

// Apply copies the file's settings onto opts. Zero values in the file leave
// opts untouched.
func (f *File) Apply(opts *Options) {
	if f.Executable != "" {
		opts.Executable = f.Executable
	}

	if len(f.SearchPaths) > 0 {
		opts.SearchPaths = f.SearchPaths
	}

	if f.PipeFlag != "" {
		opts.PipeFlag = f.PipeFlag
	}

	if f.DisablePipeFlag {
		opts.DisablePipeFlag = true
	}

	if len(f.Args) > 0 {
		opts.Args = f.Args
	}

	if f.Cwd != "" {
		opts.Cwd = f.Cwd
	}

	if len(f.Env) > 0 {
		if opts.Env == nil {
			opts.Env = make(map[string]string, len(f.Env))
		}

		maps.Copy(opts.Env, f.Env)
	}

	if f.Sentinel != "" {
		opts.Sentinel = f.Sentinel
	}

	if f.SuccessSuffix != "" {
		opts.SuccessSuffix = f.SuccessSuffix
	}

	if f.HandshakeTimeout > 0 {
		opts.HandshakeTimeout = f.HandshakeTimeout
	}

	if f.ResponseTimeout > 0 {
		opts.ResponseTimeout = f.ResponseTimeout
	}
}

// LoadEnvFile reads KEY=VALUE pairs from a dotenv file.
func LoadEnvFile(path string) (map[string]string, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("env file %q does not exist", path)
		}

		return nil, fmt.Errorf("stat env file %q: %w", path, err)
	}

	env, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("read env file %q: %w", path, err)
	}

	return env, nil
}

func parseDuration(key string, raw *string) (time.Duration, error) {
	if raw == nil || *raw == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(*raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", key, *raw, err)
	}

	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative, got %s", key, d)
	}

	return d, nil
}

func resolvePath(baseDir, path string) string {
	if path == "" || filepath.IsAbs(path) || baseDir == "" {
		return path
	}

	return filepath.Join(baseDir, path)
}
