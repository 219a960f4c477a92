package main

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	linepipe "github.com/wagiedev/linepipe-go"
	"github.com/wagiedev/linepipe-go/internal/config"
)

type runFlags struct {
	configPath       string
	executable       string
	args             []string
	pipeFlag         string
	noPipeFlag       bool
	cwd              string
	sentinel         string
	successSuffix    string
	handshakeTimeout time.Duration
	responseTimeout  time.Duration
	quiet            bool
	metricsFile      string
}

func newRunCommand(global *globalFlags) *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run [flags] [request...]",
		Short: "Run one session and report the verdict",
		Long: `Run spawns the child in pipe mode, waits for its readiness line, sends each
request as one line, reads one response line per request and reports whether
every response succeeded and the child exited cleanly.

Requests given as arguments replace the requests listed in --config.`,
		RunE: func(cmd *cobra.Command, requests []string) error {
			return runSession(cmd, global, flags, requests)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.configPath, "config", "c", "", "TOML session file")
	f.StringVarP(&flags.executable, "executable", "e", "", "child executable path or name")
	f.StringArrayVar(&flags.args, "arg", nil, "extra argument for the child (repeatable)")
	f.StringVar(&flags.pipeFlag, "pipe-flag", config.DefaultPipeFlag, "argument that enables pipe mode")
	f.BoolVar(&flags.noPipeFlag, "no-pipe-flag", false, "start the child without a pipe-mode argument")
	f.StringVar(&flags.cwd, "cwd", "", "working directory for the child")
	f.StringVar(&flags.sentinel, "sentinel", "READY", "readiness line printed by the child")
	f.StringVar(&flags.successSuffix, "success-suffix", "_ok", "suffix marking a successful response")
	f.DurationVar(&flags.handshakeTimeout, "handshake-timeout", 0, "bound on the whole handshake (0 waits forever)")
	f.DurationVar(&flags.responseTimeout, "response-timeout", 0, "bound on each response (0 waits forever)")
	f.BoolVarP(&flags.quiet, "quiet", "q", false, "print only the verdict")
	f.StringVar(&flags.metricsFile, "metrics-file", "", "write Prometheus metrics in text format to this file")

	return cmd
}

func runSession(cmd *cobra.Command, global *globalFlags, flags *runFlags, requests []string) error {
	logger, err := newLogger(cmd.ErrOrStderr(), global)
	if err != nil {
		return err
	}

	opts := []linepipe.Option{
		linepipe.WithLogger(logger),
	}

	// File settings come first so flags override them.
	if flags.configPath != "" {
		file, err := linepipe.LoadSessionFile(flags.configPath)
		if err != nil {
			return err
		}

		opts = append(opts, file.Apply)

		if len(requests) == 0 {
			requests = file.Requests
		}
	}

	if len(requests) == 0 {
		return linepipe.ErrNoRequests
	}

	if !flags.quiet {
		opts = append(opts, linepipe.WithObserver(linepipe.NewWriterSink(cmd.OutOrStdout())))
	}

	if global.envFile != "" {
		env, err := config.LoadEnvFile(global.envFile)
		if err != nil {
			return err
		}

		opts = append(opts, linepipe.WithEnv(env))
	}

	changed := cmd.Flags().Changed

	if changed("executable") {
		opts = append(opts, linepipe.WithExecutable(flags.executable))
	}

	if changed("arg") {
		opts = append(opts, linepipe.WithArgs(flags.args...))
	}

	if changed("pipe-flag") {
		opts = append(opts, linepipe.WithPipeFlag(flags.pipeFlag))
	}

	if flags.noPipeFlag {
		opts = append(opts, linepipe.WithoutPipeFlag())
	}

	if changed("cwd") {
		opts = append(opts, linepipe.WithCwd(flags.cwd))
	}

	if changed("sentinel") {
		opts = append(opts, linepipe.WithSentinel(flags.sentinel))
	}

	if changed("success-suffix") {
		opts = append(opts, linepipe.WithSuccessSuffix(flags.successSuffix))
	}

	if changed("handshake-timeout") {
		opts = append(opts, linepipe.WithHandshakeTimeout(flags.handshakeTimeout))
	}

	if changed("response-timeout") {
		opts = append(opts, linepipe.WithResponseTimeout(flags.responseTimeout))
	}

	var registry *prometheus.Registry

	if flags.metricsFile != "" {
		registry = prometheus.NewRegistry()
		opts = append(opts, linepipe.WithMetrics(linepipe.NewPrometheusMetrics(registry)))
	}

	result, runErr := linepipe.Run(cmd.Context(), requests, opts...)

	if registry != nil {
		if err := prometheus.WriteToTextfile(flags.metricsFile, registry); err != nil {
			logger.Warn("Failed to write metrics file", "path", flags.metricsFile, "error", err)
		}
	}

	if runErr != nil {
		return fmt.Errorf("session aborted: %w", runErr)
	}

	if _, err := fmt.Fprintln(cmd.OutOrStdout(), result.Summary()); err != nil {
		return err
	}

	if !result.Success() {
		return &exitError{code: 1}
	}

	return nil
}
