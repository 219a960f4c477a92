package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	linepipe "github.com/wagiedev/linepipe-go"
	"github.com/wagiedev/linepipe-go/internal/config"
)

type mcpFlags struct {
	configPath  string
	executable  string
	args        []string
	metricsAddr string
}

func newMCPCommand(global *globalFlags) *cobra.Command {
	flags := &mcpFlags{}

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve sessions as MCP tools over stdio",
		Long: `Serve exposes a run_session tool over the Model Context Protocol on
stdin/stdout. Each tool call runs one session with the configured child.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serveMCP(cmd, global, flags)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.configPath, "config", "c", "", "TOML session file providing defaults")
	f.StringVarP(&flags.executable, "executable", "e", "", "default child executable")
	f.StringArrayVar(&flags.args, "arg", nil, "default extra argument for the child (repeatable)")
	f.StringVar(&flags.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9464")

	return cmd
}

func serveMCP(cmd *cobra.Command, global *globalFlags, flags *mcpFlags) error {
	logger, err := newLogger(cmd.ErrOrStderr(), global)
	if err != nil {
		return err
	}

	opts := []linepipe.Option{linepipe.WithLogger(logger)}

	if flags.configPath != "" {
		file, err := linepipe.LoadSessionFile(flags.configPath)
		if err != nil {
			return err
		}

		opts = append(opts, file.Apply)
	}

	if global.envFile != "" {
		env, err := config.LoadEnvFile(global.envFile)
		if err != nil {
			return err
		}

		opts = append(opts, linepipe.WithEnv(env))
	}

	if flags.executable != "" {
		opts = append(opts, linepipe.WithExecutable(flags.executable))
	}

	if len(flags.args) > 0 {
		opts = append(opts, linepipe.WithArgs(flags.args...))
	}

	ctx := cmd.Context()

	if flags.metricsAddr != "" {
		registry := prometheus.NewRegistry()
		opts = append(opts, linepipe.WithMetrics(linepipe.NewPrometheusMetrics(registry)))

		stop, err := serveMetrics(ctx, logger, flags.metricsAddr, registry)
		if err != nil {
			return err
		}

		defer stop()

		logger.Info("Serving metrics", "addr", flags.metricsAddr)
	}

	server := linepipe.NewMCPServer("linepipe", Version, opts...)

	return server.Run(ctx, &mcp.StdioTransport{})
}

// serveMetrics exposes registry on addr until the returned stop is called.
func serveMetrics(ctx context.Context, logger *slog.Logger, addr string, registry *prometheus.Registry) (func(), error) {
	listener, err := (&net.ListenConfig{}).Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on metrics address %q: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server stopped", "error", err)
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}, nil
}
