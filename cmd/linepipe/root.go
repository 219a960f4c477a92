package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	logLevel  string
	logFormat string
	envFile   string
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "linepipe",
		Short:         "Supervise a child process speaking a line-oriented pipe protocol",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
	}

	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetVersionTemplate("{{printf \"%s\\n\" .Version}}")

	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "warn", "log level: debug, info, warn or error")
	root.PersistentFlags().StringVar(&flags.logFormat, "log-format", "text", "log format: text or json")
	root.PersistentFlags().StringVar(&flags.envFile, "env-file", "", "dotenv file with extra variables for the child")

	root.AddCommand(
		newRunCommand(flags),
		newMCPCommand(flags),
		newVersionCommand(),
	)

	return root
}

// newLogger builds the slog logger backed by charmbracelet/log. Logs always
// go to stderr so stdout stays free for session output and MCP traffic.
func newLogger(w io.Writer, flags *globalFlags) (*slog.Logger, error) {
	level, err := log.ParseLevel(flags.logLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", flags.logLevel, err)
	}

	logger := log.NewWithOptions(w, log.Options{
		Level:           level,
		Prefix:          "linepipe",
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
	})

	switch strings.ToLower(flags.logFormat) {
	case "text":
	case "json":
		logger.SetFormatter(log.JSONFormatter)
	default:
		return nil, fmt.Errorf("invalid --log-format %q: want text or json", flags.logFormat)
	}

	return slog.New(logger), nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), Version)

			return err
		},
	}
}
