package linepipe

import (
	"context"

	internalmcp "github.com/wagiedev/linepipe-go/internal/mcp"
	"github.com/wagiedev/linepipe-go/internal/session"
)

// MCPServer exposes sessions as Model Context Protocol tools.
type MCPServer = internalmcp.Server

// MCPRunInput is the argument object of the run_session tool.
type MCPRunInput = internalmcp.RunInput

// SessionReport is the JSON verdict returned by the run_session tool.
type SessionReport = internalmcp.Report

// NewSessionReport converts a result into its JSON report form.
func NewSessionReport(result *SessionResult) SessionReport {
	return internalmcp.NewReport(result)
}

// NewMCPServer creates an MCP server whose run_session tool runs sessions
// with the given options. A tool call may override the executable and args.
//
// Serve it over stdio with:
//
//	server := linepipe.NewMCPServer("linepipe", version, opts...)
//	err := server.Run(ctx, &mcp.StdioTransport{})
func NewMCPServer(name, version string, opts ...Option) *MCPServer {
	base := applyOptions(nil, opts)

	return internalmcp.NewServer(&internalmcp.Config{
		Name:          name,
		Version:       version,
		SuccessSuffix: base.SuccessSuffix,
		Logger:        base.Logger,
		Run: func(ctx context.Context, in MCPRunInput) (*SessionResult, error) {
			options := applyOptions(nil, opts)

			if in.Executable != "" {
				options.Executable = in.Executable
			}

			if len(in.Args) > 0 {
				options.Args = in.Args
			}

			return session.New(options).Run(ctx, in.Requests)
		},
	})
}
