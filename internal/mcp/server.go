package mcp

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagiedev/linepipe-go/internal/channel"
	"github.com/wagiedev/linepipe-go/internal/errors"
	"github.com/wagiedev/linepipe-go/internal/session"
)

// Tool names.
const (
	ToolRunSession       = "run_session"
	ToolClassifyResponse = "classify_response"
)

// RunInput is the argument object of the run_session tool.
type RunInput struct {
	Requests   []string `json:"requests"`
	Executable string   `json:"executable,omitempty"`
	Args       []string `json:"args,omitempty"`
}

// RunFunc runs one session for a tool call.
type RunFunc func(ctx context.Context, in RunInput) (*session.Result, error)

// Config configures a Server.
type Config struct {
	Name    string
	Version string

	// SuccessSuffix is used by classify_response. Empty means "_ok".
	SuccessSuffix string

	// Run executes sessions for run_session.
	Run RunFunc

	Logger *slog.Logger
}

// Server holds the tool registry and serves it over MCP transports.
type Server struct {
	log     *slog.Logger
	name    string
	version string
	suffix  string
	run     RunFunc

	mu    sync.RWMutex
	tools map[string]*registeredTool
}

type registeredTool struct {
	tool    *mcp.Tool
	handler mcp.ToolHandler
}

// NewServer creates a server with the run_session and classify_response
// tools registered.
func NewServer(cfg *Config) *Server {
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	s := &Server{
		log:     log.With("component", "mcp_server"),
		name:    cfg.Name,
		version: cfg.Version,
		suffix:  cfg.SuccessSuffix,
		run:     cfg.Run,
		tools:   make(map[string]*registeredTool, 2),
	}

	if s.suffix == "" {
		s.suffix = channel.DefaultSuccessSuffix
	}

	s.AddTool(NewTool(
		ToolRunSession,
		"Run the configured child in pipe mode, send each request line in order and report the verdict.",
		runSessionSchema(),
	), s.handleRunSession)

	s.AddTool(NewTool(
		ToolClassifyResponse,
		"Report whether a response line carries the success marker.",
		SimpleSchema(map[string]string{"line": "string"}),
	), s.handleClassify)

	return s
}

func runSessionSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"requests":   goTypeToJSONSchema("[]string"),
			"executable": goTypeToJSONSchema("string"),
			"args":       goTypeToJSONSchema("[]string"),
		},
		Required: []string{"requests"},
	}
}

// AddTool registers a tool.
func (s *Server) AddTool(tool *mcp.Tool, handler mcp.ToolHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tools[tool.Name] = &registeredTool{tool: tool, handler: handler}
}

// ListTools returns all registered tools ordered by name.
func (s *Server) ListTools() []*mcp.Tool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tools := make([]*mcp.Tool, 0, len(s.tools))
	for _, t := range s.tools {
		tools = append(tools, t.tool)
	}

	slices.SortFunc(tools, func(a, b *mcp.Tool) int {
		return cmp.Compare(a.Name, b.Name)
	})

	return tools
}

// CallTool invokes a tool directly. Unknown tools and handler failures are
// reported as error results, not Go errors.
func (s *Server) CallTool(ctx context.Context, name string, input map[string]any) (*mcp.CallToolResult, error) {
	s.mu.RLock()
	t, exists := s.tools[name]
	s.mu.RUnlock()

	if !exists {
		return ErrorResult("Tool not found: " + name), nil
	}

	inputBytes, err := json.Marshal(input)
	if err != nil {
		//nolint:nilerr // the error is encoded in the result
		return ErrorResult("Failed to marshal input: " + err.Error()), nil
	}

	req := &mcp.CallToolRequest{
		Params: &mcp.CallToolParamsRaw{
			Name:      name,
			Arguments: inputBytes,
		},
	}

	result, err := t.handler(ctx, req)
	if err != nil {
		//nolint:nilerr // the error is encoded in the result
		return ErrorResult("Tool execution failed: " + err.Error()), nil
	}

	return result, nil
}

// Connect serves the registered tools on a single transport connection.
func (s *Server) Connect(ctx context.Context, transport mcp.Transport) (*mcp.ServerSession, error) {
	ss, err := s.sdkServer().Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("connect mcp server: %w", err)
	}

	return ss, nil
}

// Run serves the registered tools on transport until the client disconnects
// or ctx is cancelled.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	s.log.Info("Serving MCP tools", "name", s.name, "version", s.version)

	if err := s.sdkServer().Run(ctx, transport); err != nil {
		return fmt.Errorf("run mcp server: %w", err)
	}

	return nil
}

func (s *Server) sdkServer() *mcp.Server {
	srv := mcp.NewServer(&mcp.Implementation{Name: s.name, Version: s.version}, nil)

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.tools {
		srv.AddTool(t.tool, t.handler)
	}

	return srv
}

func (s *Server) handleRunSession(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var in RunInput
	if err := DecodeArguments(req, &in); err != nil {
		return ErrorResult(err.Error()), nil
	}

	if len(in.Requests) == 0 {
		return ErrorResult(errors.ErrNoRequests.Error()), nil
	}

	if s.run == nil {
		return ErrorResult("no session runner configured"), nil
	}

	s.log.Debug("Running session for tool call", "requests", len(in.Requests))

	result, err := s.run(ctx, in)
	if err != nil {
		s.log.Warn("Session failed", "error", err)

		return ErrorResult(err.Error()), nil
	}

	data, err := json.Marshal(NewReport(result))
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}

	return TextResult(string(data)), nil
}

func (s *Server) handleClassify(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := ParseArguments(req)
	if err != nil {
		return ErrorResult(err.Error()), nil
	}

	line, ok := args["line"].(string)
	if !ok {
		return ErrorResult("line must be a string"), nil
	}

	if channel.Classify(line, s.suffix) {
		return TextResult("success"), nil
	}

	return TextResult("failure"), nil
}
