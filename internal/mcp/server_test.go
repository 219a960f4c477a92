package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	mcpgo "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	lperrors "github.com/wagiedev/linepipe-go/internal/errors"
	"github.com/wagiedev/linepipe-go/internal/session"
	"github.com/wagiedev/linepipe-go/internal/subprocess"
)

func resultText(result *mcpgo.CallToolResult) string {
	var text string

	for _, c := range result.Content {
		if tc, ok := c.(*mcpgo.TextContent); ok {
			text += tc.Text
		}
	}

	return text
}

// echoRun answers every request with "<request>_ok" except "bad".
func echoRun(_ context.Context, in RunInput) (*session.Result, error) {
	result := &session.Result{
		ID:       "01TESTSESSION",
		Requests: len(in.Requests),
		Exit:     subprocess.ExitStatus{Code: 0, Success: true},
		Duration: 1500 * time.Millisecond,

		OutputLines: len(in.Requests) + 1,
	}

	for i, req := range in.Requests {
		item := session.Item{Index: i, Request: req, Response: req + "_ok", Success: true}
		if req == "bad" {
			item.Response = req + "_fail"
			item.Success = false
		} else {
			result.Successes++
		}

		result.Responses = append(result.Responses, item)
	}

	return result, nil
}

func TestServer_ListTools(t *testing.T) {
	server := NewServer(&Config{Name: "linepipe", Version: "test", Run: echoRun})

	tools := server.ListTools()
	require.Len(t, tools, 2)
	require.Equal(t, ToolClassifyResponse, tools[0].Name)
	require.Equal(t, ToolRunSession, tools[1].Name)
}

func TestServer_RunSession(t *testing.T) {
	server := NewServer(&Config{Name: "linepipe", Version: "test", Run: echoRun})

	result, err := server.CallTool(context.Background(), ToolRunSession, map[string]any{
		"requests": []string{"x", "bad", "z"},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)

	var report Report
	require.NoError(t, json.Unmarshal([]byte(resultText(result)), &report))

	require.Equal(t, "01TESTSESSION", report.ID)
	require.False(t, report.Success)
	require.Equal(t, 3, report.Requests)
	require.Equal(t, 2, report.Successes)
	require.Equal(t, int64(1500), report.DurationMS)
	require.Equal(t, 4, report.OutputLines)
	require.Equal(t, "session failed: 2 of 3 responses succeeded", report.Summary)
	require.Len(t, report.Responses, 3)
	require.Equal(t, "bad_fail", report.Responses[1].Response)
}

func TestServer_RunSessionPassesOverrides(t *testing.T) {
	var got RunInput

	server := NewServer(&Config{
		Run: func(ctx context.Context, in RunInput) (*session.Result, error) {
			got = in

			return echoRun(ctx, in)
		},
	})

	_, err := server.CallTool(context.Background(), ToolRunSession, map[string]any{
		"requests":   []string{"x"},
		"executable": "/opt/translator/bin/translate",
		"args":       []string{"--lang", "fr"},
	})
	require.NoError(t, err)

	require.Equal(t, RunInput{
		Requests:   []string{"x"},
		Executable: "/opt/translator/bin/translate",
		Args:       []string{"--lang", "fr"},
	}, got)
}

func TestServer_RunSessionErrors(t *testing.T) {
	failing := NewServer(&Config{
		Run: func(context.Context, RunInput) (*session.Result, error) {
			return nil, &lperrors.HandshakeError{Reason: lperrors.ReasonStreamClosed, Err: lperrors.ErrStreamClosed}
		},
	})

	testCases := []struct {
		name    string
		server  *Server
		input   map[string]any
		message string
	}{
		{
			name:    "no requests",
			server:  failing,
			input:   map[string]any{},
			message: lperrors.ErrNoRequests.Error(),
		},
		{
			name:    "bad arguments",
			server:  failing,
			input:   map[string]any{"requests": "not-a-list"},
			message: "failed to unmarshal arguments",
		},
		{
			name:    "session error",
			server:  failing,
			input:   map[string]any{"requests": []string{"x"}},
			message: "handshake failed",
		},
		{
			name:    "no runner",
			server:  NewServer(&Config{}),
			input:   map[string]any{"requests": []string{"x"}},
			message: "no session runner configured",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := tc.server.CallTool(context.Background(), ToolRunSession, tc.input)
			require.NoError(t, err)
			require.True(t, result.IsError)
			require.Contains(t, resultText(result), tc.message)
		})
	}
}

func TestServer_Classify(t *testing.T) {
	server := NewServer(&Config{})

	result, err := server.CallTool(context.Background(), ToolClassifyResponse, map[string]any{"line": "bonjour_ok"})
	require.NoError(t, err)
	require.Equal(t, "success", resultText(result))

	result, err = server.CallTool(context.Background(), ToolClassifyResponse, map[string]any{"line": "bonjour_err"})
	require.NoError(t, err)
	require.Equal(t, "failure", resultText(result))

	result, err = server.CallTool(context.Background(), ToolClassifyResponse, map[string]any{"line": 7})
	require.NoError(t, err)
	require.True(t, result.IsError)

	custom := NewServer(&Config{SuccessSuffix: "<done>"})

	result, err = custom.CallTool(context.Background(), ToolClassifyResponse, map[string]any{"line": "x<done>"})
	require.NoError(t, err)
	require.Equal(t, "success", resultText(result))
}

func TestServer_CallToolUnknownAndHandlerError(t *testing.T) {
	server := NewServer(&Config{})
	server.AddTool(
		NewTool("fails", "always fails", SimpleSchema(nil)),
		func(context.Context, *mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
			return nil, errors.New("boom")
		},
	)

	result, err := server.CallTool(context.Background(), "unknown", nil)
	require.NoError(t, err)
	require.True(t, result.IsError)
	require.Equal(t, "Tool not found: unknown", resultText(result))

	result, err = server.CallTool(context.Background(), "fails", nil)
	require.NoError(t, err)
	require.True(t, result.IsError)
	require.Equal(t, "Tool execution failed: boom", resultText(result))
}

func TestServer_OverTransport(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	server := NewServer(&Config{Name: "linepipe", Version: "test", Run: echoRun})

	serverTransport, clientTransport := mcpgo.NewInMemoryTransports()

	ss, err := server.Connect(ctx, serverTransport)
	require.NoError(t, err)

	defer ss.Close()

	client := mcpgo.NewClient(&mcpgo.Implementation{Name: "test-client", Version: "test"}, nil)

	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)

	defer cs.Close()

	tools, err := cs.ListTools(ctx, &mcpgo.ListToolsParams{})
	require.NoError(t, err)
	require.Len(t, tools.Tools, 2)

	result, err := cs.CallTool(ctx, &mcpgo.CallToolParams{
		Name:      ToolRunSession,
		Arguments: map[string]any{"requests": []string{"a", "b"}},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)

	var report Report
	require.NoError(t, json.Unmarshal([]byte(resultText(result)), &report))
	require.True(t, report.Success)
	require.Equal(t, 2, report.Successes)
}
