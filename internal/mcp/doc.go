// Package mcp exposes supervised sessions as Model Context Protocol tools.
//
// The server registers a run_session tool that runs one session against the
// configured child and returns its verdict as JSON, and a classify_response
// tool that applies the success-marker rule to a single line. Tools are kept
// in a local registry so they can be invoked directly as well as over an MCP
// transport such as stdio.
package mcp
