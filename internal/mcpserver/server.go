// Package mcpserver exposes the summarizer as MCP tools over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"scriptsum/internal/apperr"
	"scriptsum/internal/service"
)

// ScriptService is the part of the summarizer the tools call.
type ScriptService interface {
	SubmitScript(ctx context.Context, sessionID, script string) error
	Summarize(ctx context.Context, sessionID string, observe service.Observer) (*service.Summary, error)
}

type tools struct {
	svc ScriptService
	log *slog.Logger
}

// New registers submit_script and summarize_script on a new MCP server.
func New(svc ScriptService, log *slog.Logger, version string) *server.MCPServer {
	t := &tools{svc: svc, log: log}
	s := server.NewMCPServer("scriptsum", version, server.WithToolCapabilities(false))

	s.AddTool(mcp.NewTool("submit_script",
		mcp.WithDescription("Store a TV script for later summarization. Replaces any script already stored for the session."),
		mcp.WithString("script", mcp.Required(), mcp.Description("Full script text")),
		mcp.WithString("session_id", mcp.Description("Session to store the script in; defaults to the shared session")),
	), t.submitScript)

	s.AddTool(mcp.NewTool("summarize_script",
		mcp.WithDescription("Summarize the stored script (or the server's fallback script) and list its actors."),
		mcp.WithString("session_id", mcp.Description("Session whose script to summarize")),
	), t.summarizeScript)

	return s
}

// ServeStdio runs the server on stdin/stdout until the client disconnects.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func (t *tools) submitScript(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	script, err := req.RequireString("script")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := t.svc.SubmitScript(ctx, req.GetString("session_id", ""), script); err != nil {
		return toolError(t.log, err), nil
	}
	return mcp.NewToolResultText("Script received successfully."), nil
}

func (t *tools) summarizeScript(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sum, err := t.svc.Summarize(ctx, req.GetString("session_id", ""), nil)
	if err != nil {
		return toolError(t.log, err), nil
	}
	data, err := json.MarshalIndent(sum, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}

// toolError reports failures inside the result so the calling model sees them.
func toolError(log *slog.Logger, err error) *mcp.CallToolResult {
	ae := apperr.From(err)
	if ae.Status() >= 500 {
		log.Error("tool call failed", "code", ae.Code(), "err", err)
	}
	return mcp.NewToolResultError(ae.Message)
}
