package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"scriptsum/internal/apperr"
	"scriptsum/internal/logging"
	"scriptsum/internal/service"
)

type fakeService struct {
	scripts map[string]string
	err     error
}

func (f *fakeService) SubmitScript(ctx context.Context, sessionID, script string) error {
	f.scripts[sessionID] = script
	return nil
}

func (f *fakeService) Summarize(ctx context.Context, sessionID string, observe service.Observer) (*service.Summary, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.scripts[sessionID] == "" {
		return nil, service.ErrNoScript
	}
	return &service.Summary{Summary: "about " + f.scripts[sessionID], ActorList: service.FormatActorList(service.ExtractActorNames(""))}, nil
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) != 1 {
		t.Fatalf("content = %v", res.Content)
	}
	switch c := res.Content[0].(type) {
	case mcp.TextContent:
		return c.Text
	case *mcp.TextContent:
		return c.Text
	}
	t.Fatalf("unexpected content %T", res.Content[0])
	return ""
}

func TestSubmitThenSummarize(t *testing.T) {
	svc := &fakeService{scripts: map[string]string{}}
	tl := &tools{svc: svc, log: logging.Discard()}
	ctx := context.Background()

	res, err := tl.submitScript(ctx, call(map[string]any{"script": "JERRY: Hi.", "session_id": "s"}))
	if err != nil || res.IsError {
		t.Fatalf("submit: %v %+v", err, res)
	}
	if svc.scripts["s"] != "JERRY: Hi." {
		t.Errorf("stored = %v", svc.scripts)
	}

	res, err = tl.summarizeScript(ctx, call(map[string]any{"session_id": "s"}))
	if err != nil || res.IsError {
		t.Fatalf("summarize: %v %+v", err, res)
	}
	var sum service.Summary
	if err := json.Unmarshal([]byte(text(t, res)), &sum); err != nil {
		t.Fatal(err)
	}
	if sum.Summary != "about JERRY: Hi." || len(sum.ActorList) != 3 {
		t.Errorf("summary = %+v", sum)
	}
}

func TestSubmitRequiresScript(t *testing.T) {
	tl := &tools{svc: &fakeService{scripts: map[string]string{}}, log: logging.Discard()}
	res, err := tl.submitScript(context.Background(), call(map[string]any{}))
	if err != nil || !res.IsError {
		t.Fatalf("expected tool error, got %v %+v", err, res)
	}
}

func TestSummarizeErrors(t *testing.T) {
	tl := &tools{svc: &fakeService{scripts: map[string]string{}}, log: logging.Discard()}
	res, _ := tl.summarizeScript(context.Background(), call(nil))
	if !res.IsError || text(t, res) != "No script provided." {
		t.Errorf("no script: %+v", res)
	}

	tl.svc = &fakeService{err: apperr.Upstream("Language model failed.", errors.New("503"))}
	res, _ = tl.summarizeScript(context.Background(), call(nil))
	if !res.IsError || text(t, res) != "Language model failed." {
		t.Errorf("upstream: %+v", res)
	}
}

func TestNewRegistersTools(t *testing.T) {
	if New(&fakeService{}, logging.Discard(), "test") == nil {
		t.Fatal("nil server")
	}
}
