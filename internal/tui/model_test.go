package tui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"scriptsum/internal/client"
)

type fakePort struct {
	submitted []string
	err       error
}

func (f *fakePort) SubmitScript(ctx context.Context, script string) error {
	f.submitted = append(f.submitted, script)
	return nil
}

func (f *fakePort) Summary(ctx context.Context) (*client.Summary, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &client.Summary{Summary: "JERRY: hosts.", ActorList: []string{"- Actor 1", "- Actor 2", "- Actor 3"}}, nil
}

func sized(m Model) Model {
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	return next.(Model)
}

func TestSummarizeSubmitsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "episode.txt")
	if err := os.WriteFile(path, []byte("JERRY: Hello."), 0o644); err != nil {
		t.Fatal(err)
	}
	port := &fakePort{}
	m := sized(New(port, 0))

	msg := m.summarize(path)()
	if len(port.submitted) != 1 || port.submitted[0] != "JERRY: Hello." {
		t.Fatalf("submitted = %v", port.submitted)
	}
	next, _ := m.Update(msg)
	m = next.(Model)
	if m.result == nil || m.source != path {
		t.Fatalf("result not stored: %+v", m)
	}
	out := m.renderResult()
	for _, want := range []string{"Actor 1", "Actor 3", "hosts."} {
		if !strings.Contains(out, want) {
			t.Errorf("render missing %q:\n%s", want, out)
		}
	}
}

func TestSummarizeWithoutPathSkipsSubmit(t *testing.T) {
	port := &fakePort{}
	m := sized(New(port, 0))
	msg := m.summarize("")().(summaryMsg)
	if len(port.submitted) != 0 || msg.err != nil {
		t.Fatalf("submitted=%v err=%v", port.submitted, msg.err)
	}
}

func TestSummarizeErrorShowsStatus(t *testing.T) {
	port := &fakePort{err: errors.New("400 BAD_REQUEST: No script provided.")}
	m := sized(New(port, 0))
	m.busy = true
	next, _ := m.Update(m.summarize("")())
	m = next.(Model)
	if m.busy || !strings.Contains(m.status, "No script provided.") {
		t.Errorf("status = %q busy=%v", m.status, m.busy)
	}
	if m.renderResult() != "No summary yet." {
		t.Errorf("render = %q", m.renderResult())
	}
}

func TestEnterStartsWork(t *testing.T) {
	m := sized(New(&fakePort{}, 0))
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	if !m.busy || cmd == nil {
		t.Fatalf("busy=%v cmd=%v", m.busy, cmd)
	}
	// a second enter while busy is ignored
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter}); cmd != nil {
		t.Error("expected no command while busy")
	}
}

func TestMissingFile(t *testing.T) {
	m := sized(New(&fakePort{}, 0))
	msg := m.summarize(filepath.Join(t.TempDir(), "nope.txt"))().(summaryMsg)
	if msg.err == nil {
		t.Fatal("expected error")
	}
}
