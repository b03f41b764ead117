package tui

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"scriptsum/internal/client"
)

// SummaryPort is the TUI-facing subset of the API client.
type SummaryPort interface {
	SubmitScript(ctx context.Context, script string) error
	Summary(ctx context.Context) (*client.Summary, error)
}

type summaryMsg struct {
	source  string
	summary *client.Summary
	err     error
}

// Model is the Bubble Tea model for the TUI application.
type Model struct {
	service  SummaryPort
	timeout  time.Duration
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	result   *client.Summary
	source   string
	status   string
	busy     bool
	ready    bool
}

// New creates a new TUI model instance.
func New(service SummaryPort, timeout time.Duration) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Path to a script file (empty: summarize what the server has)"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	if timeout == 0 {
		timeout = 3 * time.Minute
	}
	return Model{
		service:  service,
		timeout:  timeout,
		input:    ti,
		viewport: vp,
		spinner:  sp,
		status:   "Enter a script path and press Enter.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := inputBoxStyle.GetFrameSize()
		reserved := 1 + 1 + qh + 1 // header, status, input box, spacer
		vh := msg.Height - reserved
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderResult())
		return m, nil
	case summaryMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			m.result = nil
		} else {
			m.result = msg.summary
			m.source = msg.source
			m.status = fmt.Sprintf("Summary of %s", msg.source)
		}
		m.viewport.SetContent(m.renderResult())
		m.viewport.GotoTop()
		return m, nil
	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			if m.busy {
				return m, nil
			}
			path := strings.TrimSpace(m.input.Value())
			m.busy = true
			m.status = "Summarizing..."
			m.input.SetValue("")
			return m, tea.Batch(m.spinner.Tick, m.summarize(path))
		case "pgdown", "pgup", "down", "up":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// summarize submits the file at path, if any, then fetches the summary.
func (m Model) summarize(path string) tea.Cmd {
	svc, timeout := m.service, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		source := "the server's script"
		if path != "" {
			data, err := os.ReadFile(path)
			if err != nil {
				return summaryMsg{err: err}
			}
			if err := svc.SubmitScript(ctx, string(data)); err != nil {
				return summaryMsg{err: err}
			}
			source = path
		}
		sum, err := svc.Summary(ctx)
		return summaryMsg{source: source, summary: sum, err: err}
	}
}

// View renders the TUI layout and current result.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Script Summarizer")
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	if m.busy {
		status = m.spinner.View() + " " + status
	}
	input := inputBoxStyle.Render(m.input.View())
	result := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + result + "\n" + input + "\n" + status
}

func (m Model) renderResult() string {
	if m.result == nil {
		return "No summary yet."
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("Summary"))
	b.WriteString("\n\n")
	b.WriteString(highlightNames(m.result.Summary))
	b.WriteString("\n\n")
	b.WriteString(titleStyle.Render("Actors"))
	b.WriteString("\n")
	for _, a := range m.result.ActorList {
		b.WriteString(actorStyle.Render(a))
		b.WriteString("\n")
	}
	return b.String()
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	titleStyle     = lipgloss.NewStyle().Bold(true).Underline(true)
	actorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	// speaker cues such as "JERRY:" at the start of a line
	speakerRe = regexp.MustCompile(`(?m)^(\p{Lu}[\p{Lu} .'-]*):`)
)

func highlightNames(text string) string {
	return speakerRe.ReplaceAllStringFunc(text, func(s string) string {
		return highlightStyle.Render(strings.TrimSuffix(s, ":")) + ":"
	})
}
