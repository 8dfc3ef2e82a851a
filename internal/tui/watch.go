// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tui renders a live view of a pipeline run. It follows The Elm
// Architecture via bubbletea: the model holds the streamed output, Update
// consumes line and lifecycle messages, View renders the tail of the log.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pdiddy/content-engine/internal/runctl"
)

// maxVisibleLines bounds the rendered tail of the run output.
const maxVisibleLines = 20

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	lineStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	doneStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	failStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	statusStyle = lipgloss.NewStyle().Faint(true)
)

type lineMsg string

type runDoneMsg struct{ err error }

// Model is the watch view over one run session.
type Model struct {
	session *runctl.Session
	spinner spinner.Model

	lines    []string
	finished bool
	runErr   error
}

// NewModel builds the watch view for a session.
func NewModel(session *runctl.Session) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	return Model{session: session, spinner: sp}
}

// Init starts the spinner and the line relay.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForLine())
}

// waitForLine blocks on the session until the next output line or exit.
func (m Model) waitForLine() tea.Cmd {
	return func() tea.Msg {
		line, ok := <-m.session.Lines()
		if !ok {
			<-m.session.Done()
			return runDoneMsg{err: m.session.Err()}
		}
		return lineMsg(line)
	}
}

// Update consumes key, spinner, and session messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if !m.finished {
				m.session.Stop()
			}
			return m, tea.Quit
		}
		return m, nil

	case lineMsg:
		m.lines = append(m.lines, string(msg))
		if len(m.lines) > maxVisibleLines {
			m.lines = m.lines[len(m.lines)-maxVisibleLines:]
		}
		return m, m.waitForLine()

	case runDoneMsg:
		m.finished = true
		m.runErr = msg.err
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the run header, the output tail, and the exit state.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("content-engine run"))
	b.WriteString("\n\n")

	for _, line := range m.lines {
		b.WriteString(lineStyle.Render(line))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch {
	case !m.finished:
		fmt.Fprintf(&b, "%s running... %s\n", m.spinner.View(), statusStyle.Render("(q to stop)"))
	case m.runErr != nil:
		b.WriteString(failStyle.Render(fmt.Sprintf("run finished with failures: %v", m.runErr)))
		b.WriteString("\n")
		b.WriteString(statusStyle.Render("press q to exit"))
		b.WriteString("\n")
	default:
		b.WriteString(doneStyle.Render("run finished"))
		b.WriteString("\n")
		b.WriteString(statusStyle.Render("press q to exit"))
		b.WriteString("\n")
	}
	return b.String()
}
