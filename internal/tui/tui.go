package tui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sokinpui/mdapply/mdapply"
	"github.com/sokinpui/mdapply/model"
)

// --- Styles ---
var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")) // Mauve
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))            // Green
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("197"))           // Red
	addStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))
	removeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("197"))
	pathStyle    = lipgloss.NewStyle()
	faintStyle   = lipgloss.NewStyle().Faint(true)
)

// --- Messages ---
type summaryMsg struct {
	model.Summary
}

type errorMsg struct{ err error }

func (e errorMsg) Error() string { return e.err.Error() }

// --- Model ---
type Model struct {
	app     *mdapply.App
	spinner spinner.Model
	state   uiState
	summary summaryMsg
	err     error
}

type uiState int

const (
	stateProcessing uiState = iota
	stateSummary
	stateError
)

func New(app *mdapply.App) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	return Model{
		app:     app,
		spinner: s,
		state:   stateProcessing,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.runApp)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case summaryMsg:
		m.state = stateSummary
		m.summary = msg
		return m, tea.Quit

	case errorMsg:
		m.state = stateError
		m.err = msg
		return m, tea.Quit

	default:
		var cmd tea.Cmd
		if m.state == stateProcessing {
			m.spinner, cmd = m.spinner.Update(msg)
		}
		return m, cmd
	}
	return m, nil
}

func (m Model) View() string {
	switch m.state {
	case stateProcessing:
		return fmt.Sprintf("%s Processing...", m.spinner.View())
	case stateError:
		return errorStyle.Render("Error: ", m.err.Error())
	case stateSummary:
		return m.renderSummary()
	default:
		return ""
	}
}

func (m *Model) renderSummary() string {
	var b strings.Builder

	if m.summary.Message != "" {
		b.WriteString(headerStyle.Render(m.summary.Message))
		b.WriteString("\n\n")
	}

	hasContent := false
	writeSection := func(title string, paths []string) {
		if len(paths) == 0 {
			return
		}
		hasContent = true
		b.WriteString(successStyle.Render(title))
		b.WriteString("\n")
		for _, f := range paths {
			b.WriteString(fmt.Sprintf("  %s%s\n", pathStyle.Render(f), m.renderDelta(f)))
			if p, ok := m.summary.Previews[f]; ok {
				for _, line := range strings.Split(p, "\n") {
					b.WriteString("    " + line + "\n")
				}
			}
		}
	}

	writeSection("Created:", m.summary.Created)
	writeSection("Modified:", m.summary.Modified)
	writeSection("Deleted:", m.summary.Deleted)
	writeSection("Renamed:", m.summary.Renamed)

	if len(m.summary.Failed) > 0 {
		hasContent = true
		b.WriteString(errorStyle.Render("Failed:"))
		b.WriteString("\n")
		for _, f := range m.summary.Failed {
			b.WriteString(fmt.Sprintf("  %s\n", pathStyle.Render(f)))
		}
	}

	if len(m.summary.CommitMsg) > 0 {
		hasContent = true
		b.WriteString(faintStyle.Render("Commit message:"))
		b.WriteString("\n")
		for _, line := range m.summary.CommitMsg {
			b.WriteString(faintStyle.Render("  " + line))
			b.WriteString("\n")
		}
	}

	if !hasContent && m.summary.Message == "" {
		b.WriteString(faintStyle.Render("Nothing to do."))
	}

	return b.String()
}

func (m *Model) renderDelta(path string) string {
	d, ok := m.summary.Deltas[path]
	if !ok || (d.Added == 0 && d.Removed == 0) {
		return ""
	}
	return fmt.Sprintf("  %s %s",
		addStyle.Render(fmt.Sprintf("+%d", d.Added)),
		removeStyle.Render(fmt.Sprintf("-%d", d.Removed)))
}

func (m *Model) runApp() tea.Msg {
	summary, err := m.app.Execute()
	if err != nil {
		// Print the stack for internal panics; the TUI is about to exit.
		if e, ok := err.(*mdapply.DetailedError); ok {
			fmt.Fprintf(os.Stderr, "\n--- Stack Trace ---\n%s\n", e.Stack)
		}
		return errorMsg{err}
	}
	return summaryMsg{
		Summary: summary,
	}
}
