// Package tui provides the terminal monitor for a running supervisor.
package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ShayCichocki/foreman/internal/supervisor"
)

// EventMsg wraps a supervisor event for the monitor.
type EventMsg struct {
	Event supervisor.Event
}

// StreamClosedMsg signals that the supervisor's event channel closed.
type StreamClosedMsg struct{}

// taskRow is one tracked task in the monitor.
type taskRow struct {
	TaskID     string
	ExecutorID string
	ScopeTag   string
	State      string
	Message    string
	Score      int
	UpdatedAt  time.Time
}

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	stateStyles = map[string]lipgloss.Style{
		"running":   lipgloss.NewStyle().Foreground(lipgloss.Color("#45B7D1")),
		"completed": lipgloss.NewStyle().Foreground(lipgloss.Color("#96E6A1")),
		"blocked":   lipgloss.NewStyle().Foreground(lipgloss.Color("#FFC857")),
		"refused":   lipgloss.NewStyle().Foreground(lipgloss.Color("#FF8E53")),
		"failed":    lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")),
	}
)

// Monitor is the bubbletea model rendering supervisor activity.
type Monitor struct {
	events <-chan supervisor.Event

	rows    []*taskRow
	spinner spinner.Model

	width    int
	height   int
	quitting bool
	done     bool

	completed int
	blocked   int
	failed    int
	refused   int
}

// NewMonitor creates a monitor consuming the given event stream.
func NewMonitor(events <-chan supervisor.Event) *Monitor {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#4ECDC4"))

	return &Monitor{
		events:  events,
		spinner: sp,
	}
}

// Init implements tea.Model.
func (m *Monitor) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForEvent())
}

// waitForEvent reads the next supervisor event.
func (m *Monitor) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return StreamClosedMsg{}
		}
		return EventMsg{Event: ev}
	}
}

// Update implements tea.Model.
func (m *Monitor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case EventMsg:
		m.handleEvent(msg.Event)
		return m, m.waitForEvent()

	case StreamClosedMsg:
		m.done = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// handleEvent folds a supervisor event into the task table.
func (m *Monitor) handleEvent(ev supervisor.Event) {
	if ev.Type == supervisor.EventShutdown {
		m.done = true
		return
	}
	if ev.TaskID == "" {
		return
	}

	row := m.findOrCreateRow(ev.TaskID)
	row.UpdatedAt = ev.Timestamp
	if ev.ExecutorID != "" {
		row.ExecutorID = ev.ExecutorID
	}
	if ev.ScopeTag != "" {
		row.ScopeTag = ev.ScopeTag
	}
	if ev.Message != "" {
		row.Message = ev.Message
	}
	if ev.ComplexityScore > 0 {
		row.Score = ev.ComplexityScore
	}

	switch ev.Type {
	case supervisor.EventTaskSpawned, supervisor.EventTaskReassigned:
		row.State = "running"
	case supervisor.EventTaskCompleted:
		row.State = "completed"
		m.completed++
	case supervisor.EventTaskBlocked:
		row.State = "blocked"
		m.blocked++
	case supervisor.EventTaskRefused:
		row.State = "refused"
		m.refused++
	case supervisor.EventTaskFailed:
		row.State = "failed"
		m.failed++
	}
}

// findOrCreateRow finds a task row by ID or creates a new one.
func (m *Monitor) findOrCreateRow(taskID string) *taskRow {
	for _, row := range m.rows {
		if row.TaskID == taskID {
			return row
		}
	}
	row := &taskRow{TaskID: taskID, State: "running"}
	m.rows = append(m.rows, row)
	return row
}

// View implements tea.Model.
func (m *Monitor) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}

	var view string
	view += titleStyle.Render("FOREMAN") + dimStyle.Render("  task delegation monitor") + "\n\n"

	if len(m.rows) == 0 {
		view += dimStyle.Render("  waiting for tasks...") + " " + m.spinner.View() + "\n"
	}
	for _, row := range m.rows {
		view += m.renderRow(row)
	}

	view += "\n" + m.footer()
	return view
}

// renderRow renders one task line.
func (m *Monitor) renderRow(row *taskRow) string {
	style, ok := stateStyles[row.State]
	if !ok {
		style = dimStyle
	}

	badge := style.Render(fmt.Sprintf("%-9s", row.State))
	id := row.TaskID
	if len(id) > 8 {
		id = id[:8]
	}

	line := fmt.Sprintf("  %s %s %-16s", badge, dimStyle.Render(id), row.ScopeTag)
	if row.State == "running" {
		line += " " + m.spinner.View()
	}
	if row.Score > 0 {
		line += dimStyle.Render(fmt.Sprintf(" score=%d", row.Score))
	}
	if row.Message != "" {
		msg := row.Message
		if m.width > 0 && len(line)+len(msg) > m.width {
			cut := m.width - len(line) - 4
			if cut > 0 && cut < len(msg) {
				msg = msg[:cut] + "..."
			}
		}
		line += " " + dimStyle.Render(msg)
	}
	return line + "\n"
}

// footer renders the summary line.
func (m *Monitor) footer() string {
	summary := fmt.Sprintf("completed %d · blocked %d · refused %d · failed %d",
		m.completed, m.blocked, m.refused, m.failed)
	help := "q to quit"
	if m.done {
		help = "all executors terminated | q to exit"
	}
	return dimStyle.Render(summary + "  |  " + help)
}

// Run starts the monitor over the supervisor's event stream and blocks
// until the stream closes or the user quits.
func Run(events <-chan supervisor.Event) error {
	p := tea.NewProgram(NewMonitor(events), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
