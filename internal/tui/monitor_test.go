package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ShayCichocki/foreman/internal/supervisor"
)

func TestHandleEventTracksLifecycle(t *testing.T) {
	m := NewMonitor(nil)

	m.handleEvent(supervisor.Event{
		Type:       supervisor.EventTaskSpawned,
		TaskID:     "task-1",
		ExecutorID: "exec-1",
		ScopeTag:   "formatting",
		Timestamp:  time.Now(),
	})

	if len(m.rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(m.rows))
	}
	if m.rows[0].State != "running" {
		t.Errorf("state = %q, want running", m.rows[0].State)
	}

	m.handleEvent(supervisor.Event{
		Type:            supervisor.EventTaskCompleted,
		TaskID:          "task-1",
		Message:         "formatted three files",
		ComplexityScore: 4,
	})

	if len(m.rows) != 1 {
		t.Fatalf("rows = %d after completion, want 1", len(m.rows))
	}
	if m.rows[0].State != "completed" {
		t.Errorf("state = %q, want completed", m.rows[0].State)
	}
	if m.rows[0].Score != 4 {
		t.Errorf("score = %d, want 4", m.rows[0].Score)
	}
	if m.completed != 1 {
		t.Errorf("completed count = %d, want 1", m.completed)
	}
}

func TestHandleEventCountsByOutcome(t *testing.T) {
	m := NewMonitor(nil)

	events := []supervisor.Event{
		{Type: supervisor.EventTaskSpawned, TaskID: "a"},
		{Type: supervisor.EventTaskBlocked, TaskID: "a"},
		{Type: supervisor.EventTaskSpawned, TaskID: "b"},
		{Type: supervisor.EventTaskRefused, TaskID: "b"},
		{Type: supervisor.EventTaskSpawned, TaskID: "c"},
		{Type: supervisor.EventTaskFailed, TaskID: "c"},
		{Type: supervisor.EventTaskReassigned, TaskID: "a"},
		{Type: supervisor.EventTaskCompleted, TaskID: "a"},
	}
	for _, ev := range events {
		m.handleEvent(ev)
	}

	if m.blocked != 1 || m.refused != 1 || m.failed != 1 || m.completed != 1 {
		t.Errorf("counts = blocked %d refused %d failed %d completed %d",
			m.blocked, m.refused, m.failed, m.completed)
	}
	if len(m.rows) != 3 {
		t.Errorf("rows = %d, want 3", len(m.rows))
	}
}

func TestViewShowsTasksAndSummary(t *testing.T) {
	m := NewMonitor(nil)
	m.handleEvent(supervisor.Event{
		Type:     supervisor.EventTaskSpawned,
		TaskID:   "abcdef123456",
		ScopeTag: "type-check",
	})
	m.handleEvent(supervisor.Event{
		Type:   supervisor.EventTaskCompleted,
		TaskID: "abcdef123456",
	})

	view := m.View()
	if !strings.Contains(view, "abcdef12") {
		t.Errorf("view lacks truncated task ID:\n%s", view)
	}
	if !strings.Contains(view, "type-check") {
		t.Errorf("view lacks scope tag:\n%s", view)
	}
	if !strings.Contains(view, "completed 1") {
		t.Errorf("view lacks summary:\n%s", view)
	}
}

func TestQuitKey(t *testing.T) {
	m := NewMonitor(nil)

	model, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if !model.(*Monitor).quitting {
		t.Error("quitting not set")
	}
}

func TestStreamClosedQuits(t *testing.T) {
	events := make(chan supervisor.Event)
	close(events)

	m := NewMonitor(events)
	msg := m.waitForEvent()()
	if _, ok := msg.(StreamClosedMsg); !ok {
		t.Fatalf("msg = %T, want StreamClosedMsg", msg)
	}

	model, cmd := m.Update(msg)
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if !model.(*Monitor).done {
		t.Error("done not set")
	}
}
