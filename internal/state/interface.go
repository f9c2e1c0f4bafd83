// Package state provides the durable task store for foreman.
package state

import (
	"io"

	"github.com/ShayCichocki/foreman/pkg/models"
)

// Update describes a compare-and-set mutation of a single task.
// ExpectedStatus is the caller's assumed prior status; the update fails
// with StaleStatusError if it no longer matches.
type Update struct {
	// ExpectedStatus is the status the caller believes the task holds.
	ExpectedStatus models.TaskStatus
	// NewStatus, if non-empty, is the status to transition to. It must
	// be reachable from ExpectedStatus in the transition table.
	NewStatus models.TaskStatus
	// AppendDescription, if non-empty, is appended to the task's
	// progress log. The existing description is never rewritten.
	AppendDescription string
	// AssignedTo, if non-nil, replaces the task's executor assignment.
	AssignedTo *string
	// BlockedBy, if non-nil, records the handoff task ID.
	BlockedBy *string
}

// HandoffStore is the narrow store capability granted to executors.
// It permits mutation of the executor's own task and creation of handoff
// tasks for other worker classes, nothing more. Executors are deliberately
// never given ListByProject.
type HandoffStore interface {
	// Get retrieves a task by ID.
	Get(taskID string) (*models.Task, error)
	// Update applies a compare-and-set mutation.
	Update(taskID string, upd Update) (*models.Task, error)
	// CreateHandoff records a new task describing an out-of-scope
	// requirement, tagged for the worker class that owns it.
	CreateHandoff(projectID, scopeTag, description string) (string, error)
}

// Store is the full task store capability held by the supervisor.
type Store interface {
	HandoffStore
	io.Closer

	// Create records a new task and returns its ID. Supervisor-only.
	Create(projectID, scopeTag, description string) (string, error)
	// ListByProject returns all tasks in a project. Supervisor-only.
	ListByProject(projectID string) ([]models.Task, error)
}

// Compile-time verification that both implementations satisfy Store.
var (
	_ Store = (*DB)(nil)
	_ Store = (*MemoryStore)(nil)
)
