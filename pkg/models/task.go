package models

import "time"

// TaskStatus represents the current lifecycle state of a task.
type TaskStatus string

const (
	// TaskStatusTodo indicates the task has not been claimed yet.
	TaskStatusTodo TaskStatus = "todo"
	// TaskStatusInProgress indicates an executor is working the task.
	TaskStatusInProgress TaskStatus = "in_progress"
	// TaskStatusBlocked indicates the task cannot proceed without an
	// out-of-scope action and awaits explicit reassignment.
	TaskStatusBlocked TaskStatus = "blocked"
	// TaskStatusCompleted indicates the task finished successfully.
	TaskStatusCompleted TaskStatus = "completed"
	// TaskStatusFailed indicates the task failed terminally.
	TaskStatusFailed TaskStatus = "failed"
)

// Valid returns true if the status is a known value.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusBlocked,
		TaskStatusCompleted, TaskStatusFailed:
		return true
	default:
		return false
	}
}

// Terminal returns true if no further transition is permitted from s.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// CanTransition reports whether the transition from s to next is permitted.
// The table is deliberately restrictive: the status field is the only lock
// in the system, so every widening here weakens the single-owner invariant.
func (s TaskStatus) CanTransition(next TaskStatus) bool {
	switch s {
	case TaskStatusTodo:
		return next == TaskStatusInProgress
	case TaskStatusInProgress:
		return next == TaskStatusBlocked || next == TaskStatusCompleted || next == TaskStatusFailed
	case TaskStatusBlocked:
		// Reassignment only; the supervisor claims the task again.
		return next == TaskStatusInProgress
	default:
		return false
	}
}

// Task represents one bounded unit of work.
// ID, ProjectID, and ScopeTag are immutable after creation. Description is
// an append-only progress log; Status moves only through the transition
// table above.
type Task struct {
	// ID is the unique identifier for this task.
	ID string `json:"id"`
	// ProjectID groups tasks belonging to the same project.
	ProjectID string `json:"project_id"`
	// ScopeTag is the domain classifier set at creation.
	ScopeTag string `json:"scope_tag"`
	// Description is the task's free-text description and progress log.
	Description string `json:"description"`
	// Status is the current lifecycle state.
	Status TaskStatus `json:"status"`
	// AssignedTo is the ID of the executor working this task, if any.
	AssignedTo string `json:"assigned_to,omitempty"`
	// BlockedBy is the ID of the handoff task created when this task
	// blocked on an out-of-scope requirement, if any.
	BlockedBy string `json:"blocked_by,omitempty"`
	// CreatedAt is when the task was created.
	CreatedAt time.Time `json:"created_at"`
	// CompletedAt is when the task reached a terminal state, if it has.
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
