// Package supervisor coordinates executor lifecycles: it spawns bounded
// executors for tasks, consumes their completion reports, and owns every
// reassignment decision for blocked work.
package supervisor

import (
	"time"
)

// EventType represents the type of supervisor event.
type EventType string

const (
	// EventTaskSpawned indicates an executor was spawned for a task.
	EventTaskSpawned EventType = "task_spawned"
	// EventTaskCompleted indicates a task completed successfully.
	EventTaskCompleted EventType = "task_completed"
	// EventTaskFailed indicates a task failed.
	EventTaskFailed EventType = "task_failed"
	// EventTaskBlocked indicates a task hit a boundary and handed off.
	EventTaskBlocked EventType = "task_blocked"
	// EventTaskRefused indicates a task was refused at validation.
	EventTaskRefused EventType = "task_refused"
	// EventTaskReassigned indicates a blocked task was put back in play.
	EventTaskReassigned EventType = "task_reassigned"
	// EventShutdown indicates the supervisor finished draining.
	EventShutdown EventType = "shutdown"
)

// Event is emitted by the supervisor as executors move through their
// lifecycles. Consumers (the monitor TUI, tests) receive these on a
// buffered channel and must tolerate drops under load.
type Event struct {
	// Type is the kind of event.
	Type EventType
	// TaskID is the ID of the related task, if applicable.
	TaskID string
	// ExecutorID is the ID of the executor handling the task.
	ExecutorID string
	// ScopeTag is the task's scope tag.
	ScopeTag string
	// Message provides additional context about the event.
	Message string
	// Error contains error details for failure events.
	Error error
	// ComplexityScore is the assessed score, for terminal events.
	ComplexityScore int
	// Timestamp is when the event occurred.
	Timestamp time.Time
}
