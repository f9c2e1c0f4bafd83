package models

// ExecutionContext is the immutable identity bundle handed to an executor
// at spawn time. The executor holds it for its entire lifetime and never
// re-derives it; in particular it must never query the store for tasks
// other than TaskID. That restriction is what bounds fan-out.
type ExecutionContext struct {
	// ProjectID is the grouping key of the assigned task.
	ProjectID string `json:"project_id"`
	// TaskID is the single task this executor is bound to.
	TaskID string `json:"task_id"`
	// ScopeTag is the assigned task's domain classifier.
	ScopeTag string `json:"scope_tag"`
	// ScopeHint optionally narrows the scope further (e.g. a subsystem
	// name within the tagged domain). May be empty.
	ScopeHint string `json:"scope_hint,omitempty"`
}
