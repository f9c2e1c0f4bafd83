// Package escalate routes difficult tasks to external consultation
// capabilities. Routing itself is a pure tier mapping; execution of the
// resulting plan is the engine's only I/O-bound suspension point and
// degrades to "no escalation" on failure or timeout rather than hanging
// an executor.
package escalate

import (
	"context"

	"github.com/ShayCichocki/foreman/pkg/models"
)

// Request carries the context a capability needs to give advice.
type Request struct {
	// Context identifies the task under consultation.
	Context models.ExecutionContext
	// Category is the routing category (architecture, root-cause, ...).
	Category string
	// Findings is the executor's own analysis so far.
	Findings string
	// PriorAdvice is the previous capability's output when the plan
	// chains consultations. Empty for the first call.
	PriorAdvice string
}

// Recommendation is a capability's answer.
type Recommendation struct {
	// Capability names the capability that produced this answer.
	Capability string
	// Position is the capability's one-word stance (e.g. "proceed",
	// "redesign", "defer"); consensus reduction compares positions.
	Position string
	// Advice is the full recommendation text.
	Advice string
}

// Capability is an external, replaceable consultation service.
// Implementations must honour ctx cancellation; the router wraps every
// call in a timeout.
type Capability interface {
	// Name returns the capability's registry name.
	Name() string
	// Consult asks the capability for a recommendation.
	Consult(ctx context.Context, req Request) (Recommendation, error)
}

// Outcome is the result of executing an escalation plan.
type Outcome struct {
	// Advice is the final recommendation text. Empty when Degraded.
	Advice string
	// CapabilitiesUsed names the capabilities actually consulted.
	CapabilitiesUsed []string
	// Degraded is true when consultation failed or timed out and the
	// executor should proceed without escalation.
	Degraded bool
}
