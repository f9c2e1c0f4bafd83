// Package boundary enforces per-worker-class domain limits. Every
// side-effecting action an executor wants to take is checked here first;
// refusal is a first-class return value, never an error.
package boundary

// Action describes a side-effecting operation an executor proposes to
// perform, evaluated before any effect occurs.
type Action struct {
	// ScopeTag is the domain the action belongs to.
	ScopeTag string
	// Verb names the operation kind (e.g. "modify", "spawn", "list_tasks").
	Verb string
	// Target identifies what the action touches, if anything.
	Target string
	// Mutates is true when the action changes persistent state.
	Mutates bool
}

// Decision is the validator's verdict on a proposed action.
// A refusal carries a reason and a redirect hint naming the worker class
// that owns the refused domain, so the caller can hand the work off
// instead of attempting it.
type Decision struct {
	// Allowed is true when the action is inside the worker's domain.
	Allowed bool
	// Reason explains a refusal. Empty on allow.
	Reason string
	// RedirectHint names the worker class that owns the refused domain,
	// when one is known.
	RedirectHint string
}

// Allow is the affirmative decision.
func Allow() Decision {
	return Decision{Allowed: true}
}

// Refuse builds a refusal with a reason and an optional redirect hint.
func Refuse(reason, redirectHint string) Decision {
	return Decision{Reason: reason, RedirectHint: redirectHint}
}
