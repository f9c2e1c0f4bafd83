package boundary

import (
	"fmt"

	"github.com/ShayCichocki/foreman/pkg/models"
)

// Validator decides whether a proposed action belongs to a worker class's
// declared domain. Validation is pure: identical inputs always yield the
// identical decision, and no state is consulted beyond the registry the
// validator was built with.
type Validator struct {
	class    models.WorkerClass
	registry *Registry
}

// NewValidator creates a validator for one worker class. A nil registry
// falls back to the built-in table.
func NewValidator(class models.WorkerClass, registry *Registry) *Validator {
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &Validator{class: class, registry: registry}
}

// Class returns the worker class this validator guards.
func (v *Validator) Class() models.WorkerClass {
	return v.class
}

// Validate evaluates a proposed action against the worker class's
// prohibited predicates first (hard veto), then its accepted scope tags.
// Refusal is returned, never raised; the caller must check the decision
// before performing any side effect.
func (v *Validator) Validate(ec models.ExecutionContext, action Action) Decision {
	spec, ok := v.registry.Spec(v.class)
	if !ok {
		return Refuse(fmt.Sprintf("worker class %s is not registered", v.class), "")
	}

	for _, name := range spec.Prohibited {
		pred, ok := predicates[name]
		if !ok {
			continue
		}
		if pred(ec, action) {
			hint := ""
			if owner, found := v.registry.OwnerOf(action.ScopeTag); found && owner != v.class {
				hint = string(owner)
			}
			return Refuse(fmt.Sprintf("action %q violates %s", action.Verb, name), hint)
		}
	}

	for _, tag := range spec.AcceptedTags {
		if tag == action.ScopeTag {
			return Allow()
		}
	}

	hint := ""
	if owner, found := v.registry.OwnerOf(action.ScopeTag); found {
		hint = string(owner)
	}
	return Refuse(fmt.Sprintf("scope %q is outside the %s domain", action.ScopeTag, v.class), hint)
}

// ValidatorFor builds a validator for the worker class that owns the
// given scope tag. Falls back to the general worker when no class owns it.
func ValidatorFor(scopeTag string, registry *Registry) *Validator {
	if registry == nil {
		registry = DefaultRegistry()
	}
	if owner, ok := registry.OwnerOf(scopeTag); ok {
		return NewValidator(owner, registry)
	}
	return NewValidator(models.WorkerGeneral, registry)
}
