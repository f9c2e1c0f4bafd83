package boundary

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ShayCichocki/foreman/pkg/models"
)

// Predicate is a named hard-veto check. A matching predicate refuses the
// action regardless of scope tags.
type Predicate func(ec models.ExecutionContext, action Action) bool

// predicates are the built-in prohibited-action checks a class spec can
// reference by name.
var predicates = map[string]Predicate{
	// mutate-outside-scope vetoes persistent-state changes in any domain
	// other than the task's declared scope.
	"mutate-outside-scope": func(ec models.ExecutionContext, a Action) bool {
		return a.Mutates && a.ScopeTag != ec.ScopeTag
	},
	// spawn-executor vetoes any attempt at direct delegation. Handoff
	// goes through the task store, never through another executor.
	"spawn-executor": func(_ models.ExecutionContext, a Action) bool {
		return a.Verb == "spawn"
	},
	// task-discovery vetoes querying the store for tasks beyond the one
	// named in the execution context.
	"task-discovery": func(_ models.ExecutionContext, a Action) bool {
		return a.Verb == "list_tasks"
	},
}

// ClassSpec declares a worker class's accepted scope tags and the named
// prohibited predicates applied to every proposed action.
type ClassSpec struct {
	AcceptedTags []string `yaml:"accepted_tags"`
	Prohibited   []string `yaml:"prohibited"`
}

// Registry maps worker classes to their specs and answers tag-ownership
// queries for redirect hints.
type Registry struct {
	classes map[models.WorkerClass]ClassSpec
}

// registryFile is the YAML shape of a worker-class registry file.
type registryFile struct {
	Classes map[string]ClassSpec `yaml:"classes"`
}

// DefaultRegistry returns the built-in worker class table.
func DefaultRegistry() *Registry {
	return &Registry{classes: map[models.WorkerClass]ClassSpec{
		models.WorkerFormatting: {
			AcceptedTags: []string{"formatting"},
			Prohibited:   []string{"mutate-outside-scope", "spawn-executor", "task-discovery"},
		},
		models.WorkerTypeCheck: {
			AcceptedTags: []string{"type-check"},
			Prohibited:   []string{"mutate-outside-scope", "spawn-executor", "task-discovery"},
		},
		models.WorkerTest: {
			AcceptedTags: []string{"test", "test-failure"},
			Prohibited:   []string{"mutate-outside-scope", "spawn-executor", "task-discovery"},
		},
		models.WorkerBuild: {
			AcceptedTags: []string{"build", "dependency"},
			Prohibited:   []string{"mutate-outside-scope", "spawn-executor", "task-discovery"},
		},
		models.WorkerDocs: {
			AcceptedTags: []string{"docs"},
			Prohibited:   []string{"mutate-outside-scope", "spawn-executor", "task-discovery"},
		},
		models.WorkerGeneral: {
			AcceptedTags: []string{"general", "feature", "bugfix"},
			Prohibited:   []string{"spawn-executor", "task-discovery"},
		},
	}}
}

// LoadRegistry reads a worker-class registry from a YAML file.
// Unknown predicate names are rejected at load time so a typo cannot
// silently disable a veto.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry: %w", err)
	}

	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse registry: %w", err)
	}

	classes := make(map[models.WorkerClass]ClassSpec, len(file.Classes))
	for name, spec := range file.Classes {
		class := models.WorkerClass(name)
		if !class.Valid() {
			return nil, fmt.Errorf("unknown worker class %q", name)
		}
		for _, p := range spec.Prohibited {
			if _, ok := predicates[p]; !ok {
				return nil, fmt.Errorf("class %q: unknown predicate %q", name, p)
			}
		}
		classes[class] = spec
	}

	return &Registry{classes: classes}, nil
}

// Spec returns the class spec for a worker class.
func (r *Registry) Spec(class models.WorkerClass) (ClassSpec, bool) {
	spec, ok := r.classes[class]
	return spec, ok
}

// OwnerOf returns the worker class that accepts the given scope tag, for
// use as a redirect hint. Returns false when no class owns the tag.
func (r *Registry) OwnerOf(scopeTag string) (models.WorkerClass, bool) {
	for class, spec := range r.classes {
		for _, tag := range spec.AcceptedTags {
			if tag == scopeTag {
				return class, true
			}
		}
	}
	return "", false
}
