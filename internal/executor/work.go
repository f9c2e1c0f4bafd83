package executor

import (
	"context"
	"fmt"

	"github.com/ShayCichocki/foreman/pkg/models"
)

// WorkResult is what a work function produces on success.
type WorkResult struct {
	// ArtifactsCreated, ArtifactsModified, ArtifactsDeleted list the
	// artifacts the work touched.
	ArtifactsCreated  []string
	ArtifactsModified []string
	ArtifactsDeleted  []string
	// Summary describes what was done.
	Summary string
}

// WorkFunc performs the task's actual work. The work itself is opaque to
// the engine: it receives the execution context and any escalation
// guidance, and reports artifacts or an error. Returning a BlockedError
// signals an out-of-scope requirement and triggers handoff instead of
// failure.
type WorkFunc func(ctx context.Context, ec models.ExecutionContext, guidance string) (WorkResult, error)

// BlockedError signals that the work cannot proceed without an action
// outside the executor's declared scope. The executor responds by
// creating a handoff task for the owning worker class and blocking its
// own task; it never performs the action itself.
type BlockedError struct {
	// ScopeTag is the domain that owns the required action.
	ScopeTag string
	// Requirement describes what the owning worker class must do.
	Requirement string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("blocked on %s: %s", e.ScopeTag, e.Requirement)
}

// NoopWork is a work function that does nothing and reports success.
// Useful for dry runs and tests.
func NoopWork(_ context.Context, _ models.ExecutionContext, _ string) (WorkResult, error) {
	return WorkResult{Summary: "no work performed (dry run)"}, nil
}
