// Package executor implements the single-task execution unit. An executor
// is bound to exactly one task for its entire lifetime, owns no
// sub-executors, and terminates itself the moment its task reaches a
// terminal state.
package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/ShayCichocki/foreman/internal/assess"
	"github.com/ShayCichocki/foreman/internal/boundary"
	"github.com/ShayCichocki/foreman/internal/escalate"
	"github.com/ShayCichocki/foreman/internal/report"
	"github.com/ShayCichocki/foreman/internal/state"
	"github.com/ShayCichocki/foreman/pkg/models"
)

// Phase is the executor's position in its run loop.
type Phase string

const (
	PhaseCreated    Phase = "created"
	PhaseValidating Phase = "validating"
	PhaseAssessing  Phase = "assessing"
	PhaseEscalating Phase = "escalating"
	PhaseWorking    Phase = "working"
	PhaseTerminated Phase = "terminated"
)

// Config assembles an executor's collaborators. Everything is handed in
// at spawn time; the executor re-derives nothing.
type Config struct {
	// Context is the immutable identity bundle for the assigned task.
	Context models.ExecutionContext
	// Store is the narrow store capability: own task plus handoffs.
	Store state.HandoffStore
	// Validator guards the worker class's domain.
	Validator *boundary.Validator
	// Router maps complexity to consultation plans. May be nil, in
	// which case no escalation ever happens.
	Router *escalate.Router
	// Work performs the task's actual work. Defaults to NoopWork.
	Work WorkFunc
	// Meta carries assessment metadata the supervisor attached at
	// spawn (dependencies, ambiguity flags, urgency).
	Meta assess.TaskContext
	// Logf receives debug log lines. May be nil.
	Logf func(format string, args ...any)
}

// Executor runs one task end-to-end and self-terminates.
type Executor struct {
	id  string
	cfg Config

	mu    sync.Mutex
	phase Phase
}

// New creates an executor bound to the task named in cfg.Context.
func New(cfg Config) *Executor {
	if cfg.Work == nil {
		cfg.Work = NoopWork
	}
	if cfg.Logf == nil {
		cfg.Logf = func(string, ...any) {}
	}
	return &Executor{
		id:    uuid.New().String()[:8],
		cfg:   cfg,
		phase: PhaseCreated,
	}
}

// ID returns the executor's identifier.
func (e *Executor) ID() string {
	return e.id
}

// Phase returns the executor's current phase.
func (e *Executor) Phase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

func (e *Executor) setPhase(p Phase) {
	e.mu.Lock()
	e.phase = p
	e.mu.Unlock()
	e.cfg.Logf("executor %s: phase %s", e.id, p)
}

// Validate checks the assigned task against the worker class's boundary.
// It returns a refusal report when the task's scope is outside the
// class's domain and nil when execution may proceed. Validation is pure
// and touches no store state, so the supervisor runs it before claiming:
// a refused task keeps its prior status and can be re-routed.
func (e *Executor) Validate() *models.CompletionReport {
	e.setPhase(PhaseValidating)
	ec := e.cfg.Context

	decision := e.cfg.Validator.Validate(ec, boundary.Action{
		ScopeTag: ec.ScopeTag,
		Verb:     "execute",
		Target:   ec.TaskID,
		Mutates:  true,
	})
	if decision.Allowed {
		return nil
	}

	summary := decision.Reason
	if decision.RedirectHint != "" {
		summary = fmt.Sprintf("%s; redirect to %s", decision.Reason, decision.RedirectHint)
	}
	return report.Format(ec.TaskID, report.Outcome{
		Status:  models.ReportRefused,
		Summary: summary,
	})
}

// Run consumes the assigned task end-to-end and returns its completion
// report. Run never returns nil: every path through the state machine,
// including refusal and failure, produces a complete report. When Run
// returns, the executor is terminated and must not be reused.
func (e *Executor) Run(ctx context.Context) *models.CompletionReport {
	defer e.setPhase(PhaseTerminated)
	ec := e.cfg.Context

	// Validation happens before any store mutation. A refusal produces
	// a report and terminates without side effects.
	if rep := e.Validate(); rep != nil {
		return rep
	}

	e.setPhase(PhaseAssessing)
	task, err := e.cfg.Store.Get(ec.TaskID)
	if err != nil {
		return e.fail(fmt.Errorf("load assigned task: %w", err), 0, nil)
	}
	meta := e.cfg.Meta
	meta.Description = task.Description
	score := assess.Assess(meta).Score()
	category := string(assess.Classify(task.Description))
	e.cfg.Logf("executor %s: task %s scored %d (%s)", e.id, ec.TaskID, score, category)

	guidance := ""
	var capabilitiesUsed []string
	if e.cfg.Router != nil {
		plan := e.cfg.Router.Route(score, category)
		if !plan.None() {
			e.setPhase(PhaseEscalating)
			outcome, err := e.cfg.Router.Execute(ctx, plan, ec, category, task.Description)
			if escalate.IsConsensusSplit(err) {
				// The panel disagreed beyond tolerance. Deciding is
				// the supervisor's job, not ours: block and hand the
				// question up.
				return e.block(ec, "", fmt.Sprintf("escalation consensus split: %v", err), score, nil)
			}
			if err != nil {
				return e.fail(fmt.Errorf("escalation: %w", err), score, nil)
			}
			if outcome.Degraded {
				e.cfg.Logf("executor %s: escalation degraded, proceeding without consultation", e.id)
			}
			guidance = outcome.Advice
			capabilitiesUsed = outcome.CapabilitiesUsed
		}
	}

	e.setPhase(PhaseWorking)
	result, err := e.cfg.Work(ctx, ec, guidance)
	if err != nil {
		var blocked *BlockedError
		switch {
		case errors.As(err, &blocked):
			return e.block(ec, blocked.ScopeTag, blocked.Requirement, score, capabilitiesUsed)
		case ctx.Err() != nil:
			return e.cancel(ctx.Err(), score, capabilitiesUsed)
		default:
			return e.fail(err, score, capabilitiesUsed)
		}
	}

	_, err = e.cfg.Store.Update(ec.TaskID, state.Update{
		ExpectedStatus:    models.TaskStatusInProgress,
		NewStatus:         models.TaskStatusCompleted,
		AppendDescription: "completed: " + result.Summary,
	})
	if err != nil {
		return e.fail(fmt.Errorf("record completion: %w", err), score, capabilitiesUsed)
	}

	return report.Format(ec.TaskID, report.Outcome{
		Status:            models.ReportCompleted,
		Summary:           result.Summary,
		ArtifactsCreated:  result.ArtifactsCreated,
		ArtifactsModified: result.ArtifactsModified,
		ArtifactsDeleted:  result.ArtifactsDeleted,
		ComplexityScore:   score,
		CapabilitiesUsed:  capabilitiesUsed,
	})
}

// block creates a handoff task (when a scope is named), transitions the
// own task to blocked, and reports. This is the engine's only
// cross-domain mechanism: the requirement is written to the store, never
// handed to another executor directly.
func (e *Executor) block(ec models.ExecutionContext, scopeTag, requirement string, score int, used []string) *models.CompletionReport {
	upd := state.Update{
		ExpectedStatus:    models.TaskStatusInProgress,
		NewStatus:         models.TaskStatusBlocked,
		AppendDescription: "blocked: " + requirement,
	}

	if scopeTag != "" {
		handoffID, err := e.cfg.Store.CreateHandoff(ec.ProjectID, scopeTag, requirement)
		if err != nil {
			return e.fail(fmt.Errorf("create handoff: %w", err), score, used)
		}
		upd.BlockedBy = &handoffID
		e.cfg.Logf("executor %s: handoff %s created for scope %s", e.id, handoffID, scopeTag)
	}

	if _, err := e.cfg.Store.Update(ec.TaskID, upd); err != nil {
		return e.fail(fmt.Errorf("record block: %w", err), score, used)
	}

	return report.Format(ec.TaskID, report.Outcome{
		Status:           models.ReportBlocked,
		Summary:          "blocked: " + requirement,
		ComplexityScore:  score,
		CapabilitiesUsed: used,
	})
}

// cancel records supervisor-driven cancellation. The task lands in failed
// via compare-and-set; it is never left dangling in in_progress.
func (e *Executor) cancel(cause error, score int, used []string) *models.CompletionReport {
	_, err := e.cfg.Store.Update(e.cfg.Context.TaskID, state.Update{
		ExpectedStatus:    models.TaskStatusInProgress,
		NewStatus:         models.TaskStatusFailed,
		AppendDescription: fmt.Sprintf("canceled: %v", cause),
	})
	if err != nil {
		e.cfg.Logf("executor %s: cancellation bookkeeping failed: %v", e.id, err)
	}
	return report.Format(e.cfg.Context.TaskID, report.Outcome{
		Status:           models.ReportFailed,
		Summary:          fmt.Sprintf("canceled: %v", cause),
		ComplexityScore:  score,
		CapabilitiesUsed: used,
	})
}

// fail transitions the task to failed and reports. Failure is terminal
// and surfaced to the supervisor; it is never retried from inside the
// executor.
func (e *Executor) fail(cause error, score int, used []string) *models.CompletionReport {
	_, err := e.cfg.Store.Update(e.cfg.Context.TaskID, state.Update{
		ExpectedStatus:    models.TaskStatusInProgress,
		NewStatus:         models.TaskStatusFailed,
		AppendDescription: fmt.Sprintf("failed: %v", cause),
	})
	if err != nil && !state.IsStaleStatus(err) && !state.IsInvalidTransition(err) {
		e.cfg.Logf("executor %s: failure bookkeeping failed: %v", e.id, err)
	}
	return report.Format(e.cfg.Context.TaskID, report.Outcome{
		Status:           models.ReportFailed,
		ComplexityScore:  score,
		CapabilitiesUsed: used,
		Err:              cause,
	})
}
