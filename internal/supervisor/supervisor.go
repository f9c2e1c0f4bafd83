package supervisor

import (
	"context"
	"fmt"
	"sync"

	"github.com/ShayCichocki/foreman/internal/assess"
	"github.com/ShayCichocki/foreman/internal/boundary"
	"github.com/ShayCichocki/foreman/internal/escalate"
	"github.com/ShayCichocki/foreman/internal/executor"
	"github.com/ShayCichocki/foreman/internal/report"
	"github.com/ShayCichocki/foreman/internal/state"
	"github.com/ShayCichocki/foreman/pkg/models"
)

// DefaultMaxWorkers bounds concurrent executors when the config does
// not say otherwise.
const DefaultMaxWorkers = 4

// Config contains configuration options for the Supervisor.
type Config struct {
	// ProjectID scopes every task the supervisor creates.
	ProjectID string
	// Store is the full task store. The supervisor is the only
	// component that lists tasks or reassigns blocked ones.
	Store state.Store
	// Registry maps scope tags to worker classes. Nil means the
	// built-in registry.
	Registry *boundary.Registry
	// Router is shared by all spawned executors. May be nil.
	Router *escalate.Router
	// Archive receives every completion report. May be nil.
	Archive *report.Archive
	// Work is the work function handed to each executor.
	Work executor.WorkFunc
	// MaxWorkers bounds concurrent executors. Zero means
	// DefaultMaxWorkers.
	MaxWorkers int
	// Controller relays operator abort/pause signals. May be nil.
	Controller *Controller
	// Logger receives debug output. Nil means no logging.
	Logger *DebugLogger
}

// Supervisor manages multiple concurrent executors. It spawns one
// bounded executor per task, collects their completion reports, and is
// the sole authority for putting blocked tasks back in play.
type Supervisor struct {
	cfg Config

	// executors tracks running executors by task ID
	executors map[string]*executor.Executor
	mu        sync.RWMutex

	emitter *eventEmitter
	reports chan *models.CompletionReport

	// sem bounds concurrent executors
	sem chan struct{}

	ctx    context.Context
	cancel context.CancelFunc

	// wg tracks running executors
	wg sync.WaitGroup

	shutdownOnce sync.Once
}

// New creates a Supervisor.
func New(cfg Config) *Supervisor {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = DefaultMaxWorkers
	}
	if cfg.Registry == nil {
		cfg.Registry = boundary.DefaultRegistry()
	}
	if cfg.Logger == nil {
		cfg.Logger = NopLogger()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Supervisor{
		cfg:       cfg,
		executors: make(map[string]*executor.Executor),
		emitter:   newEventEmitter(100),
		reports:   make(chan *models.CompletionReport, 100),
		sem:       make(chan struct{}, cfg.MaxWorkers),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Spawn creates a task and hands it to a fresh executor. Returns the
// task ID; the executor runs asynchronously and its report arrives on
// Reports.
func (s *Supervisor) Spawn(scopeTag, description string, meta assess.TaskContext) (string, error) {
	if err := s.gate(); err != nil {
		return "", err
	}

	taskID, err := s.cfg.Store.Create(s.cfg.ProjectID, scopeTag, description)
	if err != nil {
		return "", fmt.Errorf("create task: %w", err)
	}

	s.launch(taskID, scopeTag, models.TaskStatusTodo, meta)
	return taskID, nil
}

// Dispatch hands an existing todo task (typically a handoff left by a
// blocked executor) to a fresh executor.
func (s *Supervisor) Dispatch(taskID string, meta assess.TaskContext) error {
	if err := s.gate(); err != nil {
		return err
	}

	task, err := s.cfg.Store.Get(taskID)
	if err != nil {
		return err
	}
	if task.Status != models.TaskStatusTodo {
		return fmt.Errorf("task %s is %s, not todo", taskID, task.Status)
	}

	s.launch(taskID, task.ScopeTag, models.TaskStatusTodo, meta)
	return nil
}

// Reassign puts a blocked task back in play under a fresh executor.
// Blocked tasks never resume on their own; this call is the only path
// out of the blocked state.
func (s *Supervisor) Reassign(taskID string, meta assess.TaskContext) error {
	if err := s.gate(); err != nil {
		return err
	}

	task, err := s.cfg.Store.Get(taskID)
	if err != nil {
		return err
	}
	if task.Status != models.TaskStatusBlocked {
		return fmt.Errorf("task %s is %s, not blocked", taskID, task.Status)
	}

	s.emitter.Emit(Event{
		Type:     EventTaskReassigned,
		TaskID:   taskID,
		ScopeTag: task.ScopeTag,
		Message:  "blocked task returned to execution",
	})
	s.launch(taskID, task.ScopeTag, models.TaskStatusBlocked, meta)
	return nil
}

// gate refuses new work when the supervisor is shutting down or an
// operator signal is in effect.
func (s *Supervisor) gate() error {
	if s.ctx.Err() != nil {
		return fmt.Errorf("supervisor stopped")
	}
	if c := s.cfg.Controller; c != nil {
		if c.ShouldAbort() {
			return fmt.Errorf("abort signal in effect")
		}
		if c.ShouldPause() {
			return fmt.Errorf("pause signal in effect")
		}
	}
	return nil
}

// launch claims the task and runs an executor for it in the background.
// fromStatus is the status the claim transitions out of.
func (s *Supervisor) launch(taskID, scopeTag string, fromStatus models.TaskStatus, meta assess.TaskContext) {
	ex := executor.New(executor.Config{
		Context: models.ExecutionContext{
			ProjectID: s.cfg.ProjectID,
			TaskID:    taskID,
			ScopeTag:  scopeTag,
		},
		Store:     s.cfg.Store,
		Validator: boundary.ValidatorFor(scopeTag, s.cfg.Registry),
		Router:    s.cfg.Router,
		Work:      s.cfg.Work,
		Meta:      meta,
		Logf:      s.cfg.Logger.Log,
	})

	s.mu.Lock()
	s.executors[taskID] = ex
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			delete(s.executors, taskID)
			s.mu.Unlock()
		}()

		// Wait for a worker slot
		select {
		case s.sem <- struct{}{}:
			defer func() { <-s.sem }()
		case <-s.ctx.Done():
			return
		}

		execID := ex.ID()

		// Boundary validation runs before the claim. A refused task
		// keeps its prior status instead of stranding in in_progress,
		// so the refusal stays recoverable: the operator can re-route
		// the work and dispatch it again.
		if rep := ex.Validate(); rep != nil {
			s.handleReport(taskID, execID, scopeTag, rep)
			return
		}

		claim := state.Update{
			ExpectedStatus: fromStatus,
			NewStatus:      models.TaskStatusInProgress,
			AssignedTo:     &execID,
		}
		if fromStatus == models.TaskStatusBlocked {
			// The blocking requirement was handled; clear the link.
			empty := ""
			claim.BlockedBy = &empty
		}
		if _, err := s.cfg.Store.Update(taskID, claim); err != nil {
			// Someone else claimed the task first. The winner reports
			// for the task itself; deliver a synthetic failure so a
			// caller waiting on Reports is never left hanging. Not
			// archived: the task's real outcome belongs to the winner.
			s.cfg.Logger.Log("supervisor: claim %s: %v", taskID, err)
			r := report.Format(taskID, report.Outcome{
				Status: models.ReportFailed,
				Err:    fmt.Errorf("claim task: %w", err),
			})
			s.emitter.Emit(Event{
				Type:       EventTaskFailed,
				TaskID:     taskID,
				ExecutorID: execID,
				ScopeTag:   scopeTag,
				Message:    r.Summary,
			})
			select {
			case s.reports <- r:
			case <-s.ctx.Done():
			}
			return
		}

		s.emitter.Emit(Event{
			Type:       EventTaskSpawned,
			TaskID:     taskID,
			ExecutorID: execID,
			ScopeTag:   scopeTag,
		})

		r := ex.Run(s.ctx)
		s.handleReport(taskID, execID, scopeTag, r)
	}()
}

// handleReport archives the report, emits the matching event, and
// delivers the report to the Reports channel.
func (s *Supervisor) handleReport(taskID, execID, scopeTag string, r *models.CompletionReport) {
	if s.cfg.Archive != nil {
		if err := s.cfg.Archive.Save(s.cfg.ProjectID, r); err != nil {
			s.cfg.Logger.Log("supervisor: archive report for %s: %v", taskID, err)
		}
	}

	event := Event{
		TaskID:          taskID,
		ExecutorID:      execID,
		ScopeTag:        scopeTag,
		Message:         r.Summary,
		ComplexityScore: r.ComplexityScore,
	}
	switch r.Status {
	case models.ReportCompleted:
		event.Type = EventTaskCompleted
	case models.ReportBlocked:
		event.Type = EventTaskBlocked
	case models.ReportRefused:
		event.Type = EventTaskRefused
	default:
		event.Type = EventTaskFailed
	}
	s.emitter.Emit(event)

	select {
	case s.reports <- r:
	case <-s.ctx.Done():
	}
}

// Events returns the channel for receiving supervisor events.
func (s *Supervisor) Events() <-chan Event {
	return s.emitter.Events()
}

// Reports returns the channel delivering completion reports.
func (s *Supervisor) Reports() <-chan *models.CompletionReport {
	return s.reports
}

// Running returns the number of live executors.
func (s *Supervisor) Running() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.executors)
}

// DroppedEventCount returns the number of events dropped under load.
func (s *Supervisor) DroppedEventCount() uint64 {
	return s.emitter.DroppedCount()
}

// Wait blocks until every spawned executor has terminated.
func (s *Supervisor) Wait() {
	s.wg.Wait()
}

// Shutdown cancels running executors, waits for them to terminate, and
// closes the event and report channels. Cancelled executors drive
// their tasks to failed before exiting; nothing is left in_progress.
// Safe to call more than once.
func (s *Supervisor) Shutdown() error {
	s.shutdownOnce.Do(func() {
		s.cancel()
		s.wg.Wait()

		s.emitter.Emit(Event{Type: EventShutdown})
		s.emitter.Close()
		close(s.reports)
	})
	return nil
}
