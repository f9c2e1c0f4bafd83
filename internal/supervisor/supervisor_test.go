package supervisor

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ShayCichocki/foreman/internal/assess"
	"github.com/ShayCichocki/foreman/internal/executor"
	"github.com/ShayCichocki/foreman/internal/state"
	"github.com/ShayCichocki/foreman/pkg/models"
)

// awaitReport reads one report or fails the test after a timeout.
func awaitReport(t *testing.T, s *Supervisor) *models.CompletionReport {
	t.Helper()
	select {
	case r := <-s.Reports():
		if r == nil {
			t.Fatal("reports channel closed")
		}
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for report")
		return nil
	}
}

func TestSpawnDeliversCompletedReport(t *testing.T) {
	store := state.NewMemoryStore()
	s := New(Config{
		ProjectID: "proj-1",
		Store:     store,
		Work: func(_ context.Context, _ models.ExecutionContext, _ string) (executor.WorkResult, error) {
			return executor.WorkResult{Summary: "formatted three files"}, nil
		},
	})

	taskID, err := s.Spawn("formatting", "reformat the parser", assess.TaskContext{})
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}

	r := awaitReport(t, s)
	if r.TaskID != taskID {
		t.Errorf("report task = %s, want %s", r.TaskID, taskID)
	}
	if r.Status != models.ReportCompleted {
		t.Fatalf("report status = %s: %s", r.Status, r.Summary)
	}

	s.Wait()
	task, _ := store.Get(taskID)
	if task.Status != models.TaskStatusCompleted {
		t.Errorf("task status = %s, want completed", task.Status)
	}
	if task.AssignedTo == "" {
		t.Error("AssignedTo never recorded")
	}

	if err := s.Shutdown(); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	var types []EventType
	for ev := range s.Events() {
		types = append(types, ev.Type)
	}
	if types[0] != EventTaskSpawned {
		t.Errorf("first event = %s, want task_spawned", types[0])
	}
	found := false
	for _, ty := range types {
		if ty == EventTaskCompleted {
			found = true
		}
	}
	if !found {
		t.Errorf("no task_completed event in %v", types)
	}
}

func TestBlockedHandoffAndReassign(t *testing.T) {
	store := state.NewMemoryStore()

	var blockedOnce atomic.Bool
	s := New(Config{
		ProjectID: "proj-1",
		Store:     store,
		Work: func(_ context.Context, ec models.ExecutionContext, _ string) (executor.WorkResult, error) {
			if ec.ScopeTag == "formatting" && blockedOnce.CompareAndSwap(false, true) {
				return executor.WorkResult{}, &executor.BlockedError{
					ScopeTag:    "build",
					Requirement: "regenerate the lockfile",
				}
			}
			return executor.WorkResult{Summary: "done"}, nil
		},
	})
	defer s.Shutdown()

	taskID, err := s.Spawn("formatting", "reformat the build scripts", assess.TaskContext{})
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}

	r := awaitReport(t, s)
	if r.Status != models.ReportBlocked {
		t.Fatalf("first report status = %s: %s", r.Status, r.Summary)
	}
	s.Wait()

	task, _ := store.Get(taskID)
	if task.Status != models.TaskStatusBlocked || task.BlockedBy == "" {
		t.Fatalf("task after block = %+v", task)
	}
	handoffID := task.BlockedBy

	// The supervisor dispatches the handoff, then returns the blocked
	// task to execution.
	if err := s.Dispatch(handoffID, assess.TaskContext{}); err != nil {
		t.Fatalf("dispatch handoff: %v", err)
	}
	r = awaitReport(t, s)
	if r.TaskID != handoffID || r.Status != models.ReportCompleted {
		t.Fatalf("handoff report = %+v", r)
	}
	s.Wait()

	if err := s.Reassign(taskID, assess.TaskContext{}); err != nil {
		t.Fatalf("reassign: %v", err)
	}
	r = awaitReport(t, s)
	if r.TaskID != taskID || r.Status != models.ReportCompleted {
		t.Fatalf("reassigned report = %+v", r)
	}
	s.Wait()

	task, _ = store.Get(taskID)
	if task.Status != models.TaskStatusCompleted {
		t.Errorf("task status = %s, want completed", task.Status)
	}
	if task.BlockedBy != "" {
		t.Errorf("BlockedBy not cleared: %q", task.BlockedBy)
	}

	handoff, _ := store.Get(handoffID)
	if handoff.Status != models.TaskStatusCompleted {
		t.Errorf("handoff status = %s, want completed", handoff.Status)
	}
	if !strings.HasPrefix(handoff.Description, "[handoff] ") {
		t.Errorf("handoff description = %q", handoff.Description)
	}
}

func TestReassignRequiresBlocked(t *testing.T) {
	store := state.NewMemoryStore()
	s := New(Config{ProjectID: "proj-1", Store: store})
	defer s.Shutdown()

	taskID, err := store.Create("proj-1", "formatting", "reformat")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := s.Reassign(taskID, assess.TaskContext{}); err == nil {
		t.Error("reassign of a todo task succeeded")
	}
}

func TestShutdownFailsRunningTasks(t *testing.T) {
	store := state.NewMemoryStore()

	started := make(chan struct{}, 4)
	s := New(Config{
		ProjectID: "proj-1",
		Store:     store,
		Work: func(ctx context.Context, _ models.ExecutionContext, _ string) (executor.WorkResult, error) {
			started <- struct{}{}
			<-ctx.Done()
			return executor.WorkResult{}, ctx.Err()
		},
	})

	taskID, err := s.Spawn("formatting", "reformat", assess.TaskContext{})
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("work never started")
	}

	if err := s.Shutdown(); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	// A cancelled executor must not strand its task in_progress.
	task, _ := store.Get(taskID)
	if task.Status != models.TaskStatusFailed {
		t.Errorf("task status after shutdown = %s, want failed", task.Status)
	}

	if _, err := s.Spawn("formatting", "more work", assess.TaskContext{}); err == nil {
		t.Error("spawn after shutdown succeeded")
	}
}

func TestAbortSignalGatesSpawn(t *testing.T) {
	store := state.NewMemoryStore()

	ctrl, err := NewController(t.TempDir())
	if err != nil {
		t.Fatalf("controller: %v", err)
	}
	defer ctrl.Close()

	s := New(Config{ProjectID: "proj-1", Store: store, Controller: ctrl})
	defer s.Shutdown()

	if err := ctrl.SendAbort(); err != nil {
		t.Fatalf("send abort: %v", err)
	}

	if _, err := s.Spawn("formatting", "reformat", assess.TaskContext{}); err == nil {
		t.Error("spawn succeeded under abort signal")
	}

	ctrl.ClearSignals()
	if _, err := s.Spawn("formatting", "reformat", assess.TaskContext{}); err != nil {
		t.Errorf("spawn after clear: %v", err)
	}
	awaitReport(t, s)
}

func TestMaxWorkersBoundsConcurrency(t *testing.T) {
	store := state.NewMemoryStore()

	var running, peak atomic.Int32
	release := make(chan struct{})
	s := New(Config{
		ProjectID:  "proj-1",
		Store:      store,
		MaxWorkers: 1,
		Work: func(_ context.Context, _ models.ExecutionContext, _ string) (executor.WorkResult, error) {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			<-release
			running.Add(-1)
			return executor.WorkResult{Summary: "done"}, nil
		},
	})
	defer s.Shutdown()

	for i := 0; i < 3; i++ {
		if _, err := s.Spawn("formatting", "reformat", assess.TaskContext{}); err != nil {
			t.Fatalf("spawn %d: %v", i, err)
		}
	}

	close(release)
	for i := 0; i < 3; i++ {
		r := awaitReport(t, s)
		if r.Status != models.ReportCompleted {
			t.Fatalf("report %d status = %s", i, r.Status)
		}
	}
	s.Wait()

	if got := peak.Load(); got > 1 {
		t.Errorf("peak concurrency = %d, want at most 1", got)
	}
	if s.DroppedEventCount() != 0 {
		t.Errorf("dropped events = %d", s.DroppedEventCount())
	}
}

func TestSpawnUnroutedScopeRefusedWithoutClaim(t *testing.T) {
	store := state.NewMemoryStore()
	s := New(Config{
		ProjectID: "proj-1",
		Store:     store,
	})

	taskID, err := s.Spawn("no-such-scope", "work nobody owns", assess.TaskContext{})
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}

	r := awaitReport(t, s)
	if r.Status != models.ReportRefused {
		t.Fatalf("report status = %s: %s", r.Status, r.Summary)
	}

	// Refusal happens before the claim: the task keeps its todo status
	// and stays unassigned, so it can be re-routed and dispatched again
	// instead of stranding in in_progress.
	s.Wait()
	task, err := store.Get(taskID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if task.Status != models.TaskStatusTodo {
		t.Errorf("refused task status = %s, want todo", task.Status)
	}
	if task.AssignedTo != "" {
		t.Errorf("refused task assigned to %q, want unassigned", task.AssignedTo)
	}

	if err := s.Shutdown(); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	refusedSeen := false
	for ev := range s.Events() {
		if ev.Type == EventTaskRefused {
			refusedSeen = true
		}
		if ev.Type == EventTaskSpawned {
			t.Error("task_spawned emitted for a task that was never claimed")
		}
	}
	if !refusedSeen {
		t.Error("no task_refused event emitted")
	}
}

func TestClaimLossDeliversFailedReport(t *testing.T) {
	store := state.NewMemoryStore()
	s := New(Config{
		ProjectID: "proj-1",
		Store:     store,
	})
	defer s.Shutdown()

	taskID, err := store.Create("proj-1", "formatting", "contended work")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// A rival claims the task before our executor reaches the store.
	rival := "rival-exec"
	if _, err := store.Update(taskID, state.Update{
		ExpectedStatus: models.TaskStatusTodo,
		NewStatus:      models.TaskStatusInProgress,
		AssignedTo:     &rival,
	}); err != nil {
		t.Fatalf("rival claim: %v", err)
	}

	s.launch(taskID, "formatting", models.TaskStatusTodo, assess.TaskContext{})

	// The loser must still deliver a report so callers waiting on
	// Reports are never left hanging.
	r := awaitReport(t, s)
	if r.TaskID != taskID {
		t.Errorf("report task = %s, want %s", r.TaskID, taskID)
	}
	if r.Status != models.ReportFailed {
		t.Errorf("report status = %s, want failed", r.Status)
	}
	if !strings.Contains(r.Summary, "claim") {
		t.Errorf("summary %q does not mention the lost claim", r.Summary)
	}

	// The rival's ownership is untouched.
	s.Wait()
	task, _ := store.Get(taskID)
	if task.Status != models.TaskStatusInProgress || task.AssignedTo != rival {
		t.Errorf("task after lost claim: status=%s assigned=%s", task.Status, task.AssignedTo)
	}
}
