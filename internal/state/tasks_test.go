package state

import (
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/ShayCichocki/foreman/pkg/models"
)

// setupTestDB creates a migrated temporary SQLite store.
func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.Migrate(); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	return db
}

// eachStore runs fn against both store implementations. The engine's
// invariants have to hold identically for SQLite and memory.
func eachStore(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Helper()
	t.Run("sqlite", func(t *testing.T) {
		fn(t, setupTestDB(t))
	})
	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemoryStore())
	})
}

func TestCreateAndGet(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		id, err := s.Create("proj-1", "formatting", "reformat the parser package")
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		task, err := s.Get(id)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if task.ProjectID != "proj-1" || task.ScopeTag != "formatting" {
			t.Errorf("unexpected identity: %+v", task)
		}
		if task.Status != models.TaskStatusTodo {
			t.Errorf("new task status = %s, want todo", task.Status)
		}
		if task.CreatedAt.IsZero() {
			t.Error("CreatedAt not set")
		}
	})
}

func TestGetNotFound(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		_, err := s.Get("no-such-task")
		if err != ErrNotFound {
			t.Errorf("Get unknown id: err = %v, want ErrNotFound", err)
		}
	})
}

func TestUpdateRoundTrip(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		id, _ := s.Create("proj-1", "formatting", "initial")

		exec := "exec-1"
		task, err := s.Update(id, Update{
			ExpectedStatus: models.TaskStatusTodo,
			NewStatus:      models.TaskStatusInProgress,
			AssignedTo:     &exec,
		})
		if err != nil {
			t.Fatalf("claim failed: %v", err)
		}
		if task.Status != models.TaskStatusInProgress || task.AssignedTo != "exec-1" {
			t.Errorf("after claim: %+v", task)
		}

		task, err = s.Update(id, Update{
			ExpectedStatus:    models.TaskStatusInProgress,
			NewStatus:         models.TaskStatusCompleted,
			AppendDescription: "all files reformatted",
		})
		if err != nil {
			t.Fatalf("complete failed: %v", err)
		}
		if task.Status != models.TaskStatusCompleted {
			t.Errorf("status = %s, want completed", task.Status)
		}
		if task.CompletedAt == nil {
			t.Error("CompletedAt not set on terminal transition")
		}
		if !strings.Contains(task.Description, "all files reformatted") {
			t.Errorf("progress note not appended: %q", task.Description)
		}
		if !strings.Contains(task.Description, "initial") {
			t.Errorf("original description lost: %q", task.Description)
		}
	})
}

func TestUpdateInvalidTransition(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		id, _ := s.Create("proj-1", "formatting", "x")

		// todo -> completed skips the claim and must be rejected.
		_, err := s.Update(id, Update{
			ExpectedStatus: models.TaskStatusTodo,
			NewStatus:      models.TaskStatusCompleted,
		})
		if !IsInvalidTransition(err) {
			t.Errorf("todo->completed: err = %v, want InvalidTransitionError", err)
		}

		// Task must be untouched.
		task, _ := s.Get(id)
		if task.Status != models.TaskStatusTodo {
			t.Errorf("status mutated to %s by rejected transition", task.Status)
		}
	})
}

func TestUpdateStaleStatus(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		id, _ := s.Create("proj-1", "formatting", "x")
		mustUpdate(t, s, id, models.TaskStatusTodo, models.TaskStatusInProgress)

		// A second claimer still assuming todo loses cleanly.
		_, err := s.Update(id, Update{
			ExpectedStatus: models.TaskStatusTodo,
			NewStatus:      models.TaskStatusInProgress,
		})
		if !IsStaleStatus(err) {
			t.Errorf("second claim: err = %v, want StaleStatusError", err)
		}
	})
}

func TestDoubleCompleteIsRejected(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		id, _ := s.Create("proj-1", "formatting", "x")
		mustUpdate(t, s, id, models.TaskStatusTodo, models.TaskStatusInProgress)
		mustUpdate(t, s, id, models.TaskStatusInProgress, models.TaskStatusCompleted)

		// Replaying the completion with the same assumed prior status is
		// rejected as an invalid transition out of a terminal state,
		// never double-applied. Only losers of a live race get stale.
		_, err := s.Update(id, Update{
			ExpectedStatus: models.TaskStatusInProgress,
			NewStatus:      models.TaskStatusCompleted,
		})
		if !IsInvalidTransition(err) {
			t.Errorf("replayed complete: err = %v, want InvalidTransitionError", err)
		}

		// And completed -> anything is invalid outright.
		_, err = s.Update(id, Update{
			ExpectedStatus: models.TaskStatusCompleted,
			NewStatus:      models.TaskStatusInProgress,
		})
		if !IsInvalidTransition(err) {
			t.Errorf("completed->in_progress: err = %v, want InvalidTransitionError", err)
		}
	})
}

func TestConcurrentClaimSingleWinner(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		id, _ := s.Create("proj-1", "formatting", "contended")

		const claimers = 16
		var wg sync.WaitGroup
		wins := make(chan string, claimers)

		for i := 0; i < claimers; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				exec := string(rune('a' + n))
				_, err := s.Update(id, Update{
					ExpectedStatus: models.TaskStatusTodo,
					NewStatus:      models.TaskStatusInProgress,
					AssignedTo:     &exec,
				})
				if err == nil {
					wins <- exec
				} else if !IsStaleStatus(err) {
					t.Errorf("loser got unexpected error: %v", err)
				}
			}(i)
		}
		wg.Wait()
		close(wins)

		var winners []string
		for w := range wins {
			winners = append(winners, w)
		}
		if len(winners) != 1 {
			t.Fatalf("expected exactly one winning claim, got %d", len(winners))
		}

		task, _ := s.Get(id)
		if task.Status != models.TaskStatusInProgress || task.AssignedTo != winners[0] {
			t.Errorf("store disagrees with winner: %+v", task)
		}
	})
}

func TestListByProject(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		a, _ := s.Create("proj-a", "formatting", "one")
		s.Create("proj-a", "type-check", "two")
		s.Create("proj-b", "formatting", "other project")

		tasks, err := s.ListByProject("proj-a")
		if err != nil {
			t.Fatalf("ListByProject failed: %v", err)
		}
		if len(tasks) != 2 {
			t.Fatalf("got %d tasks, want 2", len(tasks))
		}
		for _, task := range tasks {
			if task.ProjectID != "proj-a" {
				t.Errorf("task %s leaked from project %s", task.ID, task.ProjectID)
			}
		}
		_ = a
	})
}

func TestCreateHandoffTagsDescription(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		id, err := s.CreateHandoff("proj-1", "type-check", "annotate exported API")
		if err != nil {
			t.Fatalf("CreateHandoff failed: %v", err)
		}
		task, _ := s.Get(id)
		if !strings.HasPrefix(task.Description, "[handoff]") {
			t.Errorf("handoff description = %q", task.Description)
		}
		if task.Status != models.TaskStatusTodo {
			t.Errorf("handoff status = %s, want todo", task.Status)
		}
		if task.ScopeTag != "type-check" {
			t.Errorf("handoff scope = %s, want type-check", task.ScopeTag)
		}
	})
}

// mustUpdate applies a status transition or fails the test.
func mustUpdate(t *testing.T, s Store, id string, from, to models.TaskStatus) *models.Task {
	t.Helper()
	task, err := s.Update(id, Update{ExpectedStatus: from, NewStatus: to})
	if err != nil {
		t.Fatalf("transition %s -> %s failed: %v", from, to, err)
	}
	return task
}
