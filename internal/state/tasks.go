package state

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ShayCichocki/foreman/pkg/models"
)

// Create records a new task with status todo and returns its ID.
func (db *DB) Create(projectID, scopeTag, description string) (string, error) {
	id := uuid.New().String()
	now := time.Now()

	db.mu.Lock()
	defer db.mu.Unlock()

	_, err := db.conn.Exec(`
		INSERT INTO tasks (id, project_id, scope_tag, description, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id, projectID, scopeTag, description, string(models.TaskStatusTodo), formatTime(now))
	if err != nil {
		return "", fmt.Errorf("create task: %w", err)
	}

	return id, nil
}

// CreateHandoff records a new task describing an out-of-scope requirement.
// It is the store-level half of the cross-domain handoff mechanism: the
// blocked executor writes a task record instead of invoking another
// executor directly.
func (db *DB) CreateHandoff(projectID, scopeTag, description string) (string, error) {
	return db.Create(projectID, scopeTag, "[handoff] "+description)
}

// Get retrieves a task by ID. Returns ErrNotFound if it does not exist.
func (db *DB) Get(taskID string) (*models.Task, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.getLocked(taskID)
}

// getLocked reads a task while the caller holds the store lock.
func (db *DB) getLocked(taskID string) (*models.Task, error) {
	row := db.conn.QueryRow(`
		SELECT id, project_id, scope_tag, description, status, assigned_to, blocked_by, created_at, completed_at
		FROM tasks WHERE id = ?
	`, taskID)

	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// Update applies a compare-and-set mutation to a task.
//
// The caller states the status it believes the task holds; the UPDATE is
// guarded by that status so a concurrent writer loses cleanly with
// StaleStatusError instead of silently overwriting. Transitions outside
// the table fail with InvalidTransitionError before touching the row, and
// so does any update against a task that already reached a terminal
// status: a replayed completion is never applied twice.
func (db *DB) Update(taskID string, upd Update) (*models.Task, error) {
	if upd.NewStatus != "" && !upd.ExpectedStatus.CanTransition(upd.NewStatus) {
		return nil, &InvalidTransitionError{TaskID: taskID, From: upd.ExpectedStatus, To: upd.NewStatus}
	}

	sets := []string{}
	args := []any{}

	if upd.NewStatus != "" {
		sets = append(sets, "status = ?")
		args = append(args, string(upd.NewStatus))
		if upd.NewStatus.Terminal() {
			sets = append(sets, "completed_at = ?")
			args = append(args, formatTime(time.Now()))
		}
	}
	if upd.AppendDescription != "" {
		sets = append(sets, "description = description || ?")
		args = append(args, "\n"+stampNote(upd.AppendDescription))
	}
	if upd.AssignedTo != nil {
		sets = append(sets, "assigned_to = ?")
		args = append(args, *upd.AssignedTo)
	}
	if upd.BlockedBy != nil {
		sets = append(sets, "blocked_by = ?")
		args = append(args, *upd.BlockedBy)
	}
	if len(sets) == 0 {
		return db.Get(taskID)
	}

	args = append(args, taskID, string(upd.ExpectedStatus))

	db.mu.Lock()
	defer db.mu.Unlock()

	result, err := db.conn.Exec(
		"UPDATE tasks SET "+strings.Join(sets, ", ")+" WHERE id = ? AND status = ?",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		current, err := db.getLocked(taskID)
		if err != nil {
			return nil, err
		}
		// A terminal task admits no transition at all; the replay of an
		// already-applied completion is a table violation, not a race a
		// retry could win.
		if current.Status.Terminal() {
			return nil, &InvalidTransitionError{TaskID: taskID, From: current.Status, To: upd.NewStatus}
		}
		return nil, &StaleStatusError{TaskID: taskID, Expected: upd.ExpectedStatus, Actual: current.Status}
	}

	return db.getLocked(taskID)
}

// ListByProject returns all tasks in a project, newest first.
// This capability is granted to the supervisor only; executors receive a
// HandoffStore and cannot discover tasks beyond their own.
func (db *DB) ListByProject(projectID string) ([]models.Task, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	rows, err := db.conn.Query(`
		SELECT id, project_id, scope_tag, description, status, assigned_to, blocked_by, created_at, completed_at
		FROM tasks WHERE project_id = ? ORDER BY created_at DESC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// scanner abstracts sql.Row and sql.Rows for scanTask.
type scanner interface {
	Scan(dest ...any) error
}

// scanTask reads one task row.
func scanTask(s scanner) (*models.Task, error) {
	var t models.Task
	var assignedTo, blockedBy sql.NullString
	var createdAt string
	var completedAt sql.NullString

	err := s.Scan(&t.ID, &t.ProjectID, &t.ScopeTag, &t.Description, &t.Status,
		&assignedTo, &blockedBy, &createdAt, &completedAt)
	if err != nil {
		return nil, err
	}

	t.AssignedTo = assignedTo.String
	t.BlockedBy = blockedBy.String
	t.CreatedAt, _ = parseTime(createdAt)
	t.CompletedAt = parseNullableTime(completedAt)
	return &t, nil
}

// stampNote prefixes a progress note with a UTC timestamp.
func stampNote(note string) string {
	return fmt.Sprintf("[%s] %s", time.Now().UTC().Format(time.RFC3339), note)
}
