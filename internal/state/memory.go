package state

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ShayCichocki/foreman/pkg/models"
)

// MemoryStore is an in-memory task store with the same compare-and-set
// semantics as the SQLite store. Used in tests and for embedding the
// engine without a database file.
type MemoryStore struct {
	mu    sync.Mutex
	tasks map[string]*models.Task
}

// NewMemoryStore creates an empty in-memory task store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tasks: make(map[string]*models.Task)}
}

// Create records a new task with status todo and returns its ID.
func (m *MemoryStore) Create(projectID, scopeTag, description string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New().String()
	m.tasks[id] = &models.Task{
		ID:          id,
		ProjectID:   projectID,
		ScopeTag:    scopeTag,
		Description: description,
		Status:      models.TaskStatusTodo,
		CreatedAt:   time.Now(),
	}
	return id, nil
}

// CreateHandoff records a new handoff task for another worker class.
func (m *MemoryStore) CreateHandoff(projectID, scopeTag, description string) (string, error) {
	return m.Create(projectID, scopeTag, "[handoff] "+description)
}

// Get retrieves a copy of a task by ID.
func (m *MemoryStore) Get(taskID string) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[taskID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

// Update applies a compare-and-set mutation under the store mutex.
func (m *MemoryStore) Update(taskID string, upd Update) (*models.Task, error) {
	if upd.NewStatus != "" && !upd.ExpectedStatus.CanTransition(upd.NewStatus) {
		return nil, &InvalidTransitionError{TaskID: taskID, From: upd.ExpectedStatus, To: upd.NewStatus}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[taskID]
	if !ok {
		return nil, ErrNotFound
	}
	if t.Status != upd.ExpectedStatus {
		if t.Status.Terminal() {
			return nil, &InvalidTransitionError{TaskID: taskID, From: t.Status, To: upd.NewStatus}
		}
		return nil, &StaleStatusError{TaskID: taskID, Expected: upd.ExpectedStatus, Actual: t.Status}
	}

	if upd.NewStatus != "" {
		t.Status = upd.NewStatus
		if upd.NewStatus.Terminal() {
			now := time.Now()
			t.CompletedAt = &now
		}
	}
	if upd.AppendDescription != "" {
		t.Description += "\n" + stampNote(upd.AppendDescription)
	}
	if upd.AssignedTo != nil {
		t.AssignedTo = *upd.AssignedTo
	}
	if upd.BlockedBy != nil {
		t.BlockedBy = *upd.BlockedBy
	}

	cp := *t
	return &cp, nil
}

// ListByProject returns all tasks in a project, newest first.
func (m *MemoryStore) ListByProject(projectID string) ([]models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var tasks []models.Task
	for _, t := range m.tasks {
		if t.ProjectID == projectID {
			tasks = append(tasks, *t)
		}
	}
	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
	return tasks, nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error {
	return nil
}
