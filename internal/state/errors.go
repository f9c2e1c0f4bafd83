package state

import (
	"errors"
	"fmt"

	"github.com/ShayCichocki/foreman/pkg/models"
)

// ErrNotFound is returned when a task ID does not exist in the store.
var ErrNotFound = errors.New("task not found")

// StaleStatusError is returned when a compare-and-set update finds the
// task's current status differs from the caller's assumed prior status.
// Recoverable: re-fetch and retry.
type StaleStatusError struct {
	TaskID   string
	Expected models.TaskStatus
	Actual   models.TaskStatus
}

func (e *StaleStatusError) Error() string {
	return fmt.Sprintf("task %s: stale status: expected %s, found %s",
		e.TaskID, e.Expected, e.Actual)
}

// InvalidTransitionError is returned when a status change is not permitted
// by the transition table, regardless of concurrency.
type InvalidTransitionError struct {
	TaskID string
	From   models.TaskStatus
	To     models.TaskStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("task %s: invalid transition %s -> %s", e.TaskID, e.From, e.To)
}

// IsStaleStatus reports whether err is a StaleStatusError.
func IsStaleStatus(err error) bool {
	var stale *StaleStatusError
	return errors.As(err, &stale)
}

// IsInvalidTransition reports whether err is an InvalidTransitionError.
func IsInvalidTransition(err error) bool {
	var invalid *InvalidTransitionError
	return errors.As(err, &invalid)
}
