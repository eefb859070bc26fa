package task

import (
	"errors"
	"fmt"
)

// ErrNotFound matches any NotFoundError via errors.Is.
var ErrNotFound = errors.New("task not found")

// NotFoundError reports that no task carries the requested id.
type NotFoundError struct {
	ID int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Task with ID %d not found", e.ID)
}

// Is lets callers test with errors.Is(err, ErrNotFound).
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// PersistenceError reports that the backing file could not be written.
type PersistenceError struct {
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("saving tasks to %s: %v", e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
