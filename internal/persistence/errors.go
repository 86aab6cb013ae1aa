package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: record not found")
	// ErrDuplicate is returned when a write collides with an existing record.
	ErrDuplicate = errors.New("persistence: duplicate record")
	// ErrLocked is returned when the database stayed busy past the retry
	// budget.
	ErrLocked = errors.New("persistence: database locked")
)
