package booking

import "errors"

var (
	// ErrUnauthorized is returned when the presented credential does not match
	// the configured operator token.
	ErrUnauthorized = errors.New("booking: unauthorized")
	// ErrNotFound is returned when the requested booking does not exist.
	ErrNotFound = errors.New("booking: not found")
	// ErrPersistence is returned when the record store rejects a write that a
	// decision depends on. Side effects are never attempted after it.
	ErrPersistence = errors.New("booking: persistence failure")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}
