package application

import "errors"

var (
	// ErrNotFound is returned when the requested session does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrInvalidSession is returned when a session lacks the fields needed to
	// persist it.
	ErrInvalidSession = errors.New("application: invalid session")
	// ErrStorage wraps failures reported by the schedule repository.
	ErrStorage = errors.New("application: storage failure")
	// ErrConflict is returned when a class plan collides with existing bookings.
	ErrConflict = errors.New("application: schedule conflict")
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

// Unwrap lets errors.Is match ErrInvalidSession.
func (v *ValidationError) Unwrap() error {
	if v == nil {
		return nil
	}
	return ErrInvalidSession
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
