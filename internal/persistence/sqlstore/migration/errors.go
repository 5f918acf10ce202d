package migration

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidFileName indicates a migration file does not follow the naming convention.
	ErrInvalidFileName = errors.New("migration: invalid file name")
	// ErrDuplicateVersion indicates that multiple migration files share a version.
	ErrDuplicateVersion = errors.New("migration: duplicate version")
	// ErrEmptyMigration indicates a migration file contains no statements.
	ErrEmptyMigration = errors.New("migration: no statements")
	// ErrChecksumMismatch indicates an applied migration file was edited afterwards.
	ErrChecksumMismatch = errors.New("migration: checksum mismatch")
)

// Error wraps a migration failure with the version, file and operation involved.
type Error struct {
	Version   string
	FilePath  string
	Operation string
	Err       error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Version != "" {
		return fmt.Sprintf("migration %s (%s): %s: %v", e.Version, e.FilePath, e.Operation, e.Err)
	}
	return fmt.Sprintf("migration (%s): %s: %v", e.FilePath, e.Operation, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(m Migration, operation string, err error) *Error {
	return &Error{Version: m.Version, FilePath: m.FilePath, Operation: operation, Err: err}
}
