package empstore

import (
	"errors"
	"fmt"
)

var (
	// ErrOpen is returned when the data file can't be opened
	ErrOpen = errors.New("failed to open data file")
	// ErrWrite is returned when a record couldn't be fully written
	ErrWrite = errors.New("failed to write record")
	// ErrNotFound is returned by FindByID if there's no record with a given id
	ErrNotFound = errors.New("employee not found")
	// ErrCorrupt is returned when the data file ends with a partial record
	ErrCorrupt = errors.New("data file has a partial record at the end")

	// ErrValidation matches every *ValidationError
	ErrValidation = errors.New("invalid employee")

	ErrInvalidID     = errors.New("id must be a positive integer")
	ErrDuplicateID   = errors.New("id already exists")
	ErrEmptyName     = errors.New("name cannot be empty")
	ErrEmptyPosition = errors.New("position cannot be empty")
	ErrFieldTooLong  = errors.New("value is too long")
	ErrNulByte       = errors.New("value contains a NUL byte")
	ErrInvalidSalary = errors.New("salary must be a non-negative number")
)

// ValidationError describes why a field of an employee was rejected.
// errors.Is() matches both ErrValidation and the specific cause in Err.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() []error {
	return []error{ErrValidation, e.Err}
}

func validationErr(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}
