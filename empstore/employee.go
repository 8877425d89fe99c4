package empstore

import (
	"fmt"
	"math"
	"strings"
	"unicode"
)

// Employee is a single record in the store
type Employee struct {
	ID       int32
	Name     string
	Position string
	Salary   float32
}

func (e Employee) String() string {
	return fmt.Sprintf("Employee{ID: %d, Name: %q, Position: %q, Salary: %.2f}", e.ID, e.Name, e.Position, e.Salary)
}

// IsBlank returns true if s is empty after trimming leading whitespace
func IsBlank(s string) bool {
	return strings.TrimLeftFunc(s, unicode.IsSpace) == ""
}

func ValidateID(id int64) error {
	if id <= 0 || id > math.MaxInt32 {
		return validationErr("id", ErrInvalidID)
	}
	return nil
}

// text is stored zero padded so a NUL would be lost on read
func validateText(field string, s string, maxLen int, errEmpty error) error {
	if strings.IndexByte(s, 0) >= 0 {
		return validationErr(field, ErrNulByte)
	}
	if IsBlank(s) {
		return validationErr(field, errEmpty)
	}
	if len(s) > maxLen {
		return validationErr(field, fmt.Errorf("%w: %d bytes, max is %d", ErrFieldTooLong, len(s), maxLen))
	}
	return nil
}

func ValidateName(name string) error {
	return validateText("name", name, NameLen, ErrEmptyName)
}

func ValidatePosition(position string) error {
	return validateText("position", position, PositionLen, ErrEmptyPosition)
}

// ValidateSalary accepts values >= 0 that fit in float32.
// NaN and infinity are rejected.
func ValidateSalary(salary float64) error {
	if math.IsNaN(salary) || salary < 0 || salary > math.MaxFloat32 {
		return validationErr("salary", ErrInvalidSalary)
	}
	return nil
}

// Validate checks everything but id uniqueness, which needs the store
func Validate(e *Employee) error {
	if e == nil {
		return validationErr("employee", fmt.Errorf("employee is nil"))
	}
	if err := ValidateID(int64(e.ID)); err != nil {
		return err
	}
	if err := ValidateName(e.Name); err != nil {
		return err
	}
	if err := ValidatePosition(e.Position); err != nil {
		return err
	}
	return ValidateSalary(float64(e.Salary))
}
