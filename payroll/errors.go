/*
errors.go - Centralized error types for the payroll engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers wrap these with context using fmt.Errorf("...: %w", err) and
  test for them with errors.Is / errors.As.

ERROR CATEGORIES:
  1. Rule errors - Bad classification or rate (strict evaluation only)
  2. Validation errors - Malformed records, shifts, periods
  3. Store errors - Missing rows, duplicate idempotency keys

SEE ALSO:
  - pay.go: Rule.Evaluate returns the rule errors
  - ledger.go: Returns RecordError
  - api/handlers.go: Maps these to HTTP status codes
*/
package payroll

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrUnknownClassification is returned by strict evaluation when the
	// employee's classification is neither hourly nor per_break.
	ErrUnknownClassification = errors.New("unknown pay classification")

	// ErrMissingRate is returned by strict evaluation when no rate is set.
	ErrMissingRate = errors.New("pay rate not configured")

	ErrNegativeRate     = errors.New("pay rate is negative")
	ErrNegativeQuantity = errors.New("quantity is negative")

	// ErrDuplicateIdempotencyKey is returned when a record with the same
	// idempotency key already exists. Expected for double-submitted forms.
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")

	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrInvalidPeriod is returned when a period is malformed (end before start).
	ErrInvalidPeriod = errors.New("invalid period: end before start")

	ErrInvalidRecord = errors.New("invalid work record")

	// ErrInvalidShift is returned when clock-out is not after clock-in.
	ErrInvalidShift = errors.New("invalid shift: time out must be after time in")

	ErrInvalidEmployee = errors.New("invalid employee")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// RecordError names the field of a WorkRecord that failed validation.
type RecordError struct {
	Field  string
	Reason string
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("invalid work record: %s %s", e.Field, e.Reason)
}

func (e *RecordError) Unwrap() error { return ErrInvalidRecord }

// EmployeeError names the directory entry that failed validation.
type EmployeeError struct {
	Name   string
	Reason string
}

func (e *EmployeeError) Error() string {
	return fmt.Sprintf("invalid employee %q: %s", e.Name, e.Reason)
}

func (e *EmployeeError) Unwrap() error { return ErrInvalidEmployee }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidRecord) ||
		errors.Is(err, ErrInvalidShift) ||
		errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrInvalidEmployee) ||
		errors.Is(err, ErrNegativeQuantity) ||
		errors.Is(err, ErrNegativeRate)
}

// IsConflict returns true for duplicate submissions.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateIdempotencyKey)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEmployeeNotFound)
}
