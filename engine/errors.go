/*
errors.go - Centralized error types for the leave engine

PURPOSE:
  All domain error types in one place. Sentinels for errors.Is checks,
  structured types carrying context, and helpers the HTTP layer uses to
  map errors onto status codes.

ERROR CATEGORIES:
  1. Validation errors - malformed input (bad dates, missing fields)
  2. Not-found errors  - referenced id does not exist
  3. Conflict errors   - duplicate holiday, invalid status transition
  4. Authorization     - session lacks a required capability

USAGE:
  if errors.Is(err, engine.ErrDuplicateHoliday) { ... }
  if engine.IsNotFound(err) { ... 404 ... }
*/
package engine

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is the root of all input validation failures.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateHoliday is returned when a holiday create/update collides
	// with an existing normalized-name+date pair.
	ErrDuplicateHoliday = errors.New("duplicate holiday")

	// ErrInvalidTransition is returned when changing the status of a
	// request that is no longer pending. Approved and rejected are terminal.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrForbidden is returned when the session lacks a required capability.
	ErrForbidden = errors.New("operation not permitted")

	// ErrInsufficientBalance exists for callers that opt into floor-at-zero
	// debits. The engine itself never returns it: the observed upstream
	// behavior allows balances to go negative on approval, and we preserve
	// that. See DESIGN.md.
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError reports a specific bad field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NotFoundError identifies which record was missing.
type NotFoundError struct {
	Kind string // "user", "team", "request", "holiday"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// DuplicateHolidayError carries the colliding pair.
type DuplicateHolidayError struct {
	Name string
	Date Date
}

func (e *DuplicateHolidayError) Error() string {
	return fmt.Sprintf("holiday %q on %s already exists", e.Name, e.Date)
}

func (e *DuplicateHolidayError) Unwrap() error { return ErrDuplicateHoliday }

// InvalidTransitionError records the rejected transition.
type InvalidTransitionError struct {
	RequestID string
	From      RequestStatus
	To        RequestStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("request %s: cannot transition %s -> %s", e.RequestID, e.From, e.To)
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }

// =============================================================================
// ERROR HELPERS
// =============================================================================

func IsNotFound(err error) bool   { return errors.Is(err, ErrNotFound) }
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsConflict returns true for errors the HTTP layer maps to 409.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateHoliday) || errors.Is(err, ErrInvalidTransition)
}

func IsForbidden(err error) bool { return errors.Is(err, ErrForbidden) }
