/*
errors.go - Centralized error types for the ledger

PURPOSE:
  All error types in one place. Callers classify with errors.Is against the
  sentinels; structured errors carry the context and unwrap to a sentinel.

ERROR CATEGORIES:
  1. Lookup      - ErrNotFound (balance lookup, transaction for unknown person)
  2. Validation  - ErrInvalidAmount, ErrEmptyName, ErrInvalidType, ErrInvalidDate
  3. Import      - ErrInvalidFormat (state is left unchanged)
  4. Storage     - ErrPersistence (load degrades to empty, save is a warning)
  5. Lifecycle   - ErrNotLoaded (mutation before Load)

SAVE FAILURES:
  A mutation that succeeded in memory but could not be persisted returns a
  *SaveError. The mutation is NOT rolled back; the returned record is valid.

    p, err := l.AddPerson(ctx, "Ali")
    var saveErr *ledger.SaveError
    if errors.As(err, &saveErr) {
        // p exists in memory, warn the operator
    }
*/
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned when a person or transaction id does not exist.
	// Deletes of unknown ids are no-ops and never return it.
	ErrNotFound = errors.New("not found")

	// ErrInvalidAmount is returned for an unparsable amount, or one that is
	// not positive or above MaxAmount.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidFormat is returned when an import document cannot be used,
	// or when persisted data cannot be decoded.
	ErrInvalidFormat = errors.New("invalid format")

	// ErrPersistence is returned when the key-value collaborator fails.
	ErrPersistence = errors.New("persistence failure")

	ErrEmptyName   = errors.New("name must not be empty")
	ErrInvalidType = errors.New("invalid transaction type: must be given or taken")
	ErrInvalidDate = errors.New("invalid date or time")

	// ErrNotLoaded is returned by mutations issued before Load completed.
	ErrNotLoaded = errors.New("ledger not loaded")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// KindPerson is the record kind used in NotFoundError.
const KindPerson = "person"

// NotFoundError names the missing record.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// PersistenceError wraps a failure of the key-value collaborator.
type PersistenceError struct {
	Op  string // "get" or "set"
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure: %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() []error { return []error{ErrPersistence, e.Err} }

// FormatError describes why a document or stored value could not be used.
type FormatError struct {
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid format: %s: %v", e.Reason, e.Err)
	}
	return "invalid format: " + e.Reason
}

func (e *FormatError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInvalidFormat}
	}
	return []error{ErrInvalidFormat, e.Err}
}

// SaveError reports that a mutation was applied in memory but not persisted.
type SaveError struct {
	Op  string
	Err error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("%s applied but not saved: %v", e.Op, e.Err)
}

func (e *SaveError) Unwrap() error { return e.Err }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrEmptyName) ||
		errors.Is(err, ErrInvalidType) ||
		errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrInvalidFormat)
}

// IsPersistence returns true if the storage collaborator failed.
func IsPersistence(err error) bool {
	return errors.Is(err, ErrPersistence)
}

// IsSaveWarning returns true if the operation succeeded but was not persisted.
func IsSaveWarning(err error) bool {
	var saveErr *SaveError
	return errors.As(err, &saveErr)
}
