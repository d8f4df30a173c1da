/*
errors.go - Centralized error types for the ledger engine

PURPOSE:
  All error taxonomy in one place. Callers branch with errors.Is on the
  sentinels and errors.As on the structured types.

ERROR CATEGORIES:
  1. Validation errors - bad input shape or range (negative cost, qty <= 0)
  2. Not-found errors  - unknown product or config reference
  3. Business errors   - sale exceeds stock
  4. Store errors      - corrupt backup file on restore

PROPAGATION POLICY:
  Every error surfaces to the caller as a user-visible message; nothing is
  swallowed and nothing is retried. These are deterministic business-rule
  failures, not transient faults. A failed mutating operation leaves the
  store exactly as it was.
*/
package ledger

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is the root of all bad-input failures.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a referenced product or config does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInsufficientStock is returned when a sale requests more units than
	// are on hand. Partial sales are never performed.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrNoTaxConfig is returned when no tax config precedes the lookup
	// timestamp. The store seeds zero rates at initialization, so in
	// practice this only occurs on hand-built stores.
	ErrNoTaxConfig = errors.New("no tax config effective at timestamp")

	// ErrCorruptStore is returned when a restore source is not a
	// well-formed store file. The active store is left untouched.
	ErrCorruptStore = errors.New("corrupt store file")

	// ErrInvalidPeriod is returned when a period's end is not after its start.
	ErrInvalidPeriod = errors.New("invalid period: end not after start")

	// ErrProductArchived is returned when posting against an archived product.
	ErrProductArchived = errors.New("product is archived")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError identifies which input field failed and why.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NotFoundError identifies the missing record.
type NotFoundError struct {
	Kind string // "product", "tax config"
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Key)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// InsufficientStockError reports the shortage on a rejected sale.
type InsufficientStockError struct {
	ProductCode string
	Requested   int64
	Available   int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d",
		e.ProductCode, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// NoTaxConfigError reports the timestamp that no config precedes.
type NoTaxConfigError struct {
	At time.Time
}

func (e *NoTaxConfigError) Error() string {
	return fmt.Sprintf("no tax config effective at %s", e.At.UTC().Format(time.RFC3339))
}

func (e *NoTaxConfigError) Unwrap() error { return ErrNoTaxConfig }

// CorruptStoreError reports why a restore source was rejected.
type CorruptStoreError struct {
	Path   string
	Reason string
}

func (e *CorruptStoreError) Error() string {
	return fmt.Sprintf("corrupt store file %s: %s", e.Path, e.Reason)
}

func (e *CorruptStoreError) Unwrap() error { return ErrCorruptStore }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input
// or a business-rule rejection, as opposed to an internal failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrProductArchived) ||
		errors.Is(err, ErrNoTaxConfig)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
