package order

import (
	"errors"
	"fmt"
)

// Validation errors, raised before any backend call. First failure wins.
var (
	ErrCustomerRequired    = errors.New("customer name is required")
	ErrCustomerTooShort    = errors.New("customer name is too short")
	ErrEmptyItems          = errors.New("order must have at least one item")
	ErrIncompleteItem      = errors.New("some items are incomplete")
	ErrInvalidStatus       = errors.New("invalid status")
	ErrNoProductsAvailable = errors.New("no products registered")
	ErrMinimumItems        = errors.New("order must keep at least one item")
	ErrIncompleteSelection = errors.New("every item must have a product selected")
	ErrRowOutOfRange       = errors.New("item row does not exist")
)

// ErrSubmissionInFlight is the benign signal that a submission was dropped
// because another one is still running. Never queued, never retried.
var ErrSubmissionInFlight = errors.New("a submission is already in progress")

// IsValidationError reports whether err stops the workflow before any
// side effect. These are surfaced immediately and never retried.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrCustomerRequired) ||
		errors.Is(err, ErrCustomerTooShort) ||
		errors.Is(err, ErrEmptyItems) ||
		errors.Is(err, ErrIncompleteItem) ||
		errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrIncompleteSelection)
}

// Stages of the two-step submission write.
const (
	StageHeader = "header"
	StageItems  = "items"
)

// PersistenceError reports which write of the submission failed.
// Stage "items" means the header was already created; Orphaned tells
// whether the compensating header delete also failed, leaving the
// header row behind with no items.
type PersistenceError struct {
	Stage    string
	Orphaned bool
	Err      error
}

func (e *PersistenceError) Error() string {
	if e.Orphaned {
		return fmt.Sprintf("persist %s: %v (order header left orphaned)", e.Stage, e.Err)
	}
	return fmt.Sprintf("persist %s: %v", e.Stage, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
