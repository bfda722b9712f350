/*
errors.go - Error kinds for the payroll engine

PURPOSE:
  Every failure the engine reports is one of a small set of kinds. Callers
  branch with errors.Is on the sentinels; structured errors carry context
  and still match their sentinel.

ERROR KINDS:
  ErrRuleNotFound   no rule for a month that is not the current month
  ErrRuleLocked     edit attempted outside the edit window
  ErrInvalidRate    negative or non-finite rate
  ErrNoInstructors  empty roster at calculation time
  ErrStoreFailure   any persistence error, wrapped as *StoreError
  ErrInvalidMonth   malformed month key at the boundary

PROPAGATION:
  The engine never retries and never recovers silently. Every error is
  scoped to the operation that produced it.
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
	ErrRuleNotFound  = errors.New("payroll rule not found")
	ErrRuleLocked    = errors.New("payroll rule is not editable")
	ErrInvalidRate   = errors.New("invalid rate")
	ErrNoInstructors = errors.New("no instructors on the roster")
	ErrStoreFailure  = errors.New("store failure")
	ErrInvalidMonth  = errors.New("invalid month")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// RuleLockedError explains why a month rejected an edit.
type RuleLockedError struct {
	Month  Month
	Reason string // "locked" or "outside edit window"
}

func (e *RuleLockedError) Error() string {
	return fmt.Sprintf("rule for %s is not editable: %s", e.Month, e.Reason)
}

func (e *RuleLockedError) Unwrap() error { return ErrRuleLocked }

// InvalidRateError names the offending field.
type InvalidRateError struct {
	Field string
	Value float64
}

func (e *InvalidRateError) Error() string {
	return fmt.Sprintf("invalid rate %s=%v: must be finite and >= 0", e.Field, e.Value)
}

func (e *InvalidRateError) Unwrap() error { return ErrInvalidRate }

// StoreError wraps an error returned by a store. It matches ErrStoreFailure
// and unwraps to the underlying cause.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store failure during %s: %v", e.Op, e.Err)
}

func (e *StoreError) Is(target error) bool { return target == ErrStoreFailure }
func (e *StoreError) Unwrap() error        { return e.Err }

func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

func ruleNotFound(month Month) error {
	return fmt.Errorf("%w: %s", ErrRuleNotFound, month)
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to caller input or state.
func IsClientError(err error) bool {
	return errors.Is(err, ErrRuleLocked) ||
		errors.Is(err, ErrInvalidRate) ||
		errors.Is(err, ErrInvalidMonth) ||
		errors.Is(err, ErrNoInstructors)
}

// IsNotFound returns true if the error indicates a missing rule.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRuleNotFound)
}
