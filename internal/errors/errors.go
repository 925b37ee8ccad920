// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrNonConvergence    = errors.New("solver did not converge")
	ErrPriceUnattainable = errors.New("target price outside achievable range")
	ErrInconsistentLeg   = errors.New("inconsistent leg state")
	ErrDomainViolation   = errors.New("invalid structure transition")
	ErrStructureNotFound = errors.New("structure not found")
	ErrDatabaseError     = errors.New("database error")
	ErrMarketData        = errors.New("market data unavailable")
	ErrConfigInvalid     = errors.New("invalid configuration")
)

// InputError reports a rejected input value at the engine boundary.
// Invalid inputs are never silently clamped to a default.
type InputError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid input: %s (%v): %s", e.Field, e.Value, e.Message)
}

func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}

// NewInputError creates a new InputError.
func NewInputError(field string, value interface{}, message string) *InputError {
	return &InputError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// ConvergenceError reports that an iterative solver exhausted its
// iteration budget without meeting tolerance.
type ConvergenceError struct {
	Solver     string
	Iterations int
	LastValue  float64
	LastError  float64
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("%s did not converge after %d iterations (last value %.6f, error %.6f)",
		e.Solver, e.Iterations, e.LastValue, e.LastError)
}

func (e *ConvergenceError) Unwrap() error {
	return ErrNonConvergence
}

// NewConvergenceError creates a new ConvergenceError.
func NewConvergenceError(solver string, iterations int, lastValue, lastError float64) *ConvergenceError {
	return &ConvergenceError{
		Solver:     solver,
		Iterations: iterations,
		LastValue:  lastValue,
		LastError:  lastError,
	}
}

// TransitionError reports a rejected structure lifecycle transition,
// such as closing an already-closed structure.
type TransitionError struct {
	StructureID int64
	From        string
	Action      string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s structure %d in status %s", e.Action, e.StructureID, e.From)
}

func (e *TransitionError) Unwrap() error {
	return ErrDomainViolation
}

// NewTransitionError creates a new TransitionError.
func NewTransitionError(structureID int64, from, action string) *TransitionError {
	return &TransitionError{
		StructureID: structureID,
		From:        from,
		Action:      action,
	}
}

// DataError represents a storage-related error.
type DataError struct {
	Entity  string
	Message string
	Err     error
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("data error [%s]: %s: %v", e.Entity, e.Message, e.Err)
	}
	return fmt.Sprintf("data error [%s]: %s", e.Entity, e.Message)
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// NewDataError creates a new DataError.
func NewDataError(entity, message string, err error) *DataError {
	return &DataError{
		Entity:  entity,
		Message: message,
		Err:     err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
