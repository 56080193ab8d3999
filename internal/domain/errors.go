// Package domain defines core types, interfaces, and errors for the
// BigQuery semantic metadata store and query compiler.
package domain

import "fmt"

// NotFoundError indicates a resource was not found.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// ValidationError indicates invalid input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ConflictError indicates a conflict (e.g., duplicate resource).
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// UnknownFieldError indicates a query referenced a column or metric name
// that does not exist in the dataset's metadata. Always fatal to the request.
type UnknownFieldError struct {
	Message string
}

func (e *UnknownFieldError) Error() string { return e.Message }

// UnsupportedOperatorError indicates a filter used an operator the
// compiler does not support.
type UnsupportedOperatorError struct {
	Message string
}

func (e *UnsupportedOperatorError) Error() string { return e.Message }

// MissingTemporalColumnError indicates a timeseries request could not
// resolve a temporal column to bucket on.
type MissingTemporalColumnError struct {
	Message string
}

func (e *MissingTemporalColumnError) Error() string { return e.Message }

// ConflictingProjectionError indicates a request supplied both group_by
// and raw columns, which are mutually exclusive projection modes.
type ConflictingProjectionError struct {
	Message string
}

func (e *ConflictingProjectionError) Error() string { return e.Message }

// ExecutionError wraps a warehouse-side failure together with the SQL
// that was attempted, so callers can surface both.
type ExecutionError struct {
	SQL string
	Err error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("query execution failed: %v", e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrConflict creates a ConflictError with a formatted message.
func ErrConflict(format string, args ...interface{}) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// ErrUnknownField creates an UnknownFieldError with a formatted message.
func ErrUnknownField(format string, args ...interface{}) *UnknownFieldError {
	return &UnknownFieldError{Message: fmt.Sprintf(format, args...)}
}

// ErrUnsupportedOperator creates an UnsupportedOperatorError with a formatted message.
func ErrUnsupportedOperator(format string, args ...interface{}) *UnsupportedOperatorError {
	return &UnsupportedOperatorError{Message: fmt.Sprintf(format, args...)}
}

// ErrMissingTemporalColumn creates a MissingTemporalColumnError with a formatted message.
func ErrMissingTemporalColumn(format string, args ...interface{}) *MissingTemporalColumnError {
	return &MissingTemporalColumnError{Message: fmt.Sprintf(format, args...)}
}

// ErrConflictingProjection creates a ConflictingProjectionError with a formatted message.
func ErrConflictingProjection(format string, args ...interface{}) *ConflictingProjectionError {
	return &ConflictingProjectionError{Message: fmt.Sprintf(format, args...)}
}
