package recordkit

import (
	"errors"
	"fmt"
	"strings"

	"github.com/syssam/recordkit/dialect/sql/sqlgraph"
)

// Standard sentinel errors for common operations.
var (
	// ErrNotFound is returned when a load by key matches no row.
	ErrNotFound = errors.New("recordkit: record not found")

	// ErrAbort is returned by a PreDelete hook to skip the delete.
	ErrAbort = errors.New("recordkit: operation aborted")

	// ErrInvalidCall is returned when an accessor is called with the wrong
	// number of arguments.
	ErrInvalidCall = errors.New("recordkit: invalid call")

	// ErrTruncateNotConfirmed is returned by Truncate without confirmation.
	ErrTruncateNotConfirmed = errors.New("recordkit: truncate requires Confirm{Confirm: true}")

	// ErrRecursionLimit is matched by every RecursionLimitError.
	ErrRecursionLimit = errors.New("recordkit: maximum link recursion depth reached")
)

// NotFoundError represents an error when a load by key matches no row.
// The record is reset to its defaults before the error is returned.
type NotFoundError struct {
	label string
	keys  []any
}

// Error returns the error string.
func (e *NotFoundError) Error() string {
	if len(e.keys) > 0 {
		return fmt.Sprintf("recordkit: %s not found (keys=%v)", e.label, e.keys)
	}
	return fmt.Sprintf("recordkit: %s not found", e.label)
}

// Is reports whether the target error matches NotFoundError.
// This allows errors.Is(notFoundErr, ErrNotFound) to return true.
func (e *NotFoundError) Is(err error) bool {
	return err == ErrNotFound
}

// Label returns the record type name.
func (e *NotFoundError) Label() string {
	return e.label
}

// Keys returns the key values that were searched for.
func (e *NotFoundError) Keys() []any {
	return e.keys
}

// NewNotFoundError returns a new NotFoundError for the given record type.
func NewNotFoundError(label string, keys ...any) *NotFoundError {
	return &NotFoundError{label: label, keys: keys}
}

// IsNotFound returns true if the error is a NotFoundError.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *NotFoundError
	return errors.As(err, &e) || errors.Is(err, ErrNotFound)
}

// ConfigurationError represents an invalid record type declaration. It is
// returned when the type is built and makes the type unusable.
type ConfigurationError struct {
	Type string // Record type name
	Err  error  // Underlying error
}

// Error returns the error string.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("recordkit: invalid schema %q: %v", e.Type, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// NewConfigurationError returns a new ConfigurationError.
func NewConfigurationError(typ string, err error) *ConfigurationError {
	return &ConfigurationError{Type: typ, Err: err}
}

// IsConfigurationError returns true if the error is a ConfigurationError.
func IsConfigurationError(err error) bool {
	if err == nil {
		return false
	}
	var e *ConfigurationError
	return errors.As(err, &e)
}

// ValidationError represents a rejected field value. Stored state is left
// unchanged when it is returned.
type ValidationError struct {
	Name string // Field name
	Err  error  // Underlying validation error
}

// Error returns the error string.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("recordkit: validator failed for field %q: %s", e.Name, e.Err)
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError returns a new ValidationError for the given field.
func NewValidationError(name string, err error) *ValidationError {
	return &ValidationError{Name: name, Err: err}
}

// IsValidationError returns true if the error is a ValidationError.
func IsValidationError(err error) bool {
	if err == nil {
		return false
	}
	var e *ValidationError
	return errors.As(err, &e)
}

// QueryExecutionError is returned when the store rejects a statement.
type QueryExecutionError struct {
	SQL        string // Failed statement
	Err        error  // Store error
	Constraint string // Violated constraint kind, if any: unique, foreign_key or check
}

// Error returns the error string.
func (e *QueryExecutionError) Error() string {
	return fmt.Sprintf("recordkit: query failed: %v\nfailed query: %s", e.Err, e.SQL)
}

// Unwrap returns the underlying error.
func (e *QueryExecutionError) Unwrap() error {
	return e.Err
}

// NewQueryExecutionError returns a new QueryExecutionError, classifying
// constraint violations reported by the driver.
func NewQueryExecutionError(query string, err error) *QueryExecutionError {
	return &QueryExecutionError{SQL: query, Err: err, Constraint: sqlgraph.Classify(err)}
}

// IsQueryExecutionError returns true if the error is a QueryExecutionError.
func IsQueryExecutionError(err error) bool {
	if err == nil {
		return false
	}
	var e *QueryExecutionError
	return errors.As(err, &e)
}

// IsConstraintError returns true if the error is a statement failure caused
// by a constraint violation.
func IsConstraintError(err error) bool {
	var e *QueryExecutionError
	return errors.As(err, &e) && e.Constraint != ""
}

// RecursionLimitError is returned when link resolution goes deeper than
// the configured maximum.
type RecursionLimitError struct {
	Link string // Link being resolved
	Max  int    // Configured maximum
}

// Error returns the error string.
func (e *RecursionLimitError) Error() string {
	return fmt.Sprintf("recordkit: maximum link recursion depth %d reached resolving %q", e.Max, e.Link)
}

// Is reports whether the target error matches RecursionLimitError.
func (e *RecursionLimitError) Is(err error) bool {
	return err == ErrRecursionLimit
}

// IsRecursionLimit returns true if the error is a RecursionLimitError.
func IsRecursionLimit(err error) bool {
	return errors.Is(err, ErrRecursionLimit)
}

// UnknownFieldError is returned when a name matches no alias, field, link
// or foreign field.
type UnknownFieldError struct {
	Type string // Record type name
	Name string // Requested name
}

// Error returns the error string.
func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("recordkit: %s: invalid field name %q", e.Type, e.Name)
}

// NewUnknownFieldError returns a new UnknownFieldError.
func NewUnknownFieldError(typ, name string) *UnknownFieldError {
	return &UnknownFieldError{Type: typ, Name: name}
}

// IsUnknownField returns true if the error is an UnknownFieldError.
func IsUnknownField(err error) bool {
	if err == nil {
		return false
	}
	var e *UnknownFieldError
	return errors.As(err, &e)
}

// AggregateError represents multiple errors collected during an operation.
type AggregateError struct {
	Errors []error
}

// Error returns the error string.
func (e *AggregateError) Error() string {
	if len(e.Errors) == 0 {
		return "recordkit: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	sb.WriteString("recordkit: multiple errors:")
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "\n  [%d] %v", i+1, err)
	}
	return sb.String()
}

// Unwrap returns the collected errors.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// NewAggregateError returns a new AggregateError if there are errors,
// otherwise returns nil.
func NewAggregateError(errs ...error) error {
	var filtered []error
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &AggregateError{Errors: filtered}
}
