// Package errors defines the error types shared by every moodlab estimator
// and transformer.
//
// All errors produced here carry the "moodlab: " prefix and, through
// cockroachdb/errors, a captured stack trace that %+v formatting reveals.
// Callers interact with them through the standard errors.Is / errors.As
// machinery; the concrete types expose the fields a caller needs to react
// programmatically (expected vs. actual dimensions, the model and method
// of a premature Predict, and so on).
package errors

import (
	"fmt"

	cerrors "github.com/cockroachdb/errors"
)

// prefix is prepended to every error message originating in this module.
const prefix = "moodlab: "

// Sentinel errors for conditions callers commonly branch on with errors.Is.
var (
	// ErrEmptyData indicates an operation received a matrix or column with
	// zero rows.
	ErrEmptyData = cerrors.New("empty data")

	// ErrSingularMatrix indicates a linear solve failed because the system
	// is singular or numerically near-singular.
	ErrSingularMatrix = cerrors.New("singular matrix")

	// ErrNotImplemented marks functionality that is declared but not
	// provided by the receiving type.
	ErrNotImplemented = cerrors.New("not implemented")
)

// DimensionError reports a shape mismatch between what an operation
// expected and what it received.
type DimensionError struct {
	// Op is the operation that detected the mismatch, e.g. "Ridge.Predict".
	Op string
	// Expected and Got are the expected and observed sizes along Axis.
	Expected int
	Got      int
	// Axis is 0 for rows (samples) and 1 for columns (features).
	Axis int
}

// NewDimensionError creates a DimensionError for operation op.
func NewDimensionError(op string, expected, got, axis int) *DimensionError {
	return &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
}

func (e *DimensionError) Error() string {
	axis := "rows"
	if e.Axis == 1 {
		axis = "columns"
	}
	return fmt.Sprintf("%s%s: dimension mismatch on %s: expected %d, got %d",
		prefix, e.Op, axis, e.Expected, e.Got)
}

// NotFittedError is returned when Predict, Transform or Score is called on
// an estimator whose Fit has not completed successfully.
type NotFittedError struct {
	// ModelName is the estimator type, e.g. "SymbolicRegressor".
	ModelName string
	// Method is the call that required fitted state.
	Method string
}

// NewNotFittedError creates a NotFittedError for the named model and method.
func NewNotFittedError(modelName, method string) *NotFittedError {
	return &NotFittedError{ModelName: modelName, Method: method}
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("%s%s.%s: model is not fitted, call Fit first",
		prefix, e.ModelName, e.Method)
}

// ValueError reports an argument whose value (as opposed to shape) is
// invalid for the operation.
type ValueError struct {
	Op      string
	Message string
}

// NewValueError creates a ValueError for operation op.
func NewValueError(op, message string) *ValueError {
	return &ValueError{Op: op, Message: message}
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("%s%s: %s", prefix, e.Op, e.Message)
}

// ValidationError reports a named field or parameter that failed
// validation, retaining the offending value for diagnostics.
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

// NewValidationError creates a ValidationError for the named field.
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: message, Value: value}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%svalidation failed for %s: %s (got %v)",
		prefix, e.Field, e.Message, e.Value)
}

// ModelError wraps a lower-level cause with the operation and a short
// description of what the model was doing when it failed.
type ModelError struct {
	Op      string
	Message string
	Err     error
}

// NewModelError creates a ModelError wrapping cause. cause may be nil.
func NewModelError(op, message string, cause error) *ModelError {
	return &ModelError{Op: op, Message: message, Err: cause}
}

func (e *ModelError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s%s: %s", prefix, e.Op, e.Message)
	}
	return fmt.Sprintf("%s%s: %s: %v", prefix, e.Op, e.Message, e.Err)
}

// Unwrap returns the wrapped cause, making the chain visible to errors.Is
// and errors.As.
func (e *ModelError) Unwrap() error { return e.Err }

// Recover converts a panic inside an estimator method into an error,
// preserving an existing error if the method already failed normally.
// It is meant to be deferred at the top of exported methods:
//
//	func (r *Regressor) Fit(X, y mat.Matrix) (err error) {
//		defer errors.Recover(&err, "Regressor.Fit")
//		...
//	}
//
// Panics carrying an error keep their chain; other panic values are
// stringified. The original error, if any, takes precedence over the
// recovered panic so the first failure is the one reported.
func Recover(err *error, op string) {
	r := recover()
	if r == nil {
		return
	}
	if *err != nil {
		// The method already failed; keep that error and drop the panic
		// raised during unwinding.
		return
	}
	switch v := r.(type) {
	case error:
		*err = NewModelError(op, "panic during execution", v)
	default:
		*err = NewModelError(op, fmt.Sprintf("panic during execution: %v", v), nil)
	}
}

// New returns an error with the given message and a captured stack trace.
func New(msg string) error {
	return cerrors.New(msg)
}

// Newf returns a formatted error with a captured stack trace.
func Newf(format string, args ...interface{}) error {
	return cerrors.Newf(format, args...)
}

// Wrap annotates err with msg, preserving err's chain and stack trace.
// It returns nil when err is nil.
func Wrap(err error, msg string) error {
	return cerrors.Wrap(err, msg)
}

// Wrapf annotates err with a formatted message, preserving err's chain and
// stack trace. It returns nil when err is nil.
func Wrapf(err error, format string, args ...interface{}) error {
	return cerrors.Wrapf(err, format, args...)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return cerrors.Is(err, target)
}

// As finds the first error in err's chain matching target's type.
func As(err error, target interface{}) bool {
	return cerrors.As(err, target)
}
