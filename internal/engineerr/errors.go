// Package engineerr defines the error taxonomy shared by the registry, the
// engine and every operation. Each typed error unwraps to one of three
// kinds so callers and the embedding boundary can classify failures with
// errors.Is without knowing the concrete type.
package engineerr

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/specialistvlad/opgrid/internal/layout"
)

var (
	// ErrConfiguration marks unknown names, conflicting declarations and
	// malformed operation nodes.
	ErrConfiguration = errors.New("configuration error")
	// ErrValidation marks bad runtime inputs: sizes, probabilities,
	// non-finite values, zero divisors.
	ErrValidation = errors.New("validation error")
	// ErrIO marks file and process failures.
	ErrIO = errors.New("i/o error")
)

// kindError is the plain form used by the f-style constructors.
type kindError struct {
	kind error
	msg  string
	err  error
}

func (e *kindError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.kind, e.msg, e.err)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.msg)
}

func (e *kindError) Unwrap() []error {
	if e.err != nil {
		return []error{e.kind, e.err}
	}
	return []error{e.kind}
}

// Configf returns a configuration error with a formatted message.
func Configf(format string, args ...any) error {
	return &kindError{kind: ErrConfiguration, msg: fmt.Sprintf(format, args...)}
}

// Validationf returns a validation error with a formatted message.
func Validationf(format string, args ...any) error {
	return &kindError{kind: ErrValidation, msg: fmt.Sprintf(format, args...)}
}

// IO wraps an underlying I/O failure.
func IO(err error, format string, args ...any) error {
	return &kindError{kind: ErrIO, msg: fmt.Sprintf(format, args...), err: err}
}

// UnknownOperationError is returned by dispatch for a name absent from the
// operation map.
type UnknownOperationError struct {
	Name      string
	Available []string
}

func (e *UnknownOperationError) Error() string {
	return fmt.Sprintf("operation %q not found; available operations: %s", e.Name, listNames(e.Available))
}

func (e *UnknownOperationError) Unwrap() error { return ErrConfiguration }

// UnknownArgumentError is returned by any registry accessor called on a
// name that is not registered under the accessor's category. Others holds
// the names registered under every other category.
type UnknownArgumentError struct {
	Name      string
	Category  string
	Available []string
	Others    []string
}

func (e *UnknownArgumentError) Error() string {
	msg := fmt.Sprintf("%s argument %q not found; registered %s arguments: %s", e.Category, e.Name, e.Category, listNames(e.Available))
	if len(e.Others) > 0 {
		msg += "; other registered arguments: " + listNames(e.Others)
	}
	return msg
}

func (e *UnknownArgumentError) Unwrap() error { return ErrConfiguration }

// DuplicateArgumentError is returned when a name is registered again under
// a different layout.
type DuplicateArgumentError struct {
	Name      string
	Existing  layout.Layout
	Requested layout.Layout
}

func (e *DuplicateArgumentError) Error() string {
	return fmt.Sprintf("argument %q already registered as %s, cannot register as %s", e.Name, e.Existing, e.Requested)
}

func (e *DuplicateArgumentError) Unwrap() error { return ErrConfiguration }

// LayoutMismatchError is returned when a caller addresses an argument with
// a layout other than the one it was registered with.
type LayoutMismatchError struct {
	Name      string
	Actual    layout.Layout
	Requested layout.Layout
}

func (e *LayoutMismatchError) Error() string {
	return fmt.Sprintf("argument %q has layout %s, but %s was requested", e.Name, e.Actual, e.Requested)
}

func (e *LayoutMismatchError) Unwrap() error { return ErrConfiguration }

// SizeMismatchError is returned when data crossing the boundary does not
// match the local length of the argument.
type SizeMismatchError struct {
	Argument string
	Expected int
	Got      int
}

func (e *SizeMismatchError) Error() string {
	return fmt.Sprintf("size mismatch for argument %q: expected %d values, got %d", e.Argument, e.Expected, e.Got)
}

func (e *SizeMismatchError) Unwrap() error { return ErrValidation }

// SharedValueLengthMismatchError is returned by a scalar export whose stored
// length can neither be passed through nor broadcast.
type SharedValueLengthMismatchError struct {
	Argument string
	Stored   int
	Expected int
}

func (e *SharedValueLengthMismatchError) Error() string {
	return fmt.Sprintf("shared value %q holds %d values but %d were requested", e.Argument, e.Stored, e.Expected)
}

func (e *SharedValueLengthMismatchError) Unwrap() error { return ErrValidation }

// DivisionByZeroError is returned before a computation would divide by zero.
type DivisionByZeroError struct {
	Context string
}

func (e *DivisionByZeroError) Error() string {
	return fmt.Sprintf("division by zero: %s", e.Context)
}

func (e *DivisionByZeroError) Unwrap() error { return ErrValidation }

// listNames renders a sorted copy of names for messages.
func listNames(names []string) string {
	if len(names) == 0 {
		return "(none)"
	}
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	return "[" + strings.Join(sorted, ", ") + "]"
}
