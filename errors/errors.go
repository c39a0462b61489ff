// Package errors provides error handling for mirror.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - Hints and details for users
//
// Usage:
//
//	// Create new error
//	err := errors.New("something went wrong")
//
//	// Wrap with context
//	if err := doSomething(); err != nil {
//	    return errors.Wrap(err, "failed to do something")
//	}
//
//	// Classify a build failure
//	return errors.Mark(errors.Newf("project %s has no name", path), errors.ErrStructural)
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New           = crdb.New
	Newf          = crdb.Newf
	Wrap          = crdb.Wrap
	Wrapf         = crdb.Wrapf
	WithStack     = crdb.WithStack
	WithMessage   = crdb.WithMessage
	WithMessagef  = crdb.WithMessagef
	Mark          = crdb.Mark
	CombineErrors = crdb.CombineErrors
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is                      = crdb.Is
	IsAny                   = crdb.IsAny
	As                      = crdb.As
	Unwrap                  = crdb.Unwrap
	UnwrapAll               = crdb.UnwrapAll
	GetAllHints             = crdb.GetAllHints
	FlattenHints            = crdb.FlattenHints
	GetReportableStackTrace = crdb.GetReportableStackTrace
)

// Assertions. An assertion failure marks a condition the generator treats as unreachable.
var (
	AssertionFailedf   = crdb.AssertionFailedf
	IsAssertionFailure = crdb.IsAssertionFailure
)

// Build failure taxonomy. Errors returned by the pipeline are marked with one of
// these so callers can classify them with errors.Is while keeping the original message.
var (
	// ErrStructural indicates a malformed solution or project description
	ErrStructural = New("structural error")

	// ErrCyclicDependency indicates a cycle in the inheritance or project graph
	ErrCyclicDependency = New("cyclic dependency")

	// ErrIO indicates a file could not be opened, read or written
	ErrIO = New("i/o error")

	// ErrParser indicates the header parser reported a failure
	ErrParser = New("parser error")
)

// Structuralf creates a structural error with a formatted message
func Structuralf(format string, args ...interface{}) error {
	return Mark(Newf(format, args...), ErrStructural)
}

// WrapIO wraps an I/O failure on path and marks it as ErrIO
func WrapIO(err error, path string) error {
	if err == nil {
		return nil
	}
	return Mark(Wrapf(err, "%s", path), ErrIO)
}

// IsStructural checks if an error is or wraps ErrStructural
func IsStructural(err error) bool {
	return err != nil && Is(err, ErrStructural)
}

// IsCyclic checks if an error is or wraps ErrCyclicDependency
func IsCyclic(err error) bool {
	return err != nil && Is(err, ErrCyclicDependency)
}
