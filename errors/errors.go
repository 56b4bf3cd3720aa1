// Package errors provides error handling for specdeck.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - Marker-based error classification
//
// Usage:
//
//	// Create new error
//	err := errors.New("spec not found")
//
//	// Wrap with context
//	if err := store.Store(ex); err != nil {
//	    return errors.Wrap(err, "failed to store spec")
//	}
//
//	// Classify with a sentinel
//	return errors.Mark(err, errors.ErrParse)
//
//	// Check errors
//	if errors.Is(err, errors.ErrParse) {
//	    // handle unparsable document
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint   = crdb.WithHint
	WithHintf  = crdb.WithHintf
	WithDetail = crdb.WithDetail
)

// Error inspection
var (
	Is        = crdb.Is
	IsAny     = crdb.IsAny
	As        = crdb.As
	Unwrap    = crdb.Unwrap
	UnwrapAll = crdb.UnwrapAll
	Mark      = crdb.Mark
)

// Multi-error combination
var (
	Join          = crdb.Join
	CombineErrors = crdb.CombineErrors
)

// Sentinel errors forming the ingestion failure taxonomy.
// Attach with errors.Mark() and check with errors.Is(); wrapping preserves
// the classification.
var (
	// ErrParse indicates content unreadable in every candidate format
	ErrParse = New("parse error")

	// ErrValidation indicates structural non-compliance of a parsed document
	ErrValidation = New("validation error")

	// ErrLoad indicates a source could not be read (missing, permission,
	// timeout, empty content)
	ErrLoad = New("load error")

	// ErrStorage indicates a transactional write failure
	ErrStorage = New("storage error")

	// ErrWatch indicates a filesystem-watch subsystem failure
	ErrWatch = New("watch error")

	// ErrNotFound indicates the requested record does not exist
	ErrNotFound = New("not found")
)

// IsParseError checks if an error is or wraps ErrParse
func IsParseError(err error) bool {
	return err != nil && Is(err, ErrParse)
}

// IsLoadError checks if an error is or wraps ErrLoad
func IsLoadError(err error) bool {
	return err != nil && Is(err, ErrLoad)
}

// IsNotFoundError checks if an error is or wraps ErrNotFound
func IsNotFoundError(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}
