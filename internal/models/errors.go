// Wayfinder - Professional Resource Navigation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package models

import (
	"errors"
	"fmt"
)

// Error kinds shared by every component. Match them with errors.Is.
var (
	// ErrConfig reports invalid configuration: weights that do not sum to 1,
	// a malformed resource graph, an out-of-range split fraction.
	ErrConfig = errors.New("configuration error")

	// ErrValidation reports a rejected input record.
	ErrValidation = errors.New("validation error")

	// ErrInsufficientData reports that training or evaluation cannot proceed
	// with the data available. Callers fall back to rule-based ranking.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrState reports use of a component before it is ready, such as
	// predicting with an untrained model.
	ErrState = errors.New("invalid state")

	// ErrStorage reports a persistence failure.
	ErrStorage = errors.New("storage error")

	// ErrConflict reports a write that would overwrite write-once data.
	ErrConflict = errors.New("conflict")

	// ErrNotFound reports a lookup with no matching record.
	ErrNotFound = errors.New("not found")
)

// Error carries an error kind, the operation that failed and the cause.
type Error struct {
	Kind error
	Op   string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	case e.Err != nil:
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	default:
		return e.Kind.Error()
	}
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Wrap returns err tagged with kind. A nil err yields nil.
func Wrap(kind error, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf builds a tagged error from a format string.
func Errorf(kind error, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// ConfigError is shorthand for Errorf(ErrConfig, ...).
func ConfigError(op, format string, args ...any) error {
	return Errorf(ErrConfig, op, format, args...)
}

// ValidationError is shorthand for Errorf(ErrValidation, ...).
func ValidationError(op, format string, args ...any) error {
	return Errorf(ErrValidation, op, format, args...)
}

// InsufficientDataError is shorthand for Errorf(ErrInsufficientData, ...).
func InsufficientDataError(op, format string, args ...any) error {
	return Errorf(ErrInsufficientData, op, format, args...)
}

// StateError is shorthand for Errorf(ErrState, ...).
func StateError(op, format string, args ...any) error {
	return Errorf(ErrState, op, format, args...)
}

// StorageError wraps a persistence failure.
func StorageError(op string, err error) error {
	return Wrap(ErrStorage, op, err)
}

// NotFoundError is shorthand for Errorf(ErrNotFound, ...).
func NotFoundError(op, format string, args ...any) error {
	return Errorf(ErrNotFound, op, format, args...)
}

// KindOf returns the error kind carried by err, or nil when err is untagged.
func KindOf(err error) error {
	for _, kind := range []error{ErrConfig, ErrValidation, ErrInsufficientData, ErrState, ErrStorage, ErrConflict, ErrNotFound} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
