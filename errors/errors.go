/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	// ErrNotFound is returned when a backend has no row for the requested key
	ErrNotFound = errors.New("entity not found")

	// ErrEntityNotFound is returned when no client binding is registered for an entity name
	ErrEntityNotFound = errors.New("entity not registered")

	// ErrKeyMismatch is returned when a key path does not line up with the entity's key fields
	ErrKeyMismatch = errors.New("key path does not match key fields")

	// ErrInvalidShape is returned when a record shape cannot be reconciled with the entity schema
	ErrInvalidShape = errors.New("invalid record shape")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
)

// Kind classifies where a persistence error originated.
type Kind string

const (
	// KindLocalResolution marks failures raised by this layer before any backend call.
	KindLocalResolution Kind = "local resolution failure"
	// KindBackend marks failures a backend reported in the persistence domain.
	KindBackend Kind = "backend failure"
	// KindForeign marks failures raised outside the persistence domain and reclassified.
	KindForeign Kind = "foreign failure, reclassified"
)

// Error is the persistence error domain. Anything that is not an *Error is foreign.
type Error struct {
	Kind    Kind
	Message string
	Cause   error

	// sentinel lets errors.Is match the common sentinels above
	sentinel error
	// foreign is the reclassified error, kept so its chain stays reachable
	foreign error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() []error {
	var errs []error
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	if e.foreign != nil {
		errs = append(errs, e.foreign)
	}
	return errs
}

func (e *Error) Is(target error) bool {
	return e.sentinel != nil && target == e.sentinel
}

// Normalize brings err into the persistence domain. Errors that already carry an
// *Error in their chain are returned as that *Error. Everything else is wrapped
// with KindForeign under the same message and the foreign error's own cause.
// The foreign error stays reachable through errors.Is and errors.As.
func Normalize(err error) *Error {
	if err == nil {
		return nil
	}
	var pe *Error
	if errors.As(err, &pe) {
		return pe
	}
	return &Error{
		Kind:    KindForeign,
		Message: err.Error(),
		Cause:   errors.Unwrap(err),
		foreign: err,
	}
}

// Helper functions for creating errors

// NewEntityNotFoundError reports an entity name with no registered binding
func NewEntityNotFoundError(entity string) *Error {
	return &Error{
		Kind:     KindLocalResolution,
		Message:  fmt.Sprintf("entity %q is not registered", entity),
		sentinel: ErrEntityNotFound,
	}
}

// NewResolutionError reports a resolver failure that did not come from this
// package. It stays local; resolver failures are never reclassified as foreign.
func NewResolutionError(entity string, cause error) *Error {
	var pe *Error
	if errors.As(cause, &pe) {
		return pe
	}
	return &Error{
		Kind:     KindLocalResolution,
		Message:  fmt.Sprintf("resolve entity %q: %v", entity, cause),
		Cause:    cause,
		sentinel: ErrEntityNotFound,
	}
}

// NewKeyMismatchError reports a key path whose length differs from the key field list
func NewKeyMismatchError(entity string, keyFields []string, got int) *Error {
	return &Error{
		Kind:     KindLocalResolution,
		Message:  fmt.Sprintf("entity %q expects %d key value(s) for %v, got %d", entity, len(keyFields), keyFields, got),
		sentinel: ErrKeyMismatch,
	}
}

// NewInvalidShapeError reports a shape that cannot be used against an entity
func NewInvalidShapeError(entity, message string) *Error {
	return &Error{
		Kind:     KindLocalResolution,
		Message:  fmt.Sprintf("entity %q: %s", entity, message),
		sentinel: ErrInvalidShape,
	}
}

// NewValidationError creates a local validation error for a named field
func NewValidationError(field, message string) *Error {
	msg := fmt.Sprintf("validation failed: %s", message)
	if field != "" {
		msg = fmt.Sprintf("validation failed for field %q: %s", field, message)
	}
	return &Error{
		Kind:     KindLocalResolution,
		Message:  msg,
		sentinel: ErrInvalidInput,
	}
}

// NewRowNotFoundError is what backends return from a key lookup with no matching row
func NewRowNotFoundError(entity string, key any) *Error {
	return &Error{
		Kind:     KindBackend,
		Message:  fmt.Sprintf("%s with key %v not found", entity, key),
		sentinel: ErrNotFound,
	}
}

// NewBackendError creates an error in the persistence domain on behalf of a backend
func NewBackendError(message string, cause error) *Error {
	return &Error{
		Kind:    KindBackend,
		Message: message,
		Cause:   cause,
	}
}

// IsNotFound checks if an error is a missing-row error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsEntityNotFound checks if an error is an unknown-entity error
func IsEntityNotFound(err error) bool {
	return errors.Is(err, ErrEntityNotFound)
}

// IsKeyMismatch checks if an error is a key path mismatch
func IsKeyMismatch(err error) bool {
	return errors.Is(err, ErrKeyMismatch)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsLocal reports whether err was raised by this layer before reaching a backend
func IsLocal(err error) bool {
	return hasKind(err, KindLocalResolution)
}

// IsBackend reports whether err is a persistence error raised by a backend
func IsBackend(err error) bool {
	return hasKind(err, KindBackend)
}

// IsForeign reports whether err was reclassified from outside the persistence domain
func IsForeign(err error) bool {
	return hasKind(err, KindForeign)
}

func hasKind(err error, kind Kind) bool {
	var pe *Error
	if !errors.As(err, &pe) {
		return false
	}
	return pe.Kind == kind
}
