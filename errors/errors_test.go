/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
	"testing"
)

type quotaError struct {
	cause error
}

func (e *quotaError) Error() string { return "quota exceeded" }
func (e *quotaError) Unwrap() error { return e.cause }

func TestEntityNotFoundError(t *testing.T) {
	err := NewEntityNotFoundError("Employee")

	expected := `entity "Employee" is not registered`
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}

	if !errors.Is(err, ErrEntityNotFound) {
		t.Error("entity not found error should match ErrEntityNotFound")
	}

	if !IsLocal(err) {
		t.Error("entity not found error should be a local resolution failure")
	}

	if IsNotFound(err) {
		t.Error("entity not found must not be confused with a missing row")
	}
}

func TestKeyMismatchError(t *testing.T) {
	err := NewKeyMismatchError("Employee", []string{"id"}, 2)

	expected := `entity "Employee" expects 1 key value(s) for [id], got 2`
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}

	if !IsKeyMismatch(err) || !IsLocal(err) {
		t.Error("key mismatch should be a local ErrKeyMismatch")
	}
}

func TestValidationError(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		message  string
		expected string
	}{
		{
			name:     "with field",
			field:    "email",
			message:  "invalid format",
			expected: `validation failed for field "email": invalid format`,
		},
		{
			name:     "without field",
			field:    "",
			message:  "missing required fields",
			expected: "validation failed: missing required fields",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewValidationError(tt.field, tt.message)

			if err.Error() != tt.expected {
				t.Errorf("Expected error message %q, got %q", tt.expected, err.Error())
			}

			if !IsValidationError(err) {
				t.Error("IsValidationError should return true for ValidationError")
			}
		})
	}
}

func TestRowNotFoundError(t *testing.T) {
	err := NewRowNotFoundError("Employee", "e-42")

	expected := "Employee with key e-42 not found"
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}

	if !IsNotFound(err) || !IsBackend(err) {
		t.Error("row not found should be a backend ErrNotFound")
	}
}

func TestNormalize(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		if Normalize(nil) != nil {
			t.Error("Normalize(nil) should be nil")
		}
	})

	t.Run("foreign error is reclassified", func(t *testing.T) {
		root := errors.New("429 from upstream")
		raw := &quotaError{cause: root}

		got := Normalize(raw)
		if got.Kind != KindForeign {
			t.Errorf("Expected kind %q, got %q", KindForeign, got.Kind)
		}
		if got.Message != "quota exceeded" {
			t.Errorf("Expected message %q, got %q", "quota exceeded", got.Message)
		}
		if !errors.Is(got, root) {
			t.Error("reclassified error should keep the original cause reachable")
		}
		var qe *quotaError
		if !errors.As(got, &qe) {
			t.Error("reclassified error should keep the foreign error reachable")
		}
	})

	t.Run("cause is the foreign error's cause", func(t *testing.T) {
		inner := errors.New("connection reset")
		wrapped := fmt.Errorf("network timeout: %w", inner)

		got := Normalize(wrapped)
		if got.Cause != inner {
			t.Errorf("Expected cause %v, got %v", inner, got.Cause)
		}
		if got.Message != "network timeout: connection reset" {
			t.Errorf("Unexpected message %q", got.Message)
		}
		if !errors.Is(got, wrapped) || !errors.Is(got, inner) {
			t.Error("foreign chain should stay reachable")
		}

		plain := errors.New("quota exceeded")
		got = Normalize(plain)
		if got.Cause != nil {
			t.Errorf("Expected nil cause, got %v", got.Cause)
		}
		if !errors.Is(got, plain) {
			t.Error("plain foreign error should stay reachable")
		}
	})

	t.Run("persistence error passes through", func(t *testing.T) {
		backend := NewBackendError("sheet locked", nil)
		if got := Normalize(backend); got != backend {
			t.Errorf("Expected the same *Error back, got %#v", got)
		}
	})

	t.Run("wrapped persistence error is not re-wrapped", func(t *testing.T) {
		backend := NewRowNotFoundError("Employee", "e-1")
		wrapped := fmt.Errorf("read by key: %w", backend)

		got := Normalize(wrapped)
		if got != backend {
			t.Errorf("Expected the inner *Error, got %#v", got)
		}
		if got.Kind != KindBackend {
			t.Errorf("Expected kind %q, got %q", KindBackend, got.Kind)
		}
	})

	t.Run("reclassified error is stable", func(t *testing.T) {
		once := Normalize(errors.New("network timeout"))
		twice := Normalize(once)
		if once != twice {
			t.Error("normalizing a reclassified error should return it unchanged")
		}
		if !IsForeign(twice) {
			t.Error("kind should stay foreign")
		}
	})
}

func TestErrorWrapping(t *testing.T) {
	original := NewRowNotFoundError("User", "123")
	wrapped := fmt.Errorf("database operation failed: %w", original)

	if !errors.Is(wrapped, ErrNotFound) {
		t.Error("Wrapped not found error should still match ErrNotFound")
	}

	if !IsBackend(wrapped) {
		t.Error("IsBackend should work with wrapped errors")
	}
}

func TestSentinelErrors(t *testing.T) {
	sentinels := []error{
		ErrNotFound,
		ErrEntityNotFound,
		ErrKeyMismatch,
		ErrInvalidShape,
		ErrInvalidInput,
	}

	for i, err1 := range sentinels {
		for j, err2 := range sentinels {
			if i != j && errors.Is(err1, err2) {
				t.Errorf("Sentinel errors should be distinct: %v matches %v", err1, err2)
			}
		}
	}
}

func TestResolutionError(t *testing.T) {
	t.Run("plain resolver failure stays local", func(t *testing.T) {
		cause := errors.New("lookup table offline")
		err := NewResolutionError("Employee", cause)

		if !IsLocal(err) {
			t.Errorf("Expected local resolution kind, got %q", err.Kind)
		}
		if !errors.Is(err, cause) || !IsEntityNotFound(err) {
			t.Error("resolution error should match its cause and ErrEntityNotFound")
		}
	})

	t.Run("persistence error is kept", func(t *testing.T) {
		notFound := NewEntityNotFoundError("Employee")
		if got := NewResolutionError("Employee", notFound); got != notFound {
			t.Errorf("Expected the same *Error back, got %#v", got)
		}
	})
}
