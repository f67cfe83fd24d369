package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationError_SingleField(t *testing.T) {
	t.Parallel()

	err := NewValidationError("quote", "required")

	if got := err.Error(); got != "validation: quote: required" {
		t.Fatalf("unexpected Error(): %q", got)
	}
	if !errors.Is(err, ErrValidation) {
		t.Fatal("errors.Is(err, ErrValidation) = false")
	}
}

func TestValidationError_MultipleFields(t *testing.T) {
	t.Parallel()

	err := NewValidationErrors([]FieldError{
		{Field: "quote", Message: "required"},
		{Field: "limit", Message: "must be positive"},
	})

	if got := err.Error(); got != "validation: 2 errors" {
		t.Fatalf("unexpected Error(): %q", got)
	}
	if !errors.Is(err, ErrValidation) {
		t.Fatal("errors.Is(err, ErrValidation) = false")
	}
	if len(err.Errors) != 2 {
		t.Fatalf("expected 2 field errors, got %d", len(err.Errors))
	}
}

func TestValidationError_WrappedStillMatches(t *testing.T) {
	t.Parallel()

	var err error = NewValidationError("quote", "too long")
	wrapped := fmt.Errorf("spell: %w", err)

	if !errors.Is(wrapped, ErrValidation) {
		t.Fatal("wrapped validation error lost ErrValidation")
	}

	var ve *ValidationError
	if !errors.As(wrapped, &ve) {
		t.Fatal("errors.As failed on wrapped validation error")
	}
	if ve.Errors[0].Field != "quote" {
		t.Fatalf("unexpected field: %q", ve.Errors[0].Field)
	}
}

func TestSentinels_AreDistinct(t *testing.T) {
	t.Parallel()

	sentinels := []error{
		ErrNotFound, ErrAlreadyExists, ErrValidation, ErrUnauthorized, ErrForbidden,
		ErrCatalogAuth, ErrRateLimited, ErrUpstream, ErrNoResolution,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j && errors.Is(a, b) {
				t.Errorf("%v unexpectedly matches %v", a, b)
			}
		}
	}
}
