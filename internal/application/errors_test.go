package application

import (
	"errors"
	"fmt"
	"testing"

	"github.com/example/dropplan/internal/persistence"
	"github.com/example/dropplan/internal/planning"
)

func TestValidationError(t *testing.T) {
	t.Parallel()

	var nilErr *ValidationError
	if nilErr.Error() != "" || nilErr.HasErrors() {
		t.Fatalf("expected nil validation error to be empty")
	}

	v := &ValidationError{}
	if v.HasErrors() || v.Error() != "validation failed" {
		t.Fatalf("unexpected empty validation error: %q", v.Error())
	}

	v.add("title", "title is required")
	v.merge(validationError("estimation_hours", "must not be negative"))
	v.merge(nil)
	v.addRule(nil)
	v.addRule(&planning.FieldError{Field: "parent_id", Message: "a Task must have a UserStory parent"})
	v.addRule(errors.New("iteration is closed"))

	expected := map[string]string{
		"title":            "title is required",
		"estimation_hours": "must not be negative",
		"parent_id":        "a Task must have a UserStory parent",
		"request":          "iteration is closed",
	}
	if len(v.FieldErrors) != len(expected) {
		t.Fatalf("unexpected field errors: %#v", v.FieldErrors)
	}
	for field, message := range expected {
		if v.FieldErrors[field] != message {
			t.Fatalf("field %s: expected %q, got %q", field, message, v.FieldErrors[field])
		}
	}
}

func TestConflictErrorMatchesSentinel(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("wrapped: %w", conflictf("user %s already has an open session", "u-1"))
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ConflictError to match ErrConflict")
	}
	if err.Error() != "wrapped: user u-1 already has an open session" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if (&ConflictError{}).Error() != "conflict" {
		t.Fatalf("expected a generic message for an empty conflict")
	}
}

func TestTranslateError(t *testing.T) {
	t.Parallel()

	fieldErr := &planning.FieldError{Field: "end_date", Message: "end_date must not precede start_date"}
	cases := []struct {
		name  string
		in    error
		check func(error) bool
	}{
		{"nil stays nil", nil, func(err error) bool { return err == nil }},
		{"missing rows become not found", fmt.Errorf("get: %w", persistence.ErrNotFound), func(err error) bool { return err == ErrNotFound }},
		{"duplicates become conflicts", persistence.ErrDuplicate, func(err error) bool { return errors.Is(err, ErrConflict) }},
		{"foreign keys become conflicts", persistence.ErrForeignKeyViolation, func(err error) bool { return errors.Is(err, ErrConflict) }},
		{"constraints become validation", persistence.ErrConstraintViolation, func(err error) bool {
			var v *ValidationError
			return errors.As(err, &v) && v.FieldErrors["request"] != ""
		}},
		{"planning rules become validation", fmt.Errorf("move: %w", fieldErr), func(err error) bool {
			var v *ValidationError
			return errors.As(err, &v) && v.FieldErrors["end_date"] == fieldErr.Message
		}},
		{"application kinds pass through", ErrUnauthorized, func(err error) bool { return err == ErrUnauthorized }},
		{"unknown errors pass through", errors.New("disk full"), func(err error) bool { return err.Error() == "disk full" }},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := translateError(tc.in); !tc.check(got) {
				t.Fatalf("unexpected translation: %v", got)
			}
		})
	}
}
