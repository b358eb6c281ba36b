package application

import (
	"errors"
	"fmt"

	"github.com/example/dropplan/internal/persistence"
	"github.com/example/dropplan/internal/planning"
)

var (
	// ErrUnauthorized is returned when the acting principal lacks permission for an operation.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrConflict is matched by every ConflictError.
	ErrConflict = errors.New("application: conflict")
	// ErrInvalidCredentials is returned when an email/password pair or token does not match.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrAccountDisabled is returned when a deactivated user tries to sign in.
	ErrAccountDisabled = errors.New("application: account disabled")
	// ErrSessionExpired is returned for sessions past their expiry.
	ErrSessionExpired = errors.New("application: session expired")
	// ErrSessionRevoked is returned for sessions that were logged out.
	ErrSessionRevoked = errors.New("application: session revoked")
)

// ConflictError reports a request that clashes with the current state of a resource.
type ConflictError struct {
	Message string
}

// Error implements the error interface.
func (c *ConflictError) Error() string {
	if c == nil || c.Message == "" {
		return "conflict"
	}
	return c.Message
}

// Is makes errors.Is(err, ErrConflict) hold for every ConflictError.
func (c *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

func conflictf(format string, args ...any) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// merge copies entries from another validation error into the receiver.
func (v *ValidationError) merge(other *ValidationError) {
	if other == nil || len(other.FieldErrors) == 0 {
		return
	}
	for field, msg := range other.FieldErrors {
		v.add(field, msg)
	}
}

// addRule records a planning rule violation, if any.
func (v *ValidationError) addRule(err error) {
	if err == nil {
		return
	}
	var fe *planning.FieldError
	if errors.As(err, &fe) {
		v.add(fe.Field, fe.Message)
		return
	}
	v.add("request", err.Error())
}

func validationError(field, message string) *ValidationError {
	v := &ValidationError{}
	v.add(field, message)
	return v
}

// translateError maps persistence sentinels and planning rule violations onto
// application error kinds. Errors that already carry an application kind pass through.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var (
		vErr *ValidationError
		cErr *ConflictError
		fErr *planning.FieldError
	)
	switch {
	case errors.As(err, &vErr), errors.As(err, &cErr):
		return err
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrUnauthorized):
		return err
	case errors.As(err, &fErr):
		return validationError(fErr.Field, fErr.Message)
	case errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		return &ConflictError{Message: "resource already exists"}
	case errors.Is(err, persistence.ErrForeignKeyViolation):
		return &ConflictError{Message: "resource is referenced by other records"}
	case errors.Is(err, persistence.ErrConstraintViolation):
		return validationError("request", "request violates a data constraint")
	}
	return err
}
