// Package service provides business logic for the application.
package service

import (
	"errors"
	"strings"

	"github.com/folio/folio/internal/model"
)

// Service errors.
var (
	ErrProjectNotFound    = errors.New("project not found")
	ErrAlreadyDeleted     = errors.New("project is already deleted")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrEmailTaken         = errors.New("email already registered")
)

// ValidationError carries every rejected field of one request.
type ValidationError struct {
	Errors []model.FieldError

	// sentinels are the conflict errors recorded alongside a field.
	sentinels []error
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Unwrap exposes the conflict sentinels carried by a duplicate-account rejection.
func (e *ValidationError) Unwrap() []error {
	return e.sentinels
}

func (e *ValidationError) add(field, message string, value any) {
	e.Errors = append(e.Errors, model.FieldError{Field: field, Message: message, Value: value})
}

// addConflict records a field rejected because it clashes with stored data.
func (e *ValidationError) addConflict(field, message string, value any, sentinel error) {
	e.add(field, message, value)
	e.sentinels = append(e.sentinels, sentinel)
}

func (e *ValidationError) errOrNil() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}
