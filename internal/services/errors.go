package services

import (
	"errors"
	"fmt"
)

var (
	// ErrForbidden is returned when the caller does not own the objective.
	ErrForbidden = errors.New("objective belongs to another user")
	// ErrLocked is returned when progress is logged after the due date.
	ErrLocked = errors.New("objective is locked: due date has passed")
)

// ValidationError reports rejected input. Nothing is persisted when it is
// returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
