package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrNotFound matches any NotFoundError via errors.Is.
	ErrNotFound = errors.New("resource not found")

	// ErrConflict matches any ConflictError via errors.Is.
	ErrConflict = errors.New("concurrency check failed")

	// ErrValidation matches any ValidationError via errors.Is.
	ErrValidation = errors.New("validation failed")
)

// NotFoundError is raised when no live resource matches the requested id.
type NotFoundError struct {
	ResourceType string
	ID           uuid.UUID
}

// NewNotFoundError creates a NotFoundError.
func NewNotFoundError(resourceType string, id uuid.UUID) *NotFoundError {
	return &NotFoundError{ResourceType: resourceType, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found with id %q", e.ResourceType, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ConflictError is raised when the caller's entity tag does not match the current one.
type ConflictError struct {
	ResourceType string
	ID           uuid.UUID
	// Current is the entity tag of the stored resource.
	Current string
	// Provided is the entity tag supplied by the caller.
	Provided string
}

// NewConflictError creates a ConflictError.
func NewConflictError(resourceType string, id uuid.UUID, current, provided string) *ConflictError {
	return &ConflictError{
		ResourceType: resourceType,
		ID:           id,
		Current:      current,
		Provided:     provided,
	}
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %q has entity tag %s, request supplied %q", e.ResourceType, e.ID, e.Current, e.Provided)
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// FieldError is a single failed rule on a named field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError carries every failed rule, in the order they were found.
type ValidationError struct {
	Failures []FieldError
}

// NewValidationError creates a ValidationError from the given failures.
func NewValidationError(failures ...FieldError) *ValidationError {
	return &ValidationError{Failures: failures}
}

func (e *ValidationError) Error() string {
	switch len(e.Failures) {
	case 0:
		return ErrValidation.Error()
	case 1:
		return fmt.Sprintf("validation failed on %s: %s", e.Failures[0].Field, e.Failures[0].Message)
	default:
		return fmt.Sprintf("validation failed with %d errors", len(e.Failures))
	}
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
