// Package errormodel translates raised failures into serializable error payloads.
//
// Payloads form a closed set (ApplicationError, NotFoundError, ConflictError,
// ValidationError). Each stamps its timestamp from the clock when it is built,
// not when the failure was raised.
package errormodel

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"time"

	"github.com/felixgeelhaar/venues/internal/shared/domain"
	"github.com/felixgeelhaar/venues/pkg/clock"
	"github.com/google/uuid"
)

// Fixed per-kind messages.
const (
	ApplicationErrorMessage = "Unexpected Error"
	NotFoundErrorMessage    = "Resource Not Found"
	ConflictErrorMessage    = "Concurrency Check Failed"
	ValidationErrorMessage  = "Validation Error"
)

// Kind identifies a payload variant.
type Kind string

const (
	KindApplication Kind = "application"
	KindNotFound    Kind = "not_found"
	KindConflict    Kind = "conflict"
	KindValidation  Kind = "validation"
)

// Model is an error payload. The set of implementations is closed.
type Model interface {
	Kind() Kind
	Status() int
	sealed()
}

// Base holds the fields shared by every payload.
type Base struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

func newBase(ctx context.Context, message string) Base {
	return Base{Message: message, Timestamp: clock.Now(ctx)}
}

func (Base) sealed() {}

// ApplicationError describes an unanticipated failure.
type ApplicationError struct {
	Base
	ErrorType string `json:"errorType"`
	Exception string `json:"exception"`
}

func (ApplicationError) Kind() Kind  { return KindApplication }
func (ApplicationError) Status() int { return http.StatusInternalServerError }

// NotFoundError describes a missing resource.
type NotFoundError struct {
	Base
	ResourceType string    `json:"resourceType"`
	ID           uuid.UUID `json:"id"`
}

func (NotFoundError) Kind() Kind  { return KindNotFound }
func (NotFoundError) Status() int { return http.StatusNotFound }

// ConflictError describes a stale entity tag.
type ConflictError struct {
	Base
	ResourceType string    `json:"resourceType"`
	ID           uuid.UUID `json:"id"`
	Requested    string    `json:"requested"`
	Current      string    `json:"current"`
}

func (ConflictError) Kind() Kind  { return KindConflict }
func (ConflictError) Status() int { return http.StatusPreconditionFailed }

// ValidationError groups failed rules by field.
type ValidationError struct {
	Base
	Errors FieldErrors `json:"errors"`
}

func (ValidationError) Kind() Kind  { return KindValidation }
func (ValidationError) Status() int { return http.StatusBadRequest }

// FromNotFound builds a NotFoundError payload.
func FromNotFound(ctx context.Context, resourceType string, id uuid.UUID) NotFoundError {
	return NotFoundError{
		Base:         newBase(ctx, NotFoundErrorMessage),
		ResourceType: resourceType,
		ID:           id,
	}
}

// FromConflict builds a ConflictError payload.
func FromConflict(ctx context.Context, resourceType string, id uuid.UUID, requested, current string) ConflictError {
	return ConflictError{
		Base:         newBase(ctx, ConflictErrorMessage),
		ResourceType: resourceType,
		ID:           id,
		Requested:    requested,
		Current:      current,
	}
}

// FromValidation builds a ValidationError payload, grouping failures by field.
func FromValidation(ctx context.Context, failures []domain.FieldError) ValidationError {
	return ValidationError{
		Base:   newBase(ctx, ValidationErrorMessage),
		Errors: GroupFieldErrors(failures),
	}
}

// FromGeneric builds an ApplicationError payload from any error.
// Only the type name and message are exposed.
func FromGeneric(ctx context.Context, err error) ApplicationError {
	var message string
	if err != nil {
		message = err.Error()
	}
	return ApplicationError{
		Base:      newBase(ctx, ApplicationErrorMessage),
		ErrorType: typeName(err),
		Exception: message,
	}
}

// Translate maps a raised failure onto its payload.
func Translate(ctx context.Context, err error) Model {
	var (
		notFound   *domain.NotFoundError
		conflict   *domain.ConflictError
		validation *domain.ValidationError
	)
	switch {
	case errors.As(err, &validation):
		return FromValidation(ctx, validation.Failures)
	case errors.As(err, &notFound):
		return FromNotFound(ctx, notFound.ResourceType, notFound.ID)
	case errors.As(err, &conflict):
		return FromConflict(ctx, conflict.ResourceType, conflict.ID, conflict.Provided, conflict.Current)
	default:
		return FromGeneric(ctx, err)
	}
}

// typeName returns the bare type name of the innermost wrapped error.
func typeName(err error) string {
	if err == nil {
		return "nil"
	}
	for {
		next := errors.Unwrap(err)
		if next == nil {
			break
		}
		err = next
	}
	t := reflect.TypeOf(err)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return t.String()
	}
	return t.Name()
}
