package commands

import (
	"context"
	"fmt"
	"unicode/utf8"

	sharedDomain "github.com/felixgeelhaar/venues/internal/shared/domain"
	"github.com/felixgeelhaar/venues/internal/venues/domain"
	"github.com/google/uuid"
)

// Field names and messages reported in validation failures.
const (
	FieldName = "Name"

	MessageTooShort  = "Minimum length not met"
	MessageTooLong   = "Maximum length exceeded"
	MessageNotUnique = "Must be unique"
)

// validateName checks every rule on a venue name and reports all failures together.
// excludeID leaves the venue being renamed out of the uniqueness check.
func validateName(ctx context.Context, repo domain.Repository, name string, excludeID *uuid.UUID) error {
	var failures []sharedDomain.FieldError

	length := utf8.RuneCountInString(name)
	if length < domain.NameMinLength {
		failures = append(failures, sharedDomain.FieldError{Field: FieldName, Message: MessageTooShort})
	}
	if length > domain.NameMaxLength {
		failures = append(failures, sharedDomain.FieldError{Field: FieldName, Message: MessageTooLong})
	}

	unique, err := repo.IsNameUnique(ctx, name, excludeID)
	if err != nil {
		return fmt.Errorf("check venue name uniqueness: %w", err)
	}
	if !unique {
		failures = append(failures, sharedDomain.FieldError{Field: FieldName, Message: MessageNotUnique})
	}

	if len(failures) > 0 {
		return sharedDomain.NewValidationError(failures...)
	}
	return nil
}
