package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/felixgeelhaar/venues/internal/shared/application/errormodel"
	sharedDomain "github.com/felixgeelhaar/venues/internal/shared/domain"
)

// FieldBody keys failures about the request body itself.
const FieldBody = "body"

type panicError struct {
	value any
}

func (e panicError) Error() string {
	return fmt.Sprintf("panic: %v", e.value)
}

// writeFailure answers err with its error payload. Unexpected failures are
// logged; the client only sees their type name and message.
func writeFailure(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	model := errormodel.Translate(r.Context(), err)
	if model.Kind() == errormodel.KindApplication {
		logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
	}
	writeJSON(w, model.Status(), model)
}

// malformedBody reports an undecodable request body as a validation failure.
func malformedBody(err error) error {
	return sharedDomain.NewValidationError(sharedDomain.FieldError{
		Field:   FieldBody,
		Message: "Malformed request body: " + err.Error(),
	})
}
