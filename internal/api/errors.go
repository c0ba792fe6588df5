package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/askboard/askboard-server/internal/errors"
	"github.com/askboard/askboard-server/internal/http/response"
)

// APIError is a custom error type that implements huma.StatusError.
// It maps domain errors to HTTP responses with consistent structure.
type APIError struct { //nolint:revive // API prefix is intentional for clarity
	status  int
	Code    string `json:"code" doc:"Machine-readable error code"`
	Message string `json:"message" doc:"Human-readable error message"`
	Details any    `json:"details,omitempty" doc:"Additional error details"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int {
	return e.status
}

// ContentType returns the content type for the error response.
func (e *APIError) ContentType(_ string) string {
	return "application/json"
}

func fromDomain(err *domainerrors.Error) *APIError {
	return &APIError{
		status:  err.HTTPStatus(),
		Code:    string(err.Code),
		Message: err.Message,
		Details: err.Details,
	}
}

// RegisterErrorHandler configures huma to use domain errors.
// Call this after creating the huma.API but before serving requests.
func RegisterErrorHandler(logger *slog.Logger) {
	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		for _, err := range errs {
			if mapped := response.FromError(err); mapped != nil {
				return fromDomain(mapped)
			}
		}

		// Request decoding and schema validation failures.
		if status == http.StatusUnprocessableEntity || (status == http.StatusBadRequest && len(errs) > 0) {
			return &APIError{
				status:  http.StatusBadRequest,
				Code:    string(domainerrors.CodeValidation),
				Message: "Invalid request.",
				Details: fieldDetails(errs),
			}
		}

		if status >= http.StatusInternalServerError && logger != nil {
			logger.Error("Unhandled API error",
				"status", status,
				"message", message,
				"error", errors.Join(errs...),
			)
		}

		return &APIError{
			status:  status,
			Code:    string(response.StatusCode(status)),
			Message: message,
		}
	}
}

// fieldDetails flattens huma error details into the same field -> message
// map the validation package produces, or nil when there are none.
func fieldDetails(errs []error) any {
	details := make(map[string]string, len(errs))
	for _, err := range errs {
		var detailer huma.ErrorDetailer
		if !errors.As(err, &detailer) {
			continue
		}
		d := detailer.ErrorDetail()
		field := strings.TrimPrefix(d.Location, "body.")
		if field == "" {
			field = "body"
		}
		details[field] = d.Message
	}
	if len(details) == 0 {
		return nil
	}
	return details
}
