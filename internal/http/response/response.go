// Package response renders the JSON envelope shared by every API response
// and maps internal errors onto it.
package response

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	domainerrors "github.com/askboard/askboard-server/internal/errors"
	"github.com/askboard/askboard-server/internal/feed"
	"github.com/askboard/askboard-server/internal/store"
)

// Version is the envelope format version sent as "v".
const Version = 1

// Envelope provides a consistent JSON response structure.
//
//	{"v":1,"success":true,"data":{...}}
//	{"v":1,"success":false,"code":"NOT_FOUND","message":"question not found"}
type Envelope struct {
	V       int    `json:"v"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

// Success wraps data in a success envelope.
func Success(data any) Envelope {
	return Envelope{V: Version, Success: true, Data: data}
}

// Failure builds an error envelope.
func Failure(code, message string, details any) Envelope {
	return Envelope{V: Version, Success: false, Code: code, Message: message, Details: details}
}

// JSON writes an envelope with the given status code.
func JSON(w http.ResponseWriter, status int, env Envelope, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(env); err != nil {
		if logger != nil {
			logger.Error("Failed to encode JSON response", "error", err)
		}
	}
}

// OK writes a successful JSON response (200 OK).
func OK(w http.ResponseWriter, data any, logger *slog.Logger) {
	JSON(w, http.StatusOK, Success(data), logger)
}

// Error writes a domain error with its mapped status code.
func Error(w http.ResponseWriter, err *domainerrors.Error, logger *slog.Logger) {
	JSON(w, err.HTTPStatus(), Failure(string(err.Code), err.Message, err.Details), logger)
}

// TooManyRequests writes a 429 response.
func TooManyRequests(w http.ResponseWriter, message string, logger *slog.Logger) {
	if message == "" {
		message = "Too many requests. Please try again later."
	}
	w.Header().Set("Retry-After", "60")
	Error(w, &domainerrors.Error{Code: domainerrors.CodeRateLimited, Message: message}, logger)
}

// NotFound writes a 404 Not Found response.
func NotFound(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, domainerrors.NotFound(message), logger)
}

// HandleError writes an appropriate HTTP response based on the error type.
// Unknown errors become a generic 500.
func HandleError(w http.ResponseWriter, err error, logger *slog.Logger) {
	if mapped := FromError(err); mapped != nil {
		Error(w, mapped, logger)
		return
	}

	if logger != nil {
		logger.Error("Unhandled error", "error", err)
	}
	Error(w, domainerrors.Internal("internal server error"), logger)
}

// FromError converts any error the services can return into a coded domain
// error. It returns nil when err carries no known classification.
func FromError(err error) *domainerrors.Error {
	if err == nil {
		return nil
	}

	var domainErr *domainerrors.Error
	if errors.As(err, &domainErr) {
		return domainErr
	}

	var storeErr *store.Error
	if errors.As(err, &storeErr) {
		return domainerrors.Wrap(err, StoreCode(storeErr.HTTPCode()), storeErr.Message)
	}

	if errors.Is(err, feed.ErrInvalidFilter) || errors.Is(err, feed.ErrInvalidSort) {
		return domainerrors.Wrap(err, domainerrors.CodeInvalidQuery, err.Error())
	}

	var fetchErr *feed.FetchError
	if errors.As(err, &fetchErr) {
		return domainerrors.FetchFailed(err, "Could not load data.")
	}

	return nil
}

// StoreCode maps a store error status onto an error code.
func StoreCode(status int) domainerrors.Code {
	switch status {
	case http.StatusNotFound:
		return domainerrors.CodeNotFound
	case http.StatusConflict:
		return domainerrors.CodeAlreadyExists
	case http.StatusBadRequest:
		return domainerrors.CodeValidation
	case http.StatusUnauthorized:
		return domainerrors.CodeUnauthorized
	case http.StatusServiceUnavailable:
		return domainerrors.CodeConflict
	default:
		return domainerrors.CodeInternal
	}
}

// StatusCode maps a bare HTTP status onto an error code. Used for errors
// raised by the router or the request decoder.
func StatusCode(status int) domainerrors.Code {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return domainerrors.CodeValidation
	case http.StatusUnauthorized:
		return domainerrors.CodeUnauthorized
	case http.StatusForbidden:
		return domainerrors.CodeForbidden
	case http.StatusNotFound:
		return domainerrors.CodeNotFound
	case http.StatusConflict:
		return domainerrors.CodeConflict
	case http.StatusTooManyRequests:
		return domainerrors.CodeRateLimited
	case http.StatusServiceUnavailable:
		return domainerrors.CodeFetchFailed
	default:
		return domainerrors.CodeInternal
	}
}
