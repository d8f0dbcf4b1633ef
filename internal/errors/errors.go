package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Kind classifies an APIError independent of its transport status.
type Kind string

const (
	KindValidation      Kind = "validation"
	KindNotFound        Kind = "not_found"
	KindConflict        Kind = "conflict"
	KindExternalService Kind = "external_service"
	KindStorage         Kind = "storage"
	KindUnauthorized    Kind = "unauthorized"
	KindInternal        Kind = "internal"
)

// APIError is the error type returned by services and rendered by the error middleware
type APIError struct {
	Status   int    `json:"-"`
	Kind     Kind   `json:"kind"`
	Message  string `json:"error"`
	Internal error  `json:"-"`
}

func (e *APIError) Error() string {
	if e.Internal != nil {
		return e.Message + ": " + e.Internal.Error()
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Internal
}

func newAPIError(status int, kind Kind, message string, err error) *APIError {
	return &APIError{
		Status:   status,
		Kind:     kind,
		Message:  message,
		Internal: err,
	}
}

// Validation reports a blank or malformed required field.
func Validation(message string, err error) *APIError {
	return newAPIError(http.StatusUnprocessableEntity, KindValidation, message, err)
}

// NotFound covers both unknown and not-owned resources.
func NotFound(message string, err error) *APIError {
	return newAPIError(http.StatusNotFound, KindNotFound, message, err)
}

// Conflict reports a mutation that lost a race and should be retried by the caller.
func Conflict(message string, err error) *APIError {
	return newAPIError(http.StatusConflict, KindConflict, message, err)
}

// ExternalService reports a generation collaborator failure or timeout.
func ExternalService(message string, err error) *APIError {
	return newAPIError(http.StatusBadGateway, KindExternalService, message, err)
}

// Storage reports a persistence failure.
func Storage(message string, err error) *APIError {
	return newAPIError(http.StatusInternalServerError, KindStorage, message, err)
}

func Unauthorized(message string, err error) *APIError {
	return newAPIError(http.StatusUnauthorized, KindUnauthorized, message, err)
}

func Internal(err error) *APIError {
	return newAPIError(http.StatusInternalServerError, KindInternal, "Internal server error", err)
}

// NewValidationError turns a gin binding error into a Validation error with a readable message
func NewValidationError(err error) *APIError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return Validation("Invalid request body", err)
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			fields = append(fields, fmt.Sprintf("%s is required", strings.ToLower(fe.Field())))
		case "oneof":
			fields = append(fields, fmt.Sprintf("%s must be one of [%s]", strings.ToLower(fe.Field()), fe.Param()))
		case "max":
			fields = append(fields, fmt.Sprintf("%s must be at most %s characters", strings.ToLower(fe.Field()), fe.Param()))
		case "min":
			fields = append(fields, fmt.Sprintf("%s must be at least %s characters", strings.ToLower(fe.Field()), fe.Param()))
		case "email":
			fields = append(fields, fmt.Sprintf("%s must be a valid email", strings.ToLower(fe.Field())))
		default:
			fields = append(fields, fmt.Sprintf("%s is invalid", strings.ToLower(fe.Field())))
		}
	}
	return Validation(strings.Join(fields, "; "), err)
}

// IsKind reports whether err wraps an APIError of the given kind.
func IsKind(err error, kind Kind) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind == kind
	}
	return false
}
