// Package errors provides the application error type shared by the planner and the HTTP layer.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a machine-readable error code.
type Code string

const (
	CodeUnknown      Code = "UNKNOWN"
	CodeInternal     Code = "INTERNAL_ERROR"
	CodeInvalidInput Code = "INVALID_INPUT"
	CodeNotFound     Code = "NOT_FOUND"
	CodeTimeout      Code = "TIMEOUT"
	CodeRateLimited  Code = "RATE_LIMITED"

	// planning engine
	CodeNoData              Code = "NO_DATA"
	CodeConstraintViolation Code = "CONSTRAINT_VIOLATION"
	CodeOversizedScene      Code = "OVERSIZED_SCENE"
	CodeUnknownStrategy     Code = "UNKNOWN_STRATEGY"
	CodeInvalidEdit         Code = "INVALID_EDIT"

	// collaborators
	CodeProviderUnavailable Code = "PROVIDER_UNAVAILABLE"
	CodeDatabaseError       Code = "DATABASE_ERROR"
	CodeValidationFail      Code = "VALIDATION_FAILED"
)

// AppError is the error returned across package boundaries.
type AppError struct {
	Code       Code                   `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	HTTPStatus int                    `json:"-"`
	Cause      error                  `json:"-"`
	Fields     map[string]interface{} `json:"fields,omitempty"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetails sets the details string.
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// WithCause sets the wrapped error.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithField attaches a structured field.
func (e *AppError) WithField(key string, value interface{}) *AppError {
	if e.Fields == nil {
		e.Fields = make(map[string]interface{})
	}
	e.Fields[key] = value
	return e
}

// New creates an error with the status derived from code.
func New(code Code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

// Wrap wraps err under code.
func Wrap(err error, code Code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

func codeToHTTPStatus(code Code) int {
	switch code {
	case CodeInvalidInput, CodeValidationFail, CodeUnknownStrategy, CodeInvalidEdit:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeProviderUnavailable:
		return http.StatusBadGateway
	case CodeNoData:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Is reports whether err carries code.
func Is(err error, code Code) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// GetCode returns the code carried by err, or CodeUnknown.
func GetCode(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	var ve *ValidationErrors
	if errors.As(err, &ve) {
		return CodeInvalidInput
	}
	return CodeUnknown
}

// GetHTTPStatus returns the HTTP status for err.
func GetHTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus
	}
	var ve *ValidationErrors
	if errors.As(err, &ve) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// InvalidInput reports a malformed field.
func InvalidInput(field, reason string) *AppError {
	return New(CodeInvalidInput, fmt.Sprintf("invalid field '%s': %s", field, reason)).
		WithField("field", field)
}

// NotFound reports a missing resource.
func NotFound(resource, id string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s '%s' not found", resource, id))
}

// InvalidEdit reports an edit command that cannot be applied to the plan.
func InvalidEdit(op, reason string) *AppError {
	return New(CodeInvalidEdit, fmt.Sprintf("%s: %s", op, reason)).WithField("op", op)
}

// ProviderUnavailable wraps a failure of an external distance provider.
func ProviderUnavailable(provider string, cause error) *AppError {
	return Wrap(cause, CodeProviderUnavailable, fmt.Sprintf("distance provider %s unavailable", provider))
}

// ValidationErrors collects per-field input errors so a whole request can be rejected at once.
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// ValidationError is one field failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (ve *ValidationErrors) Error() string {
	if len(ve.Errors) == 0 {
		return "validation failed"
	}
	if len(ve.Errors) == 1 {
		return fmt.Sprintf("validation failed: %s - %s", ve.Errors[0].Field, ve.Errors[0].Message)
	}
	return fmt.Sprintf("validation failed: %s - %s (and %d more)",
		ve.Errors[0].Field, ve.Errors[0].Message, len(ve.Errors)-1)
}

// Add appends a field error.
func (ve *ValidationErrors) Add(field, message string) {
	ve.Errors = append(ve.Errors, ValidationError{Field: field, Message: message})
}

// HasErrors reports whether anything was collected.
func (ve *ValidationErrors) HasErrors() bool {
	return len(ve.Errors) > 0
}

// ToAppError converts the collection into an INVALID_INPUT AppError.
func (ve *ValidationErrors) ToAppError() *AppError {
	err := New(CodeInvalidInput, ve.Error())
	err.Fields = make(map[string]interface{})
	for _, e := range ve.Errors {
		err.Fields[e.Field] = e.Message
	}
	return err
}
