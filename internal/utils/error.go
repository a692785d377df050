package utils

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error codes with HTTP status mapping
const (
	// General errors
	ErrCodeInvalidRequest    = "INVALID_REQUEST"
	ErrCodeInternalError     = "INTERNAL_ERROR"
	ErrCodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"

	// Warehouse lifecycle errors
	ErrCodeInvalidSchema  = "INVALID_SCHEMA"
	ErrCodeAlreadyExists  = "ALREADY_EXISTS"
	ErrCodeNotFound       = "NOT_FOUND"
	ErrCodeSchemaConflict = "SCHEMA_CONFLICT"

	// Item write errors
	ErrCodeValidationFailed = "VALIDATION_ERROR"
	ErrCodeConflict         = "CONFLICT"

	// Backing store errors. The only kind a caller may treat as transient.
	ErrCodeStorageFailure = "STORAGE_FAILURE"
)

// HTTPStatus maps error codes to HTTP status codes
var HTTPStatus = map[string]int{
	ErrCodeInvalidRequest:    http.StatusBadRequest,
	ErrCodeInternalError:     http.StatusInternalServerError,
	ErrCodeRateLimitExceeded: http.StatusTooManyRequests,

	ErrCodeInvalidSchema:  http.StatusUnprocessableEntity,
	ErrCodeAlreadyExists:  http.StatusConflict,
	ErrCodeNotFound:       http.StatusNotFound,
	ErrCodeSchemaConflict: http.StatusConflict,

	ErrCodeValidationFailed: http.StatusUnprocessableEntity,
	ErrCodeConflict:         http.StatusConflict,

	ErrCodeStorageFailure: http.StatusServiceUnavailable,
}

// AppError represents an application error with additional context. Columns
// names every column a validation failure touched, never just the first.
type AppError struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Details string   `json:"details,omitempty"`
	Columns []string `json:"columns,omitempty"`
	Cause   error    `json:"-"`
}

func (e *AppError) Error() string {
	parts := []string{e.Code + ": " + e.Message}
	if len(e.Columns) > 0 {
		parts = append(parts, "columns: "+strings.Join(e.Columns, ", "))
	}
	if e.Details != "" {
		parts = append(parts, e.Details)
	}
	return strings.Join(parts, " - ")
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// ErrorBuilder provides a fluent interface for creating errors
type ErrorBuilder struct {
	code    string
	message string
	details string
	columns []string
	cause   error
}

// NewErrorBuilder creates a new error builder
func NewErrorBuilder(code string) *ErrorBuilder {
	return &ErrorBuilder{code: code}
}

// WithMessage sets the error message
func (eb *ErrorBuilder) WithMessage(message string) *ErrorBuilder {
	eb.message = message
	return eb
}

// WithDetails sets the error details
func (eb *ErrorBuilder) WithDetails(details string) *ErrorBuilder {
	eb.details = details
	return eb
}

// WithColumns records the offending columns
func (eb *ErrorBuilder) WithColumns(columns ...string) *ErrorBuilder {
	eb.columns = append(eb.columns, columns...)
	return eb
}

// WithCause sets the underlying error cause
func (eb *ErrorBuilder) WithCause(cause error) *ErrorBuilder {
	eb.cause = cause
	return eb
}

// Build constructs the final AppError
func (eb *ErrorBuilder) Build() *AppError {
	if eb.message == "" {
		eb.message = getDefaultMessage(eb.code)
	}

	return &AppError{
		Code:    eb.code,
		Message: eb.message,
		Details: eb.details,
		Columns: eb.columns,
		Cause:   eb.cause,
	}
}

// getDefaultMessage returns a default message for error codes
func getDefaultMessage(code string) string {
	messages := map[string]string{
		ErrCodeInvalidRequest:    "The request is invalid",
		ErrCodeInternalError:     "Internal server error",
		ErrCodeRateLimitExceeded: "Rate limit exceeded",

		ErrCodeInvalidSchema:  "Item schema violates a declaration invariant",
		ErrCodeAlreadyExists:  "Warehouse already exists",
		ErrCodeNotFound:       "Resource not found",
		ErrCodeSchemaConflict: "Existing storage does not match the declared schema",

		ErrCodeValidationFailed: "Item violates the warehouse schema",
		ErrCodeConflict:         "Unique or primary-key constraint violated",

		ErrCodeStorageFailure: "Backing store failure",
	}

	if msg, exists := messages[code]; exists {
		return msg
	}
	return "Unknown error"
}

// Convenience constructors for the common error kinds

func NewInvalidSchemaError(details string, columns ...string) *AppError {
	return NewErrorBuilder(ErrCodeInvalidSchema).
		WithDetails(details).
		WithColumns(columns...).
		Build()
}

func NewAlreadyExistsError(name string) *AppError {
	return NewErrorBuilder(ErrCodeAlreadyExists).
		WithMessage(fmt.Sprintf("warehouse %q already exists", name)).
		Build()
}

func NewNotFoundError(resource string) *AppError {
	return NewErrorBuilder(ErrCodeNotFound).
		WithMessage(fmt.Sprintf("%s not found", resource)).
		Build()
}

func NewValidationError(details string, columns ...string) *AppError {
	return NewErrorBuilder(ErrCodeValidationFailed).
		WithDetails(details).
		WithColumns(columns...).
		Build()
}

func NewConflictError(details string, columns ...string) *AppError {
	return NewErrorBuilder(ErrCodeConflict).
		WithDetails(details).
		WithColumns(columns...).
		Build()
}

func NewSchemaConflictError(name string, details string) *AppError {
	return NewErrorBuilder(ErrCodeSchemaConflict).
		WithMessage(fmt.Sprintf("storage for warehouse %q has an incompatible shape", name)).
		WithDetails(details).
		Build()
}

func NewStorageError(cause error, details string) *AppError {
	return NewErrorBuilder(ErrCodeStorageFailure).
		WithCause(cause).
		WithDetails(details).
		Build()
}

func NewInvalidRequestError(details string) *AppError {
	return NewErrorBuilder(ErrCodeInvalidRequest).
		WithDetails(details).
		Build()
}

// AsAppError unwraps err to an AppError if one is in the chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsErrorType checks if an error matches a specific error code
func IsErrorType(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// GetErrorStatus returns the HTTP status code for an error
func GetErrorStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		if status, exists := HTTPStatus[appErr.Code]; exists {
			return status
		}
	}
	return http.StatusInternalServerError
}
