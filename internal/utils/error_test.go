package utils

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorBuilderDefaults(t *testing.T) {
	err := NewErrorBuilder(ErrCodeNotFound).Build()
	if err.Message == "" {
		t.Error("Expected a default message for NOT_FOUND")
	}
	if err.Code != ErrCodeNotFound {
		t.Errorf("Expected code %s, got %s", ErrCodeNotFound, err.Code)
	}
}

func TestErrorStatusMapping(t *testing.T) {
	cases := map[string]int{
		ErrCodeInvalidSchema:    http.StatusUnprocessableEntity,
		ErrCodeValidationFailed: http.StatusUnprocessableEntity,
		ErrCodeAlreadyExists:    http.StatusConflict,
		ErrCodeConflict:         http.StatusConflict,
		ErrCodeSchemaConflict:   http.StatusConflict,
		ErrCodeNotFound:         http.StatusNotFound,
		ErrCodeStorageFailure:   http.StatusServiceUnavailable,
		ErrCodeInvalidRequest:   http.StatusBadRequest,
	}

	for code, expected := range cases {
		err := NewErrorBuilder(code).Build()
		if status := GetErrorStatus(err); status != expected {
			t.Errorf("Expected status %d for %s, got %d", expected, code, status)
		}
	}
}

func TestGetErrorStatusUnknownError(t *testing.T) {
	if status := GetErrorStatus(errors.New("plain")); status != http.StatusInternalServerError {
		t.Errorf("Expected 500 for a non-AppError, got %d", status)
	}
}

func TestAsAppErrorUnwrapsChain(t *testing.T) {
	inner := NewValidationError("bad value", "serial")
	wrapped := fmt.Errorf("while inserting: %w", inner)

	appErr, ok := AsAppError(wrapped)
	if !ok {
		t.Fatal("Expected AppError to be found in the chain")
	}
	if appErr.Code != ErrCodeValidationFailed {
		t.Errorf("Expected VALIDATION_ERROR, got %s", appErr.Code)
	}
	if len(appErr.Columns) != 1 || appErr.Columns[0] != "serial" {
		t.Errorf("Expected offending column serial, got %v", appErr.Columns)
	}
}

func TestStorageErrorKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewStorageError(cause, "insert failed")

	if !errors.Is(err, cause) {
		t.Error("Expected the cause to survive unwrapping")
	}
	if !IsErrorType(err, ErrCodeStorageFailure) {
		t.Errorf("Expected STORAGE_FAILURE, got %s", err.Code)
	}
}
