package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorTypes(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		err    *AppError
		typ    ErrorType
		status int
	}{
		{NewValidationError("v", nil), ErrorTypeValidation, http.StatusBadRequest},
		{NewNetworkError("n", cause), ErrorTypeNetwork, http.StatusBadGateway},
		{NewProcessingError("p", nil), ErrorTypeProcessing, http.StatusUnprocessableEntity},
		{NewTimeoutError("t", nil), ErrorTypeTimeout, http.StatusGatewayTimeout},
		{NewUnauthorizedError("u", nil), ErrorTypeUnauthorized, http.StatusUnauthorized},
		{NewNotFoundError("nf", nil), ErrorTypeNotFound, http.StatusNotFound},
		{NewConfigError("c", nil), ErrorTypeConfig, http.StatusInternalServerError},
		{NewDecodeError("d", cause), ErrorTypeDecode, http.StatusUnprocessableEntity},
		{NewInternalError("i", nil), ErrorTypeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			wrapped := fmt.Errorf("outer: %w", tt.err)
			if !IsType(wrapped, tt.typ) {
				t.Errorf("Expected wrapped error to be %s", tt.typ)
			}
			if got := GetStatusCode(wrapped); got != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, got)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewNetworkError("fetch image", cause)
	if !errors.Is(err, cause) {
		t.Error("Expected cause to be reachable through errors.Is")
	}
	if got, want := err.Error(), "network: fetch image (caused by: connection reset)"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if IsType(cause, ErrorTypeNetwork) {
		t.Error("Plain error must not match an AppError type")
	}
	if got := GetStatusCode(cause); got != http.StatusInternalServerError {
		t.Errorf("Expected 500 for plain error, got %d", got)
	}
}
