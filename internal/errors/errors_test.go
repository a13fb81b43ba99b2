package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestConstructors(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		name       string
		err        *AppError
		wantType   ErrorType
		wantStatus int
	}{
		{"validation", NewValidationError("bad input", cause), ErrorTypeValidation, http.StatusBadRequest},
		{"network", NewNetworkError("fetch failed", cause), ErrorTypeNetwork, http.StatusBadGateway},
		{"processing", NewProcessingError("decode failed", cause), ErrorTypeProcessing, http.StatusUnprocessableEntity},
		{"timeout", NewTimeoutError("too slow", cause), ErrorTypeTimeout, http.StatusGatewayTimeout},
		{"not found", NewNotFoundError("missing", nil), ErrorTypeNotFound, http.StatusNotFound},
		{"unsupported", NewUnsupportedMediaError("not an image", nil), ErrorTypeUnsupported, http.StatusUnsupportedMediaType},
		{"unavailable", NewUnavailableError("closed", nil), ErrorTypeUnavailable, http.StatusServiceUnavailable},
		{"internal", NewInternalError("oops", cause), ErrorTypeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Type != tt.wantType {
				t.Errorf("Expected type %s, got %s", tt.wantType, tt.err.Type)
			}
			if tt.err.StatusCode != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, tt.err.StatusCode)
			}
		})
	}
}

func TestAppError_Error(t *testing.T) {
	err := NewNetworkError("fetch failed", errors.New("connection refused"))
	if got := err.Error(); got != "network: fetch failed (caused by: connection refused)" {
		t.Errorf("Unexpected message %q", got)
	}
	if got := NewNotFoundError("missing", nil).Error(); got != "not_found: missing" {
		t.Errorf("Unexpected message %q", got)
	}
}

func TestAppError_Unwrap(t *testing.T) {
	sentinel := errors.New("sentinel")
	err := NewProcessingError("failed", fmt.Errorf("wrapped: %w", sentinel))
	if !errors.Is(err, sentinel) {
		t.Error("Expected errors.Is to reach the cause")
	}
}

func TestWrappedAppError(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", NewTimeoutError("slow", nil))

	if !IsType(wrapped, ErrorTypeTimeout) {
		t.Error("Expected IsType to look through wrapping")
	}
	if GetStatusCode(wrapped) != http.StatusGatewayTimeout {
		t.Errorf("Expected 504, got %d", GetStatusCode(wrapped))
	}
	if GetStatusCode(errors.New("plain")) != http.StatusInternalServerError {
		t.Error("Expected 500 for plain errors")
	}
	if IsType(nil, ErrorTypeTimeout) {
		t.Error("Expected nil error to match no type")
	}
}

func TestWithDetails(t *testing.T) {
	base := NewValidationError("bad input", nil)
	detailed := base.WithDetails("stride must be positive")

	if detailed.Details != "stride must be positive" {
		t.Errorf("Expected details to be set, got %q", detailed.Details)
	}
	if base.Details != "" {
		t.Error("Expected WithDetails to leave the original untouched")
	}
}
