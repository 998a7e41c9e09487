package qivivo

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAPIError_Error(t *testing.T) {
	tests := []struct {
		name    string
		err     *APIError
		wantMsg string
	}{
		{
			name:    "with message",
			err:     &APIError{StatusCode: 500, Message: "Internal server error"},
			wantMsg: "qivivo: API error 500: Internal server error",
		},
		{
			name:    "empty message",
			err:     &APIError{StatusCode: 503},
			wantMsg: "qivivo: API error 503: ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("APIError.Error() = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestClient_handleError(t *testing.T) {
	client, _ := NewClient(testClientID, testClientSecret)

	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"message field", 400, `{"message":"bad temperature"}`, "bad temperature"},
		{"error field", 500, `{"error":"boom"}`, "boom"},
		{"plain body", 502, `upstream down`, "upstream down"},
		{"empty body", 404, ``, "Not Found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := client.handleError(tt.status, []byte(tt.body))
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *APIError, got %T", err)
			}
			if apiErr.StatusCode != tt.status || apiErr.Message != tt.wantMsg {
				t.Errorf("got %d %q, want %d %q", apiErr.StatusCode, apiErr.Message, tt.status, tt.wantMsg)
			}
			if string(apiErr.Body) != tt.body {
				t.Errorf("Body = %q, want %q", apiErr.Body, tt.body)
			}
		})
	}
}

func TestIsUnauthorized(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"ErrUnauthorized", ErrUnauthorized, true},
		{"APIError 401", &APIError{StatusCode: http.StatusUnauthorized}, true},
		{"APIError 403", &APIError{StatusCode: http.StatusForbidden}, false},
		{"AuthenticationError", &AuthenticationError{StatusCode: 400, Err: errors.New("invalid_client")}, true},
		{"wrapped", fmt.Errorf("loading: %w", &APIError{StatusCode: 401}), true},
		{"other", errors.New("other"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUnauthorized(tt.err); got != tt.want {
				t.Errorf("IsUnauthorized() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"ErrNotFound", ErrNotFound, true},
		{"ErrDeviceNotFound", fmt.Errorf("%w: x", ErrDeviceNotFound), true},
		{"APIError 404", &APIError{StatusCode: http.StatusNotFound}, true},
		{"APIError 500", &APIError{StatusCode: http.StatusInternalServerError}, false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotFound(tt.err); got != tt.want {
				t.Errorf("IsNotFound() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsRateLimited(t *testing.T) {
	if !IsRateLimited(&APIError{StatusCode: http.StatusTooManyRequests}) {
		t.Error("429 should be rate limited")
	}
	if IsRateLimited(&APIError{StatusCode: http.StatusBadRequest}) {
		t.Error("400 should not be rate limited")
	}
}

func TestErrorTypes(t *testing.T) {
	cause := errors.New("cause")

	t.Run("authentication", func(t *testing.T) {
		err := &AuthenticationError{StatusCode: 401, Err: cause}
		if !errors.Is(err, cause) {
			t.Error("AuthenticationError should unwrap")
		}
		if want := "qivivo: authentication failed with status 401: cause"; err.Error() != want {
			t.Errorf("Error() = %q, want %q", err.Error(), want)
		}
		noStatus := &AuthenticationError{Err: cause}
		if want := "qivivo: authentication failed: cause"; noStatus.Error() != want {
			t.Errorf("Error() = %q, want %q", noStatus.Error(), want)
		}
	})

	t.Run("transport", func(t *testing.T) {
		err := &TransportError{Method: "GET", URL: "https://x/devices", Err: cause}
		if !errors.Is(err, cause) {
			t.Error("TransportError should unwrap")
		}
		if want := "qivivo: GET https://x/devices: cause"; err.Error() != want {
			t.Errorf("Error() = %q, want %q", err.Error(), want)
		}
	})

	t.Run("decode", func(t *testing.T) {
		err := &DecodeError{Resource: "/devices", Preview: "<html>", Err: cause}
		if !errors.Is(err, cause) {
			t.Error("DecodeError should unwrap")
		}
	})

	t.Run("unsupported device type", func(t *testing.T) {
		err := fmt.Errorf("load: %w", &UnsupportedDeviceTypeError{UUID: "u", Type: "sensor"})
		if !IsUnsupportedDeviceType(err) {
			t.Error("IsUnsupportedDeviceType() = false")
		}
		if IsUnsupportedDeviceType(cause) {
			t.Error("IsUnsupportedDeviceType(cause) = true")
		}
	})
}

type timeoutError struct{}

func (timeoutError) Error() string { return "timeout" }
func (timeoutError) Timeout() bool { return true }

func TestIsTimeout(t *testing.T) {
	if !IsTimeout(&TransportError{Err: timeoutError{}}) {
		t.Error("expected timeout")
	}
	if IsTimeout(errors.New("other")) {
		t.Error("unexpected timeout")
	}
}
