package qivivo

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors returned by the Qivivo client.
// All errors are defined here for easy discovery and consistent organization.
var (
	// Authentication errors
	ErrUnauthorized      = errors.New("qivivo: unauthorized (invalid or expired token)")
	ErrEmptyClientID     = errors.New("qivivo: client ID cannot be empty")
	ErrEmptyClientSecret = errors.New("qivivo: client secret cannot be empty")

	// Resource errors
	ErrNotFound       = errors.New("qivivo: resource not found")
	ErrDeviceNotFound = errors.New("qivivo: device not present in the device list")

	// Rate limiting
	ErrRateLimited = errors.New("qivivo: rate limited (too many requests)")

	// Device validation errors
	ErrEmptyUUID   = errors.New("qivivo: device UUID cannot be empty")
	ErrInvalidUUID = errors.New("qivivo: device UUID is malformed")

	// Program validation errors
	ErrEmptyProgramID = errors.New("qivivo: program ID cannot be empty")
	ErrInvalidDay     = errors.New("qivivo: day must be a lowercase english weekday")

	// Habitation validation errors
	ErrUnknownSetting = errors.New("qivivo: unknown habitation setting")
)

// AuthenticationError is returned when the client-credentials exchange fails
// or the token endpoint answers without an access token.
type AuthenticationError struct {
	// StatusCode is the token endpoint's HTTP status, zero when no response was read.
	StatusCode int
	Err        error
}

// Error implements the error interface.
func (e *AuthenticationError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("qivivo: authentication failed with status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("qivivo: authentication failed: %v", e.Err)
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

// TransportError reports a request that never produced an HTTP response.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("qivivo: %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// APIError represents a non-2xx response from a Qivivo resource endpoint.
type APIError struct {
	StatusCode int
	Message    string
	Body       []byte
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("qivivo: API error %d: %s", e.StatusCode, e.Message)
}

// Is allows errors.Is to match the status-specific sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrRateLimited:
		return e.StatusCode == http.StatusTooManyRequests
	}
	return false
}

// DecodeError is returned when a response that should be JSON is not.
type DecodeError struct {
	Resource string
	Preview  string
	Err      error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("qivivo: failed to parse %s: %v (body: %s)", e.Resource, e.Err, e.Preview)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// UnsupportedDeviceTypeError is returned when the server reports a device
// category this client cannot model.
type UnsupportedDeviceTypeError struct {
	UUID string
	Type DeviceType
}

// Error implements the error interface.
func (e *UnsupportedDeviceTypeError) Error() string {
	return fmt.Sprintf("qivivo: device %s has unsupported type %q", e.UUID, e.Type)
}

// IsUnauthorized returns true if the error indicates an authentication failure.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized) || IsAuthenticationError(err)
}

// IsNotFound returns true if the error indicates the resource was not found.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrDeviceNotFound)
}

// IsRateLimited returns true if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// IsAuthenticationError returns true if the token exchange failed.
func IsAuthenticationError(err error) bool {
	var authErr *AuthenticationError
	return errors.As(err, &authErr)
}

// IsUnsupportedDeviceType returns true if the device category is unknown to the client.
func IsUnsupportedDeviceType(err error) bool {
	var typeErr *UnsupportedDeviceTypeError
	return errors.As(err, &typeErr)
}

// IsTimeout returns true if the error indicates a timeout.
func IsTimeout(err error) bool {
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
