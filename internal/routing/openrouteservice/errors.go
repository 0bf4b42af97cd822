package openrouteservice

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable covers outages, server errors and an open circuit breaker.
	ErrUnavailable = errors.New("routing provider unavailable")
	// ErrRateLimited is returned when the API quota is spent.
	ErrRateLimited = errors.New("rate limit exceeded")
	// ErrUnauthorized is returned for a missing or rejected API key.
	ErrUnauthorized = errors.New("api key rejected")
	// ErrBadRequest is returned when the service rejects the coordinates.
	ErrBadRequest = errors.New("request rejected")
)

// Error is a failed call to the service.
type Error struct {
	StatusCode int
	Code       int // service error code, 0 when absent
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s: %d %s (code %d)", ProviderName, e.StatusCode, e.Message, e.Code)
	}
	return fmt.Sprintf("%s: %d %s", ProviderName, e.StatusCode, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}
