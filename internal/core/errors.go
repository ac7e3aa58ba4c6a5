package core

import "errors"

// Error codes for domain errors.
const (
	ErrCodeInvalidAssignment = "invalid_assignment"
	ErrCodeBadRequest        = "bad_request"
	ErrCodeInvalidMessage    = "invalid_message"
	ErrCodeRateLimited       = "rate_limited"
	ErrCodeUnavailable       = "unavailable"
)

var (
	// ErrInvalidAssignment is returned for assignments missing a number or desk.
	ErrInvalidAssignment = errors.New("invalid assignment: number and desk are required")
	// ErrDeliveryFailed is returned when an event cannot be queued for a session.
	ErrDeliveryFailed = errors.New("delivery failed")
	// ErrHubStopped is returned when the hub loop is no longer running.
	ErrHubStopped = errors.New("hub stopped")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}

// ErrorFor maps a domain error to the code sent to clients.
func ErrorFor(err error) *CoreError {
	var ce *CoreError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &ce):
		return ce
	case errors.Is(err, ErrInvalidAssignment):
		return coreError(ErrCodeInvalidAssignment, err.Error())
	case errors.Is(err, ErrHubStopped):
		return coreError(ErrCodeUnavailable, err.Error())
	default:
		return coreError(ErrCodeBadRequest, err.Error())
	}
}
