package llm

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured is returned when no backend credential is configured.
	ErrNotConfigured = errors.New("ai backend not configured")

	// ErrTimeout indicates the backend call exceeded its deadline.
	ErrTimeout = errors.New("llm request timed out")

	// ErrEmptyResponse indicates the backend answered without any text.
	ErrEmptyResponse = errors.New("llm returned empty response")

	// ErrEmptyImage indicates a vision call was made without image bytes.
	ErrEmptyImage = errors.New("image payload is empty")

	// ErrInvalidOutput indicates the model output could not be decoded into
	// the expected structured shape.
	ErrInvalidOutput = errors.New("invalid llm output format")
)

// InvocationError wraps any failure of a configured backend call.
type InvocationError struct {
	Task TaskType
	Err  error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("llm invocation failed (task=%s): %v", e.Task, e.Err)
}

func (e *InvocationError) Unwrap() error { return e.Err }

// IsNotConfigured reports whether err means the backend has no credential.
func IsNotConfigured(err error) bool {
	return errors.Is(err, ErrNotConfigured)
}

func errorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotConfigured):
		return "not_configured"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrEmptyResponse):
		return "empty_response"
	case errors.Is(err, ErrEmptyImage):
		return "empty_image"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "backend_error"
	}
}
