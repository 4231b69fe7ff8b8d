package apiclient

import (
	"fmt"

	"github.com/pkg/errors"
)

type errorBody struct {
	Error string `json:"error"`
}

// Error is a non-2xx backend response.
type Error struct {
	Operation  string
	StatusCode int
	// Message is the backend's `error` field, empty when absent.
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: backend returned %d: %s", e.Operation, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: backend returned %d", e.Operation, e.StatusCode)
}

// Message returns the backend's error text carried by err, or fallback.
func Message(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// StatusCode returns the backend status carried by err, 0 for transport errors.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// Describe renders err for an inline status line: the backend text when
// present, else the status code, else a network failure.
func Describe(err error) string {
	if msg := Message(err, ""); msg != "" {
		return msg
	}
	if code := StatusCode(err); code != 0 {
		return fmt.Sprintf("Request failed with status code %d", code)
	}
	return "Network Error"
}
