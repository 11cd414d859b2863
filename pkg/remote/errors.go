package remote

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates the remote system holds no record for the file.
// Callers match it with errors.Is.
var ErrNotFound = errors.New("remote record not found")

// RequestError wraps a failed call to a remote collaborator.
type RequestError struct {
	// Service names the collaborator (e.g. "wfcatalog", "objectstore").
	Service string

	// StatusCode is the HTTP status, when the failure was an HTTP
	// response. Zero for transport errors.
	StatusCode int

	// Cause is the underlying error, if any.
	Cause error

	// Message carries the remote error body, if any.
	Message string
}

func (e *RequestError) Error() string {
	switch {
	case e.Cause != nil:
		return fmt.Sprintf("%s request failed: %v", e.Service, e.Cause)
	case e.Message != "":
		return fmt.Sprintf("%s request failed with status %d: %s", e.Service, e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("%s request failed with status %d", e.Service, e.StatusCode)
	}
}

func (e *RequestError) Unwrap() error {
	return e.Cause
}
