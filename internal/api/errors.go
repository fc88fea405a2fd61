package api

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized indicates a 401 on any call. For authenticated calls
	// this demotes the session.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")
)

// ValidationError is a 4xx rejection of a mutation. The detail is the
// server's message, suitable for inline display next to the form.
type ValidationError struct {
	Status int
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("request rejected (status %d)", e.Status)
	}
	return e.Detail
}

// RequestError wraps a transport failure: no response was received, or the
// request timed out.
type RequestError struct {
	Err error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request failed: %v", e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}
