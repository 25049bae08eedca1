package braiins

import (
	"errors"
	"fmt"
)

// ErrorKind classifies an upstream failure.
type ErrorKind string

const (
	// ErrKindValidation marks a request the client itself refused to make.
	ErrKindValidation ErrorKind = "validation"
	// ErrKindUpstreamRejected marks a 4xx response; never retried.
	ErrKindUpstreamRejected ErrorKind = "upstream-rejected"
	// ErrKindUpstreamServer marks a 5xx response, surfaced after retries.
	ErrKindUpstreamServer ErrorKind = "upstream-server-error"
	// ErrKindCannotConnect marks a transport failure with no upstream response.
	ErrKindCannotConnect ErrorKind = "cannot-connect"
	// ErrKindTimeout marks a request that exceeded the configured timeout.
	ErrKindTimeout ErrorKind = "timeout"
)

// Error is the typed failure returned by every client method.
type Error struct {
	Kind   ErrorKind
	Status int
	URL    string
	Body   string
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("braiins api: %s (status %d, url %s)", e.Kind, e.Status, e.URL)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// AsError unwraps err into a *Error if one is in its chain.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
