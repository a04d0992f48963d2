package api

import (
	"errors"
	"fmt"
)

// TransportError indicates the request never produced a usable HTTP
// response: DNS, connection refused, timeout, unreadable body, or an open
// circuit breaker.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StatusError is an application-level failure: the server answered, but
// with a non-2xx code or an envelope whose status is not "success".
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Status     string
	Message    string
}

func (e *StatusError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "request failed"
	}
	return fmt.Sprintf(
		"%s %s: %s (http %d, status %q)",
		e.Method, e.Path, msg, e.StatusCode, e.Status,
	)
}

// AuthError indicates that the access token is missing, invalid or
// expired. It is returned when the server answers 401.
type AuthError struct {
	BaseURL string
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error (%s): %s", e.BaseURL, e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// IsTransportError reports whether err (or any error in its chain) is a
// TransportError.
func IsTransportError(err error) bool {
	var tErr *TransportError
	return errors.As(err, &tErr)
}

// IsStatusError reports whether err (or any error in its chain) is a
// StatusError.
func IsStatusError(err error) bool {
	var sErr *StatusError
	return errors.As(err, &sErr)
}
