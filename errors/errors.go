// Package errors provides an API for errors across the application.
package errors

import (
	"net/http"
	"strings"
)

type RequestError struct {
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	return e.Err.Error()
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// InvalidRequest wraps err as a client error (400).
func InvalidRequest(err error) *RequestError {
	return &RequestError{StatusCode: http.StatusBadRequest, Err: err}
}

// NotFound wraps err as a not found error (404).
func NotFound(err error) *RequestError {
	return &RequestError{StatusCode: http.StatusNotFound, Err: err}
}

// Unauthorized wraps err as an authentication error (401).
func Unauthorized(err error) *RequestError {
	return &RequestError{StatusCode: http.StatusUnauthorized, Err: err}
}

// Forbidden wraps err as an authorization error (403).
func Forbidden(err error) *RequestError {
	return &RequestError{StatusCode: http.StatusForbidden, Err: err}
}

// ChainError wraps err as an upstream chain failure (502). Failures to
// reach the RPC endpoint at all are temporary (503). The underlying
// message is passed through to the client.
func ChainError(err error) *RequestError {
	if IsChainConnectionError(err) {
		return &RequestError{StatusCode: http.StatusServiceUnavailable, Err: err}
	}
	return &RequestError{StatusCode: http.StatusBadGateway, Err: err}
}

// Unavailable wraps err as a temporary refusal (503), used while the
// service is in maintenance mode.
func Unavailable(err error) *RequestError {
	return &RequestError{StatusCode: http.StatusServiceUnavailable, Err: err}
}

// IsChainConnectionError reports whether err is a failure to reach the
// RPC endpoint rather than a rejection by it.
func IsChainConnectionError(err error) bool {
	return strings.Contains(err.Error(), "connection refused")
}
