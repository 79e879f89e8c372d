package proxy

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorClass represents a classification of origin failures.
type ErrorClass string

const (
	// ErrorClassTimeout represents dial or response timeouts.
	ErrorClassTimeout ErrorClass = "timeout"

	// ErrorClassNetwork represents refused connections, DNS failures and other transport errors.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassCanceled represents requests aborted because the client went away.
	ErrorClassCanceled ErrorClass = "canceled"

	// ErrorClassBodyRead represents origin responses that broke off mid-body.
	ErrorClassBodyRead ErrorClass = "body_read"

	// ErrorClassRequest represents outbound requests that could not be built.
	ErrorClassRequest ErrorClass = "request"
)

// ErrRequestBody is returned when the inbound request body cannot be read.
var ErrRequestBody = errors.New("read request body")

// OriginError is a failure to obtain a complete response from the origin.
// It is never retried and always surfaces as 503 to the client.
type OriginError struct {
	Origin string
	Class  ErrorClass
	Err    error
}

// Error implements the error interface.
func (e *OriginError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("origin %s %s error: %v", e.Origin, e.Class, e.Err)
	}
	return fmt.Sprintf("origin %s %s error", e.Origin, e.Class)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *OriginError) Unwrap() error {
	return e.Err
}

// classifyTransportError categorizes an error returned by http.Client.Do.
func classifyTransportError(err error) ErrorClass {
	if errors.Is(err, context.Canceled) {
		return ErrorClassCanceled
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrorClassTimeout
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorClassTimeout
	}

	return ErrorClassNetwork
}
