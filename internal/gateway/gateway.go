// Package gateway implements payment gateway clients that create payment sessions
// for checkout requests. None of them retry: a failed call is reported as-is.
package gateway

import "errors"

var (
	// ErrTransport wraps network and serialization failures talking to the gateway.
	ErrTransport = errors.New("gateway transport error")
	// ErrRejected is returned when the gateway answers with a non-success status.
	ErrRejected = errors.New("gateway rejected the request")
	// ErrMalformedResponse is returned when the gateway response cannot be understood.
	ErrMalformedResponse = errors.New("malformed gateway response")
	// ErrInvalidRequest is returned before any call when the request fails validation.
	ErrInvalidRequest = errors.New("invalid checkout request")
	// ErrPriceMismatch is returned when a line item price differs from the catalog price.
	ErrPriceMismatch = errors.New("line item price does not match catalog")
)
