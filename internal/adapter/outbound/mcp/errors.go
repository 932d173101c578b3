package mcp

import (
	"errors"
	"fmt"
)

var (
	// ErrStreamTimeout indicates no parsable envelope was located before the
	// overall deadline while reading a stream-framed response.
	ErrStreamTimeout = errors.New("stream timeout: no complete envelope before deadline")

	// ErrMalformedStream indicates the response ended without ever yielding
	// a parsable envelope.
	ErrMalformedStream = errors.New("malformed stream: no parsable envelope")
)

// TransportError indicates the connection failed or timed out before any
// usable response byte was received.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError indicates the server answered with a non-success HTTP status.
type ProtocolError struct {
	Status int
	Body   string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol failure: http status %d: %s", e.Status, e.Body)
}

// EnvelopeError indicates the server responded with a structured JSON-RPC
// error envelope.
type EnvelopeError struct {
	Code    int64
	Message string
}

func (e *EnvelopeError) Error() string {
	return fmt.Sprintf("envelope error %d: %s", e.Code, e.Message)
}
