package jsonrpc

import (
	"errors"
	"fmt"
)

// TransportError means the endpoint could not be reached or answered with a
// non-2xx status. StatusCode is 0 when no HTTP response was received.
type TransportError struct {
	Method     string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("rpc %s: http status %d", e.Method, e.StatusCode)
	}
	return fmt.Sprintf("rpc %s: transport: %v", e.Method, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError is a JSON-RPC error object returned by the endpoint.
type ProtocolError struct {
	Method  string `json:"-"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("rpc %s: error %d: %s", e.Method, e.Code, e.Message)
}

// Kind reports the error class for logs and metric labels.
func Kind(err error) string {
	var te *TransportError
	var pe *ProtocolError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &te):
		return "transport"
	case errors.As(err, &pe):
		return "protocol"
	default:
		return "other"
	}
}
