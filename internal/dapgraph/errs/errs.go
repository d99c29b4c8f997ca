// Package errs defines the error taxonomy shared across the debugger
// runtime: fixed/programmer-error sentinels plus the handful of typed
// errors that carry enough context for callers to react (AdapterError,
// RequestTimeoutError, CapabilityError, ConfigurationError).
package errs

import (
	"errors"
	"fmt"
)

// Sentinel errors for fixed, well-known conditions.
var (
	// ErrTransportClosed is returned by any operation attempted on a
	// closed transport or a terminated session.
	ErrTransportClosed = errors.New("transport closed")

	// ErrDeletedEntity is returned when a mutation is attempted on an
	// entity that has already been deleted from the graph.
	ErrDeletedEntity = errors.New("entity deleted")

	// ErrSchemaViolation is returned when a query-layer operation
	// references an edge or type that the schema does not define.
	ErrSchemaViolation = errors.New("schema violation")

	// ErrAlreadyResponded names a second reply to the same reverse
	// request sequence. The dap client drops such a reply without
	// returning this error.
	ErrAlreadyResponded = errors.New("reverse request already answered")

	// ErrNotFound is returned by resolution/query operations that find
	// no matching entity where exactly one was required.
	ErrNotFound = errors.New("not found")
)

// ProtocolError signals a stream-fatal codec failure: a malformed
// header, a non-numeric or out-of-range Content-Length, or a body
// shorter than declared. The enclosing transport must close and the
// owning session must terminate.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string { return "protocol: " + e.Reason }

// AdapterError wraps a DAP response with success=false.
type AdapterError struct {
	Command string
	Message string
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("adapter error: %s: %s", e.Command, e.Message)
}

// RequestTimeoutError is returned when a request receives no response
// within its deadline.
type RequestTimeoutError struct {
	Command string
}

func (e *RequestTimeoutError) Error() string {
	return fmt.Sprintf("request timeout: %s", e.Command)
}

// CapabilityError is returned when an operation is attempted against
// an adapter that did not advertise the required capability.
type CapabilityError struct {
	Operation  string
	Capability string
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("capability %q required for %q", e.Capability, e.Operation)
}

// ConfigurationError signals a missing or invalid adapter configuration.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string { return "configuration: " + e.Reason }

// Wrap adds call-chain context (method + entity URI) to err, preserving
// the chain for errors.Unwrap/errors.Is/errors.As. A nil err returns nil.
func Wrap(uri, method string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %w", uri, method, err)
}
