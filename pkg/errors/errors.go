// Package errors provides structured error types for the rawfetch library.
package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// ErrorType represents the category of error that occurred.
type ErrorType string

const (
	// ErrorTypeUninitialized is returned when a Client was used without being constructed
	ErrorTypeUninitialized ErrorType = "uninitialized"
	// ErrorTypeOutOfMemory represents allocation failures while building a response
	ErrorTypeOutOfMemory ErrorType = "out_of_memory"
	// ErrorTypeNullArgument represents a missing required argument
	ErrorTypeNullArgument ErrorType = "null_argument"
	// ErrorTypeValidation represents invalid arguments
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeInvalidPort represents a port outside 1-65535
	ErrorTypeInvalidPort ErrorType = "invalid_port"
	// ErrorTypeInvalidMethod represents an unknown HTTP method
	ErrorTypeInvalidMethod ErrorType = "invalid_method"
	// ErrorTypeBuffer represents internal buffer failures
	ErrorTypeBuffer ErrorType = "buffer"
	// ErrorTypeProtocol represents HTTP response parse errors
	ErrorTypeProtocol ErrorType = "protocol"
	// ErrorTypeTLS represents TLS handshake and TLS record layer errors
	ErrorTypeTLS ErrorType = "tls"
	// ErrorTypeOverflow represents a response larger than the configured cap
	ErrorTypeOverflow ErrorType = "overflow"
	// ErrorTypeConnection represents TCP connection errors
	ErrorTypeConnection ErrorType = "connection"
	// ErrorTypeIO represents transmission errors on a plain connection
	ErrorTypeIO ErrorType = "io"
	// ErrorTypeDNS represents DNS resolution errors
	ErrorTypeDNS ErrorType = "dns"
	// ErrorTypeEmptyResponse represents a plain HTTP server closing without sending data
	ErrorTypeEmptyResponse ErrorType = "empty_response"
	// ErrorTypeTimeout represents timeout errors
	ErrorTypeTimeout ErrorType = "timeout"
)

// Error represents a structured error with context information.
type Error struct {
	Type      ErrorType `json:"type"`
	Message   string    `json:"message"`
	Cause     error     `json:"cause,omitempty"`
	Host      string    `json:"host,omitempty"`
	Port      int       `json:"port,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target type.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Type == t.Type
	}
	return false
}

// New creates an error of the given type.
func New(errType ErrorType, message string, cause error) *Error {
	return &Error{
		Type:      errType,
		Message:   message,
		Cause:     cause,
		Timestamp: time.Now(),
	}
}

// NewUninitializedError reports use of a client that was never constructed.
func NewUninitializedError() *Error {
	return New(ErrorTypeUninitialized, "client is not initialized", nil)
}

// NewOutOfMemoryError creates an allocation failure error.
func NewOutOfMemoryError(operation string, cause error) *Error {
	return New(ErrorTypeOutOfMemory, fmt.Sprintf("out of memory during %s", operation), cause)
}

// NewNullArgumentError reports a missing required argument.
func NewNullArgumentError(name string) *Error {
	return New(ErrorTypeNullArgument, fmt.Sprintf("%s cannot be empty", name), nil)
}

// NewValidationError creates a validation error.
func NewValidationError(message string) *Error {
	return New(ErrorTypeValidation, message, nil)
}

// NewInvalidPortError creates an invalid port error.
func NewInvalidPortError(port string, cause error) *Error {
	return New(ErrorTypeInvalidPort, fmt.Sprintf("invalid port number %q", port), cause)
}

// NewInvalidMethodError creates an invalid HTTP method error.
func NewInvalidMethodError(method int) *Error {
	return New(ErrorTypeInvalidMethod, fmt.Sprintf("invalid HTTP method %d", method), nil)
}

// NewBufferError creates an internal buffer error.
func NewBufferError(operation string, cause error) *Error {
	return New(ErrorTypeBuffer, fmt.Sprintf("buffer error during %s", operation), cause)
}

// NewProtocolError creates a protocol error.
func NewProtocolError(message string, cause error) *Error {
	return New(ErrorTypeProtocol, message, cause)
}

// NewOverflowError reports a payload that exceeds limit bytes.
func NewOverflowError(limit int64) *Error {
	return New(ErrorTypeOverflow, fmt.Sprintf("response exceeds %d bytes", limit), nil)
}

// NewDNSError creates a DNS resolution error.
func NewDNSError(host string, cause error) *Error {
	return &Error{
		Type:      ErrorTypeDNS,
		Message:   fmt.Sprintf("DNS lookup failed for host %s", host),
		Cause:     cause,
		Host:      host,
		Timestamp: time.Now(),
	}
}

// NewConnectionError creates a connection error.
func NewConnectionError(host string, port int, cause error) *Error {
	return &Error{
		Type:      ErrorTypeConnection,
		Message:   fmt.Sprintf("failed to connect to %s:%d", host, port),
		Cause:     cause,
		Host:      host,
		Port:      port,
		Timestamp: time.Now(),
	}
}

// NewTLSError creates a TLS error for operation against host:port.
func NewTLSError(host string, port int, operation string, cause error) *Error {
	return &Error{
		Type:      ErrorTypeTLS,
		Message:   fmt.Sprintf("TLS %s failed for %s:%d", operation, host, port),
		Cause:     cause,
		Host:      host,
		Port:      port,
		Timestamp: time.Now(),
	}
}

// NewIOError creates a transmission error.
func NewIOError(operation string, cause error) *Error {
	return New(ErrorTypeIO, fmt.Sprintf("I/O error during %s", operation), cause)
}

// NewEmptyResponseError reports a server that closed without sending anything.
func NewEmptyResponseError(host string, port int) *Error {
	return &Error{
		Type:      ErrorTypeEmptyResponse,
		Message:   fmt.Sprintf("empty response from %s:%d", host, port),
		Host:      host,
		Port:      port,
		Timestamp: time.Now(),
	}
}

// NewTimeoutError creates a timeout error for operation bounded by timeout.
func NewTimeoutError(operation string, timeout time.Duration, cause error) *Error {
	return New(ErrorTypeTimeout, fmt.Sprintf("%s timed out after %v", operation, timeout), cause)
}

// IsTimeoutError checks if an error is a timeout error.
func IsTimeoutError(err error) bool {
	var e *Error
	if errors.As(err, &e) && e.Type == ErrorTypeTimeout {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// GetErrorType returns the error type if it's a structured error.
func GetErrorType(err error) ErrorType {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return ""
}

// IsType reports whether err is a structured error of the given type.
func IsType(err error, errType ErrorType) bool {
	return GetErrorType(err) == errType
}

// IsContextCanceled checks if an error is due to context cancellation.
func IsContextCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}
