// Package rawfetch is a minimal one-shot HTTP/1.1 client over raw TCP and TLS
// sockets. Each request opens a fresh connection, sends Connection: Close,
// reads until the server closes and parses the complete response in memory.
package rawfetch

import (
	"context"

	"github.com/WhileEndless/go-rawfetch/pkg/client"
	"github.com/WhileEndless/go-rawfetch/pkg/config"
	"github.com/WhileEndless/go-rawfetch/pkg/errors"
	"github.com/WhileEndless/go-rawfetch/pkg/header"
	"github.com/WhileEndless/go-rawfetch/pkg/logging"
	"github.com/WhileEndless/go-rawfetch/pkg/request"
	"github.com/WhileEndless/go-rawfetch/pkg/response"
	"github.com/WhileEndless/go-rawfetch/pkg/timing"
	"github.com/WhileEndless/go-rawfetch/pkg/truststore"
)

// Version is the current version of the rawfetch library
const Version = "1.0.0"

// GetVersion returns the current version of the library
func GetVersion() string {
	return Version
}

// Re-export key types for easier usage
type (
	Client   = client.Client
	Option   = client.Option
	Request  = request.Request
	Method   = request.Method
	Response = response.Response
	Header   = header.Header
	Headers  = header.List
	Metrics  = timing.Metrics

	// Error represents a structured error with context information.
	Error     = errors.Error
	ErrorType = errors.ErrorType
)

// Request methods.
const (
	MethodGet     = request.MethodGet
	MethodHead    = request.MethodHead
	MethodPost    = request.MethodPost
	MethodPatch   = request.MethodPatch
	MethodPut     = request.MethodPut
	MethodDelete  = request.MethodDelete
	MethodConnect = request.MethodConnect
	MethodOptions = request.MethodOptions
	MethodTrace   = request.MethodTrace
)

// Re-export error types for convenience
const (
	ErrorTypeUninitialized = errors.ErrorTypeUninitialized
	ErrorTypeOutOfMemory   = errors.ErrorTypeOutOfMemory
	ErrorTypeNullArgument  = errors.ErrorTypeNullArgument
	ErrorTypeValidation    = errors.ErrorTypeValidation
	ErrorTypeInvalidPort   = errors.ErrorTypeInvalidPort
	ErrorTypeInvalidMethod = errors.ErrorTypeInvalidMethod
	ErrorTypeBuffer        = errors.ErrorTypeBuffer
	ErrorTypeProtocol      = errors.ErrorTypeProtocol
	ErrorTypeTLS           = errors.ErrorTypeTLS
	ErrorTypeOverflow      = errors.ErrorTypeOverflow
	ErrorTypeConnection    = errors.ErrorTypeConnection
	ErrorTypeIO            = errors.ErrorTypeIO
	ErrorTypeDNS           = errors.ErrorTypeDNS
	ErrorTypeEmptyResponse = errors.ErrorTypeEmptyResponse
	ErrorTypeTimeout       = errors.ErrorTypeTimeout
)

// Client options.
var (
	WithConfig       = client.WithConfig
	WithLogger       = client.WithLogger
	WithErrorHandler = client.WithErrorHandler
	WithTrustStore   = client.WithTrustStore
	WithCACertPEM    = client.WithCACertPEM
	WithMetrics      = client.WithMetrics
	WithClock        = client.WithClock
)

// NewClient returns a Client configured by opts.
func NewClient(opts ...Option) (*Client, error) {
	return client.New(opts...)
}

// NewRequest returns a request for method and url.
func NewRequest(method Method, url string) *Request {
	return request.New(method, url)
}

// Fetch performs a GET for url with a client configured from the
// environment, logging through the RAWFETCH_LOG_* settings.
func Fetch(ctx context.Context, url string) (*Response, error) {
	cfg := config.LoadOrDefault()
	logger, err := logging.New(cfg.Logger())
	if err != nil {
		return nil, errors.New(errors.ErrorTypeValidation, "invalid logging configuration", err)
	}
	defer logger.Sync()

	c, err := client.New(client.WithConfig(cfg), client.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	return c.Submit(ctx, request.New(request.MethodGet, url))
}

// DefaultCABundle returns the PEM text of the system CA bundle.
func DefaultCABundle() ([]byte, error) {
	return truststore.DefaultBundle()
}

// IsTimeoutError checks if an error is a timeout error.
func IsTimeoutError(err error) bool {
	return errors.IsTimeoutError(err)
}

// GetErrorType returns the error type if it's a structured error.
func GetErrorType(err error) ErrorType {
	return errors.GetErrorType(err)
}
