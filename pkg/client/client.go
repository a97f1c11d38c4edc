// Package client provides the main HTTP client API.
package client

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/WhileEndless/go-rawfetch/pkg/config"
	"github.com/WhileEndless/go-rawfetch/pkg/errors"
	"github.com/WhileEndless/go-rawfetch/pkg/metrics"
	"github.com/WhileEndless/go-rawfetch/pkg/request"
	"github.com/WhileEndless/go-rawfetch/pkg/response"
	"github.com/WhileEndless/go-rawfetch/pkg/timing"
	"github.com/WhileEndless/go-rawfetch/pkg/tlsconfig"
	"github.com/WhileEndless/go-rawfetch/pkg/transport"
	"github.com/WhileEndless/go-rawfetch/pkg/truststore"
	"github.com/WhileEndless/go-rawfetch/pkg/urlparser"
)

// Exchanger performs one connect-write-read-close cycle.
type Exchanger interface {
	Exchange(ctx context.Context, config transport.Config, payload []byte, timer *timing.Timer) (*transport.Result, error)
}

// ErrorHandler receives the message of every error returned by Submit.
type ErrorHandler func(message string)

// Client submits one-shot HTTP/1.1 requests. It is safe for concurrent use.
// The zero value is not usable; construct clients with New.
type Client struct {
	cfg       *config.Config
	profile   tlsconfig.VersionProfile
	logger    *zap.Logger
	store     *truststore.Store
	transport Exchanger
	metrics   *metrics.Collector
	clock     clock.Clock

	mu      sync.RWMutex
	onError ErrorHandler
}

type settings struct {
	cfg       *config.Config
	logger    *zap.Logger
	onError   ErrorHandler
	store     *truststore.Store
	caPEM     []byte
	metrics   *metrics.Collector
	transport Exchanger
	clock     clock.Clock
}

// Option configures a Client.
type Option func(*settings)

// WithConfig sets timeouts, buffer limits, TLS profile and CA file.
func WithConfig(cfg *config.Config) Option {
	return func(s *settings) { s.cfg = cfg }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// WithErrorHandler installs an error handler at construction.
func WithErrorHandler(h ErrorHandler) Option {
	return func(s *settings) { s.onError = h }
}

// WithTrustStore uses store for HTTPS verification.
func WithTrustStore(store *truststore.Store) Option {
	return func(s *settings) { s.store = store }
}

// WithCACertPEM trusts exactly the certificates in pem.
func WithCACertPEM(pem []byte) Option {
	return func(s *settings) { s.caPEM = pem }
}

// WithMetrics records request metrics into c.
func WithMetrics(c *metrics.Collector) Option {
	return func(s *settings) { s.metrics = c }
}

// WithTransport replaces the network transport.
func WithTransport(t Exchanger) Option {
	return func(s *settings) { s.transport = t }
}

// WithClock sets the clock used for timings.
func WithClock(c clock.Clock) Option {
	return func(s *settings) { s.clock = c }
}

// New returns a Client. The CA trust store is loaded here, once.
func New(opts ...Option) (*Client, error) {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}

	if s.cfg == nil {
		s.cfg = config.Default()
	}
	if err := s.cfg.Validate(); err != nil {
		return nil, errors.New(errors.ErrorTypeValidation, "invalid configuration", err)
	}
	profile, err := s.cfg.VersionProfile()
	if err != nil {
		return nil, errors.New(errors.ErrorTypeValidation, "invalid configuration", err)
	}

	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.clock == nil {
		s.clock = clock.New()
	}
	if s.store == nil {
		store, err := truststore.Load(truststore.Options{PEM: s.caPEM, CAFile: s.cfg.CAFile})
		if err != nil {
			return nil, errors.New(errors.ErrorTypeValidation, "loading CA trust store", err)
		}
		s.store = store
	}
	if s.transport == nil {
		s.transport = transport.New().WithLogger(s.logger)
	}

	return &Client{
		cfg:       s.cfg,
		profile:   profile,
		logger:    s.logger,
		store:     s.store,
		transport: s.transport,
		metrics:   s.metrics,
		clock:     s.clock,
		onError:   s.onError,
	}, nil
}

// SetErrorHandler installs h, replacing any previous handler.
func (c *Client) SetErrorHandler(h ErrorHandler) {
	c.mu.Lock()
	c.onError = h
	c.mu.Unlock()
}

// ClearErrorHandler removes the error handler.
func (c *Client) ClearErrorHandler() {
	c.SetErrorHandler(nil)
}

// TrustStore returns the client's CA trust store.
func (c *Client) TrustStore() *truststore.Store {
	return c.store
}

// OverrideCABundle replaces the trusted CA bundle. It fails once an HTTPS
// request has been submitted.
func (c *Client) OverrideCABundle(pem []byte) error {
	if !c.initialized() {
		return errors.NewUninitializedError()
	}
	if err := c.store.Override(pem); err != nil {
		return errors.New(errors.ErrorTypeValidation, "overriding CA bundle", err)
	}
	return nil
}

func (c *Client) initialized() bool {
	return c != nil && c.transport != nil
}

// Submit performs req synchronously: parse the URL, serialize, exchange over
// a fresh connection, parse the response. Argument errors are reported
// before any network activity. On error no response is returned.
func (c *Client) Submit(ctx context.Context, req *request.Request) (*response.Response, error) {
	if !c.initialized() {
		return nil, errors.NewUninitializedError()
	}

	id := uuid.NewString()
	start := c.clock.Now()

	resp, scheme, err := c.submit(ctx, id, req)
	if err != nil {
		c.fail(id, req, scheme, err, c.clock.Since(start))
		return nil, err
	}

	c.metrics.ObserveSuccess(scheme, resp.StatusCode, len(resp.Raw), c.clock.Since(start))
	return resp, nil
}

func (c *Client) submit(ctx context.Context, id string, req *request.Request) (*response.Response, string, error) {
	if req == nil {
		return nil, "", errors.NewNullArgumentError("request")
	}

	target, err := urlparser.Parse(req.URL)
	if err != nil {
		return nil, "", err
	}
	payload, err := request.Serialize(req, target)
	if err != nil {
		return nil, target.Scheme, err
	}
	if req.ConnectIP != "" && net.ParseIP(req.ConnectIP) == nil {
		return nil, target.Scheme, errors.NewValidationError("connect IP " + req.ConnectIP + " is not an IP address")
	}

	tc := c.transportConfig(req, target)
	timer := timing.NewTimerWithClock(c.clock)

	c.logger.Debug("submitting request",
		zap.String("request_id", id),
		zap.String("method", req.Method.String()),
		zap.String("url", target.String()),
		zap.Int("payload_bytes", len(payload)))

	result, err := c.transport.Exchange(ctx, tc, payload, timer)
	if err != nil {
		return nil, target.Scheme, err
	}

	timer.StartParse()
	resp, err := response.ParseWithOptions(result.Raw, response.Options{NoBody: req.Method == request.MethodHead})
	timer.EndParse()
	if err != nil {
		return nil, target.Scheme, err
	}

	resp.RequestID = id
	resp.Timings = timer.GetMetrics()
	resp.ConnectedIP = result.Meta.ConnectedIP
	resp.ConnectedPort = result.Meta.ConnectedPort
	resp.TLSVersion = result.Meta.TLSVersion
	resp.TLSCipherSuite = result.Meta.TLSCipherSuite
	resp.TLSServerName = result.Meta.TLSServerName
	resp.NegotiatedProtocol = result.Meta.NegotiatedProtocol

	c.logger.Debug("request completed",
		zap.String("request_id", id),
		zap.Int("status", resp.StatusCode),
		zap.Int("raw_bytes", len(result.Raw)),
		zap.Duration("total", resp.Timings.TotalTime))

	return resp, target.Scheme, nil
}

func (c *Client) transportConfig(req *request.Request, target *urlparser.Target) transport.Config {
	bufferSize := req.BufferSize
	if bufferSize <= 0 {
		bufferSize = c.cfg.BufferSize
	}

	tc := transport.Config{
		Scheme:          target.Scheme,
		Host:            target.Hostname,
		Port:            target.Port,
		ConnectIP:       req.ConnectIP,
		ConnTimeout:     c.cfg.ConnTimeout,
		DNSTimeout:      c.cfg.DNSTimeout,
		ReadTimeout:     c.cfg.ReadTimeout,
		WriteTimeout:    c.cfg.WriteTimeout,
		BufferSize:      bufferSize,
		MaxResponseSize: c.cfg.MaxResponseSize,
	}

	if target.IsTLS() {
		c.store.Freeze()
		tc.ServerName = target.Hostname
		tc.RootCAs = c.store.Pool()
		tc.VerifyOptional = req.SSLVerificationOptional
		tc.TLSProfile = c.profile
	}
	return tc
}

func (c *Client) fail(id string, req *request.Request, scheme string, err error, elapsed time.Duration) {
	errType := errors.GetErrorType(err)

	url := ""
	if req != nil {
		url = req.URL
	}
	c.logger.Warn("request failed",
		zap.String("request_id", id),
		zap.String("url", url),
		zap.String("error_type", string(errType)),
		zap.Error(err))

	c.metrics.ObserveError(scheme, string(errType), elapsed)

	c.mu.RLock()
	h := c.onError
	c.mu.RUnlock()
	if h != nil {
		h(err.Error())
	}
}
