// Package transport provides the low-level one-shot HTTP transport: DNS
// resolution, TCP connect, optional TLS upgrade, request write and a
// read-until-close loop.
package transport

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"net"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/WhileEndless/go-rawfetch/pkg/constants"
	"github.com/WhileEndless/go-rawfetch/pkg/errors"
	"github.com/WhileEndless/go-rawfetch/pkg/timing"
	"github.com/WhileEndless/go-rawfetch/pkg/tlsconfig"
)

// Config holds transport configuration for a single exchange.
type Config struct {
	Scheme    string
	Host      string
	Port      int
	ConnectIP string

	// TLS settings, used when Scheme is https.
	ServerName     string
	RootCAs        *x509.CertPool
	VerifyOptional bool
	TLSProfile     tlsconfig.VersionProfile

	ConnTimeout  time.Duration
	DNSTimeout   time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// BufferSize is the read chunk size. Zero selects DefaultBufferSize.
	BufferSize int
	// MaxResponseSize caps the accumulated response. Zero selects MaxResponseSize.
	MaxResponseSize int64
}

// IsTLS reports whether the exchange runs over TLS.
func (c Config) IsTLS() bool {
	return c.Scheme == "https"
}

// ConnMetadata describes the established connection.
type ConnMetadata struct {
	ConnectedIP        string
	ConnectedPort      int
	TLSVersion         string
	TLSCipherSuite     string
	TLSServerName      string
	NegotiatedProtocol string
}

// Result is the outcome of a successful exchange.
type Result struct {
	Raw  []byte
	Meta ConnMetadata
}

// Transport handles the network connection and protocol negotiation.
type Transport struct {
	resolver *net.Resolver
	logger   *zap.Logger
}

// New creates a new Transport instance.
func New() *Transport {
	return NewWithResolver(net.DefaultResolver)
}

// NewWithResolver creates a new Transport with a custom resolver.
func NewWithResolver(resolver *net.Resolver) *Transport {
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	return &Transport{
		resolver: resolver,
		logger:   zap.NewNop(),
	}
}

// WithLogger sets the logger used for debug output and returns t.
func (t *Transport) WithLogger(logger *zap.Logger) *Transport {
	if logger != nil {
		t.logger = logger
	}
	return t
}

// Exchange connects, writes payload, reads until the peer closes and returns
// the accumulated bytes. The connection is closed on every path.
func (t *Transport) Exchange(ctx context.Context, config Config, payload []byte, timer *timing.Timer) (*Result, error) {
	if timer == nil {
		timer = timing.NewTimer()
	}

	conn, meta, err := t.Connect(ctx, config, timer)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	// Unblock pending I/O when ctx ends.
	stop := context.AfterFunc(ctx, func() {
		conn.SetDeadline(time.Now())
	})
	defer stop()

	if err := t.send(ctx, conn, config, payload); err != nil {
		return nil, err
	}

	raw, err := t.receive(ctx, conn, config, timer)
	if err != nil {
		return nil, err
	}

	return &Result{Raw: raw, Meta: meta}, nil
}

// Connect establishes a connection based on the configuration.
func (t *Transport) Connect(ctx context.Context, config Config, timer *timing.Timer) (net.Conn, ConnMetadata, error) {
	var meta ConnMetadata

	if err := t.validateConfig(config); err != nil {
		return nil, meta, err
	}

	connTimeout := config.ConnTimeout
	if connTimeout <= 0 {
		connTimeout = constants.DefaultConnTimeout
	}

	addrs, err := t.resolveAddress(ctx, config, timer)
	if err != nil {
		return nil, meta, err
	}

	conn, err := t.connectTCP(ctx, addrs, connTimeout, timer)
	if err != nil {
		if errors.IsTimeoutError(err) {
			return nil, meta, errors.NewTimeoutError("connect to "+config.Host, connTimeout, err)
		}
		return nil, meta, errors.NewConnectionError(config.Host, config.Port, err)
	}

	if tcpAddr, ok := conn.RemoteAddr().(*net.TCPAddr); ok {
		meta.ConnectedIP = tcpAddr.IP.String()
		meta.ConnectedPort = tcpAddr.Port
	}

	if config.IsTLS() {
		tlsConn, err := t.upgradeTLS(ctx, conn, config, connTimeout, timer)
		if err != nil {
			conn.Close()
			if errors.IsTimeoutError(err) {
				return nil, meta, errors.NewTimeoutError("TLS handshake with "+config.Host, connTimeout, err)
			}
			return nil, meta, errors.NewTLSError(config.Host, config.Port, "handshake", err)
		}
		meta = t.tlsMetadata(config, tlsConn.ConnectionState(), meta)
		conn = tlsConn
	}

	return conn, meta, nil
}

// tlsMetadata records the negotiated parameters and warns about protocol
// versions that should no longer be in use.
func (t *Transport) tlsMetadata(config Config, state tls.ConnectionState, meta ConnMetadata) ConnMetadata {
	meta.TLSVersion = tlsconfig.GetVersionName(state.Version)
	meta.TLSCipherSuite = tlsconfig.GetCipherSuiteName(state.CipherSuite)
	meta.TLSServerName = state.ServerName
	meta.NegotiatedProtocol = state.NegotiatedProtocol
	if tlsconfig.IsVersionDeprecated(state.Version) {
		t.logger.Warn("deprecated TLS version negotiated",
			zap.String("host", config.Host),
			zap.String("version", meta.TLSVersion))
	}
	return meta
}

func (t *Transport) validateConfig(config Config) error {
	if config.Host == "" {
		return errors.NewNullArgumentError("host")
	}
	if config.Port < constants.MinPort || config.Port > constants.MaxPort {
		return errors.NewInvalidPortError(strconv.Itoa(config.Port), nil)
	}
	if config.Scheme != "http" && config.Scheme != "https" {
		return errors.NewValidationError("scheme must be http or https")
	}
	if config.ConnectIP != "" && net.ParseIP(config.ConnectIP) == nil {
		return errors.NewValidationError("connect IP " + config.ConnectIP + " is not an IP address")
	}
	return nil
}

// resolveAddress returns the candidate dial addresses in resolver order.
func (t *Transport) resolveAddress(ctx context.Context, config Config, timer *timing.Timer) ([]string, error) {
	port := strconv.Itoa(config.Port)

	if config.ConnectIP != "" {
		return []string{net.JoinHostPort(config.ConnectIP, port)}, nil
	}
	if ip := net.ParseIP(config.Host); ip != nil {
		return []string{net.JoinHostPort(ip.String(), port)}, nil
	}

	timer.StartDNS()
	defer timer.EndDNS()

	dnsTimeout := config.DNSTimeout
	if dnsTimeout <= 0 {
		dnsTimeout = config.ConnTimeout
	}
	if dnsTimeout <= 0 {
		dnsTimeout = constants.DefaultDNSTimeout
	}

	ctxLookup, cancel := context.WithTimeout(ctx, dnsTimeout)
	defer cancel()

	ips, err := t.resolver.LookupIPAddr(ctxLookup, config.Host)
	if err != nil {
		return nil, errors.NewDNSError(config.Host, err)
	}
	if len(ips) == 0 {
		return nil, errors.NewDNSError(config.Host, errors.NewValidationError("no IP addresses found"))
	}

	addrs := make([]string, 0, len(ips))
	for _, ip := range ips {
		addrs = append(addrs, net.JoinHostPort(ip.IP.String(), port))
	}
	return addrs, nil
}

// connectTCP dials each address in turn and returns the first connection.
func (t *Transport) connectTCP(ctx context.Context, addrs []string, timeout time.Duration, timer *timing.Timer) (net.Conn, error) {
	timer.StartTCP()
	defer timer.EndTCP()

	dialer := &net.Dialer{Timeout: timeout}
	var lastErr error
	for _, addr := range addrs {
		conn, err := dialer.DialContext(ctx, "tcp", addr)
		if err == nil {
			return conn, nil
		}
		t.logger.Debug("dial failed", zap.String("addr", addr), zap.Error(err))
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

func (t *Transport) upgradeTLS(ctx context.Context, conn net.Conn, config Config, timeout time.Duration, timer *timing.Timer) (*tls.Conn, error) {
	timer.StartTLS()
	defer timer.EndTLS()

	tlsCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	serverName := config.ServerName
	if serverName == "" {
		serverName = config.Host
	}

	tlsConn := tls.Client(conn, tlsconfig.Build(tlsconfig.Params{
		ServerName:     serverName,
		RootCAs:        config.RootCAs,
		VerifyOptional: config.VerifyOptional,
		Profile:        config.TLSProfile,
	}))
	if err := tlsConn.HandshakeContext(tlsCtx); err != nil {
		return nil, err
	}
	return tlsConn, nil
}
