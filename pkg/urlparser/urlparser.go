// Package urlparser decomposes request URLs into scheme, host, port and path.
package urlparser

import (
	"net"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/http/httpguts"
	"golang.org/x/net/idna"

	"github.com/WhileEndless/go-rawfetch/pkg/constants"
	"github.com/WhileEndless/go-rawfetch/pkg/errors"
)

// Supported schemes.
const (
	SchemeHTTP  = "http"
	SchemeHTTPS = "https"

	httpPrefix  = "http://"
	httpsPrefix = "https://"
)

// Target is the decomposed form of a request URL.
type Target struct {
	Scheme string
	// Authority is the host substring exactly as written, port included.
	Authority string
	// Hostname is the host without port or IPv6 brackets, converted to ASCII.
	Hostname string
	Port     int
	// PortExplicit is true when the URL carried a port.
	PortExplicit bool
	Path         string
}

// IsTLS reports whether the target requires a TLS connection.
func (t *Target) IsTLS() bool {
	return t.Scheme == SchemeHTTPS
}

// Address returns the host:port pair suitable for dialing.
func (t *Target) Address() string {
	return net.JoinHostPort(t.Hostname, strconv.Itoa(t.Port))
}

// String reassembles the target into a URL.
func (t *Target) String() string {
	return t.Scheme + "://" + t.Authority + t.Path
}

// Parse splits raw into its components.
//
// The scheme prefix is matched case-insensitively. The host runs up to the
// first '/' (or '?'), so a colon inside the path is never taken as a port.
func Parse(raw string) (*Target, error) {
	if raw == "" {
		return nil, errors.NewNullArgumentError("url")
	}

	var scheme, rest string
	switch {
	case len(raw) >= len(httpsPrefix) && strings.EqualFold(raw[:len(httpsPrefix)], httpsPrefix):
		scheme, rest = SchemeHTTPS, raw[len(httpsPrefix):]
	case len(raw) >= len(httpPrefix) && strings.EqualFold(raw[:len(httpPrefix)], httpPrefix):
		scheme, rest = SchemeHTTP, raw[len(httpPrefix):]
	case len(raw) < len(httpPrefix):
		return nil, errors.NewValidationError("url is shorter than the shortest scheme prefix")
	default:
		return nil, errors.NewValidationError("url must start with http:// or https://")
	}

	authority, path := rest, "/"
	if idx := strings.IndexAny(rest, "/?"); idx >= 0 {
		authority = rest[:idx]
		path = rest[idx:]
		if path[0] == '?' {
			path = "/" + path
		}
	}

	if authority == "" {
		return nil, errors.NewValidationError("url has no host")
	}
	if len(authority) > constants.MaxHostLength {
		return nil, errors.NewValidationError("host exceeds 255 bytes")
	}
	if !validAuthority(authority) {
		return nil, errors.NewValidationError("host contains invalid characters")
	}

	hostname, portStr, hasPort := splitPort(authority)

	port := defaultPort(scheme)
	if hasPort {
		p, err := parsePort(portStr)
		if err != nil {
			return nil, err
		}
		port = p
	}

	hostname, err := normalizeHostname(hostname)
	if err != nil {
		return nil, err
	}

	return &Target{
		Scheme:       scheme,
		Authority:    authority,
		Hostname:     hostname,
		Port:         port,
		PortExplicit: hasPort,
		Path:         path,
	}, nil
}

// splitPort separates an optional trailing port. A colon inside an IPv6
// literal only separates a port when it directly follows the closing bracket.
func splitPort(authority string) (host, port string, ok bool) {
	idx := strings.LastIndexByte(authority, ':')
	if idx < 0 {
		return authority, "", false
	}
	if authority[0] == '[' && (idx == 0 || authority[idx-1] != ']') {
		return authority, "", false
	}
	return authority[:idx], authority[idx+1:], true
}

func parsePort(s string) (int, error) {
	if s == "" {
		return 0, errors.NewInvalidPortError(s, nil)
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, errors.NewInvalidPortError(s, nil)
		}
	}
	p, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.NewInvalidPortError(s, err)
	}
	if p < constants.MinPort || p > constants.MaxPort {
		return 0, errors.NewInvalidPortError(s, nil)
	}
	return p, nil
}

func normalizeHostname(host string) (string, error) {
	if strings.HasPrefix(host, "[") {
		if !strings.HasSuffix(host, "]") || len(host) < 3 {
			return "", errors.NewValidationError("malformed IPv6 literal " + host)
		}
		inner := host[1 : len(host)-1]
		if net.ParseIP(inner) == nil {
			return "", errors.NewValidationError("malformed IPv6 literal " + host)
		}
		return inner, nil
	}
	if host == "" {
		return "", errors.NewValidationError("url has no host")
	}
	if isASCII(host) {
		return host, nil
	}
	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil {
		return "", errors.New(errors.ErrorTypeValidation, "invalid internationalized host "+host, err)
	}
	return ascii, nil
}

// validAuthority rejects bytes that cannot appear in a Host header line.
// Non-ASCII hosts are left to IDNA conversion.
func validAuthority(authority string) bool {
	for i := 0; i < len(authority); i++ {
		if b := authority[i]; b <= ' ' || b == 0x7f {
			return false
		}
	}
	if isASCII(authority) {
		return httpguts.ValidHostHeader(authority)
	}
	return true
}

func defaultPort(scheme string) int {
	if scheme == SchemeHTTPS {
		return constants.DefaultHTTPSPort
	}
	return constants.DefaultHTTPPort
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
