// Package tlsconfig builds the crypto/tls configuration used for HTTPS requests.
package tlsconfig

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"strings"
)

// VersionProfile is a pre-configured TLS version range.
type VersionProfile struct {
	Name        string
	Min         uint16
	Max         uint16
	Description string
}

var (
	// ProfileModern - TLS 1.3 only (most secure, may not work with all servers)
	ProfileModern = VersionProfile{
		Name:        "modern",
		Min:         tls.VersionTLS13,
		Max:         tls.VersionTLS13,
		Description: "TLS 1.3 only - maximum security, modern servers only",
	}

	// ProfileSecure - TLS 1.2 and 1.3 (default)
	ProfileSecure = VersionProfile{
		Name:        "secure",
		Min:         tls.VersionTLS12,
		Max:         tls.VersionTLS13,
		Description: "TLS 1.2+ - secure and widely compatible",
	}

	// ProfileCompatible - TLS 1.0 through 1.3 (maximum compatibility, less secure)
	ProfileCompatible = VersionProfile{
		Name:        "compatible",
		Min:         tls.VersionTLS10,
		Max:         tls.VersionTLS13,
		Description: "TLS 1.0+ - maximum compatibility, includes deprecated versions",
	}
)

// ProfileByName looks a profile up by name. An empty name selects ProfileSecure.
func ProfileByName(name string) (VersionProfile, error) {
	switch strings.ToLower(name) {
	case "", ProfileSecure.Name:
		return ProfileSecure, nil
	case ProfileModern.Name:
		return ProfileModern, nil
	case ProfileCompatible.Name:
		return ProfileCompatible, nil
	default:
		return VersionProfile{}, fmt.Errorf("unknown TLS profile %q", name)
	}
}

// Params are the inputs of a client handshake.
type Params struct {
	ServerName string
	// RootCAs of nil means the platform roots.
	RootCAs *x509.CertPool
	// VerifyOptional skips certificate verification.
	VerifyOptional bool
	Profile        VersionProfile
}

// Build returns a client configuration for p. The connection is one-shot, so
// only http/1.1 is offered via ALPN and session tickets are disabled.
func Build(p Params) *tls.Config {
	profile := p.Profile
	if profile.Min == 0 {
		profile = ProfileSecure
	}

	cfg := &tls.Config{
		ServerName:             p.ServerName,
		RootCAs:                p.RootCAs,
		InsecureSkipVerify:     p.VerifyOptional,
		NextProtos:             []string{"http/1.1"},
		SessionTicketsDisabled: true,
	}
	ApplyVersionProfile(cfg, profile)
	return cfg
}

// ApplyVersionProfile applies a pre-configured version profile to tls.Config
func ApplyVersionProfile(config *tls.Config, profile VersionProfile) {
	config.MinVersion = profile.Min
	config.MaxVersion = profile.Max
}

// GetVersionName returns human-readable name for SSL/TLS version
func GetVersionName(version uint16) string {
	switch version {
	case tls.VersionTLS10:
		return "TLS 1.0"
	case tls.VersionTLS11:
		return "TLS 1.1"
	case tls.VersionTLS12:
		return "TLS 1.2"
	case tls.VersionTLS13:
		return "TLS 1.3"
	default:
		return "Unknown"
	}
}

// IsVersionDeprecated returns true if the version is deprecated/insecure
func IsVersionDeprecated(version uint16) bool {
	return version < tls.VersionTLS12
}

// GetCipherSuiteName returns human-readable name for cipher suite
func GetCipherSuiteName(suite uint16) string {
	return tls.CipherSuiteName(suite)
}
