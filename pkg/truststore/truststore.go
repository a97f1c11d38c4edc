// Package truststore loads the root CA bundle used to verify HTTPS servers.
//
// A Store is built once per client and holds both the PEM text and the parsed
// pool. The bundle may be replaced with Override until the first HTTPS
// request freezes it.
package truststore

import (
	"crypto/x509"
	"os"
	"sync"

	"github.com/pkg/errors"
)

// EnvCertFile names the environment variable that points at a PEM bundle.
const EnvCertFile = "SSL_CERT_FILE"

// bundlePaths lists well-known locations of the system CA bundle.
var bundlePaths = []string{
	"/etc/ssl/certs/ca-certificates.crt",                // Debian/Ubuntu/Gentoo etc.
	"/etc/pki/tls/certs/ca-bundle.crt",                  // Fedora/RHEL 6
	"/etc/ssl/ca-bundle.pem",                            // OpenSUSE
	"/etc/pki/tls/cacert.pem",                           // OpenELEC
	"/etc/pki/ca-trust/extracted/pem/tls-ca-bundle.pem", // CentOS/RHEL 7
	"/etc/ssl/cert.pem",                                 // Alpine Linux, macOS
	"/usr/local/etc/ssl/cert.pem",                       // FreeBSD
}

// ErrFrozen is returned by Override once the store has been used for a handshake.
var ErrFrozen = errors.New("trust store is in use and can no longer be overridden")

// ErrNoCertificates is returned when PEM data holds no certificate.
var ErrNoCertificates = errors.New("no certificates found in PEM data")

// DefaultBundle returns the PEM bundle shipped with the operating system.
func DefaultBundle() ([]byte, error) {
	return readBundle(os.Getenv(EnvCertFile), bundlePaths)
}

func readBundle(override string, paths []string) ([]byte, error) {
	if override != "" {
		data, err := os.ReadFile(override)
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s=%s", EnvCertFile, override)
		}
		return data, nil
	}
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err == nil && len(data) > 0 {
			return data, nil
		}
	}
	return nil, errors.New("no system CA bundle found")
}

// Options selects where the bundle comes from. PEM wins over CAFile; with
// neither set the system bundle is used.
type Options struct {
	PEM    []byte
	CAFile string
}

// Store holds the trust anchors of one client.
type Store struct {
	mu     sync.RWMutex
	pem    []byte
	pool   *x509.CertPool
	frozen bool
}

// New builds a store from PEM data.
func New(pem []byte) (*Store, error) {
	pool, err := parse(pem)
	if err != nil {
		return nil, err
	}
	return &Store{pem: pem, pool: pool}, nil
}

// Load builds a store according to opts. When no explicit source is given and
// no system bundle file exists, the store defers to the platform verifier.
func Load(opts Options) (*Store, error) {
	switch {
	case len(opts.PEM) > 0:
		return New(opts.PEM)
	case opts.CAFile != "":
		data, err := os.ReadFile(opts.CAFile)
		if err != nil {
			return nil, errors.Wrapf(err, "reading CA file %s", opts.CAFile)
		}
		return New(data)
	}

	data, err := DefaultBundle()
	if err != nil {
		return &Store{}, nil
	}
	return New(data)
}

// Override replaces the bundle. It fails once the store is frozen.
func (s *Store) Override(pem []byte) error {
	pool, err := parse(pem)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frozen {
		return ErrFrozen
	}
	s.pem = pem
	s.pool = pool
	return nil
}

// Freeze marks the store as in use.
func (s *Store) Freeze() {
	s.mu.Lock()
	s.frozen = true
	s.mu.Unlock()
}

// Frozen reports whether Freeze was called.
func (s *Store) Frozen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frozen
}

// Bundle returns the PEM text, or nil when the platform verifier is used.
func (s *Store) Bundle() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pem
}

// Pool returns the parsed roots. A nil pool means the platform roots.
func (s *Store) Pool() *x509.CertPool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pool
}

func parse(pem []byte) (*x509.CertPool, error) {
	if len(pem) == 0 {
		return nil, ErrNoCertificates
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, ErrNoCertificates
	}
	return pool, nil
}
