// Package testserver runs throwaway raw TCP and TLS servers for tests.
package testserver

import (
	"bufio"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"io"
	"math/big"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"
)

// Handler serves one accepted connection. The connection is closed when it returns.
type Handler func(conn net.Conn)

// Server accepts connections on a loopback port until closed.
type Server struct {
	ln   net.Listener
	Addr *net.TCPAddr

	wg       sync.WaitGroup
	once     sync.Once
	mu       sync.Mutex
	accepted int
}

// Start serves plain TCP connections with handle.
func Start(t testing.TB, handle Handler) *Server {
	t.Helper()
	return serve(t, ListenTCP(t), handle)
}

// StartTLS serves TLS connections with handle using cert.
func StartTLS(t testing.TB, cert tls.Certificate, handle Handler) *Server {
	t.Helper()
	ln := tls.NewListener(ListenTCP(t), &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	})
	return serve(t, ln, handle)
}

func serve(t testing.TB, ln net.Listener, handle Handler) *Server {
	s := &Server{ln: ln, Addr: ln.Addr().(*net.TCPAddr)}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			s.mu.Lock()
			s.accepted++
			s.mu.Unlock()

			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				defer conn.Close()
				conn.SetDeadline(time.Now().Add(5 * time.Second))
				handle(conn)
			}()
		}
	}()
	t.Cleanup(s.Close)
	return s
}

// URL returns scheme://127.0.0.1:port + path.
func (s *Server) URL(scheme, path string) string {
	return fmt.Sprintf("%s://%s%s", scheme, s.Addr.String(), path)
}

// Accepted returns the number of accepted connections.
func (s *Server) Accepted() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accepted
}

// Close stops the listener and waits for in-flight handlers.
func (s *Server) Close() {
	s.once.Do(func() {
		s.ln.Close()
		s.wg.Wait()
	})
}

// ListenTCP opens a loopback listener, skipping the test when sockets are not permitted.
func ListenTCP(t testing.TB) net.Listener {
	t.Helper()
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		if isPerm(err) {
			t.Skip("network sockets not permitted in sandbox")
		}
		t.Fatalf("listen: %v", err)
	}
	return ln
}

func isPerm(err error) bool {
	if op, ok := err.(*net.OpError); ok {
		if se, ok := op.Err.(*os.SyscallError); ok && se.Err == syscall.EPERM {
			return true
		}
	}
	return strings.Contains(err.Error(), "operation not permitted")
}

// ReadRequest consumes a request head and its Content-Length body.
func ReadRequest(conn net.Conn) (*http.Request, []byte, error) {
	req, err := http.ReadRequest(bufio.NewReader(conn))
	if err != nil {
		return nil, nil, err
	}
	body, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, nil, err
	}
	return req, body, nil
}

// Respond returns a handler that drains the request and writes raw verbatim.
func Respond(raw string) Handler {
	return func(conn net.Conn) {
		if _, _, err := ReadRequest(conn); err != nil {
			return
		}
		io.WriteString(conn, raw)
		Finish(conn)
	}
}

// Finish half-closes conn and drains whatever the client still sends, so the
// peer sees a clean EOF instead of a reset.
func Finish(conn net.Conn) {
	if cw, ok := conn.(interface{ CloseWrite() error }); ok {
		cw.CloseWrite()
	}
	conn.SetReadDeadline(time.Now().Add(time.Second))
	io.Copy(io.Discard, conn)
}

// Certificate is a self-signed server certificate valid for localhost and 127.0.0.1.
type Certificate struct {
	TLS tls.Certificate
	PEM []byte
}

// GenerateSelfSigned creates a fresh self-signed certificate.
func GenerateSelfSigned() (*Certificate, error) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, err
	}
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(time.Now().UnixNano()),
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		DNSNames:              []string{"localhost"},
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1")},
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &priv.PublicKey, priv)
	if err != nil {
		return nil, err
	}
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(priv)})
	pair, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, err
	}
	return &Certificate{TLS: pair, PEM: certPEM}, nil
}

// MustGenerateSelfSigned is GenerateSelfSigned for tests.
func MustGenerateSelfSigned(t testing.TB) *Certificate {
	t.Helper()
	cert, err := GenerateSelfSigned()
	if err != nil {
		t.Fatalf("generate cert: %v", err)
	}
	return cert
}
