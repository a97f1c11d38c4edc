// Package response holds the parsed HTTP response and the parser that builds it.
package response

import (
	"github.com/WhileEndless/go-rawfetch/pkg/header"
	"github.com/WhileEndless/go-rawfetch/pkg/timing"
)

// StatusUnknown is the status code of a response whose status line could not be read.
const StatusUnknown = -1

// Response is a fully parsed HTTP response.
type Response struct {
	// StatusCode is StatusUnknown when the status line was missing or malformed.
	StatusCode  int
	StatusLine  string
	HTTPVersion string

	// Raw is the complete response as received.
	Raw string

	// Convenience copies of well-known headers; empty when absent.
	Server          string
	Date            string
	ContentType     string
	ContentEncoding string

	// Content is nil when the response carried no body.
	Content []byte
	// ContentLength is the value of the Content-Length header. For chunked
	// responses it is not derived from the reassembled body.
	ContentLength int64
	Chunked       bool

	// Headers lists every header in encounter order, well-known ones included.
	Headers      header.List
	HeadersCount int

	// Connection metadata, filled in by the client.
	RequestID      string
	Timings        timing.Metrics
	ConnectedIP    string
	ConnectedPort  int
	TLSVersion     string
	TLSCipherSuite string
	// TLSServerName is the SNI value sent; NegotiatedProtocol the ALPN result.
	TLSServerName      string
	NegotiatedProtocol string
}

// Header returns the first header named name, ignoring case.
func (r *Response) Header(name string) (string, bool) {
	return r.Headers.Get(name)
}

// HasContent reports whether a body is present.
func (r *Response) HasContent() bool {
	return r.Content != nil
}

// Text returns the body as a string.
func (r *Response) Text() string {
	return string(r.Content)
}
