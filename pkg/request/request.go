// Package request defines the request model and serializes it into raw HTTP/1.1 bytes.
package request

import (
	"bytes"
	"strconv"

	"golang.org/x/net/http/httpguts"

	"github.com/WhileEndless/go-rawfetch/pkg/errors"
	"github.com/WhileEndless/go-rawfetch/pkg/header"
	"github.com/WhileEndless/go-rawfetch/pkg/urlparser"
)

const (
	crlf      = "\r\n"
	separator = ": "
	version   = "HTTP/1.1"
)

// Request describes a single one-shot HTTP request. It is read-only once
// handed to a client.
type Request struct {
	URL    string
	Method Method

	// Content is sent only together with a non-empty ContentType.
	Content         []byte
	ContentType     string
	ContentEncoding string
	// ContentLength limits how much of Content is sent. Zero means all of it.
	ContentLength int

	// Headers are written after Host and Connection, in order.
	Headers header.List

	// BufferSize is the read chunk size hint. Zero selects the default.
	BufferSize int

	// SSLVerificationOptional disables certificate verification for HTTPS.
	SSLVerificationOptional bool

	// ConnectIP dials this address instead of resolving the URL host. The
	// Host header and TLS server name still come from the URL.
	ConnectIP string
}

// New returns a request for method and url.
func New(method Method, url string) *Request {
	return &Request{URL: url, Method: method}
}

// AddHeader appends an additional header.
func (r *Request) AddHeader(name, value string) *Request {
	r.Headers.Add(name, value)
	return r
}

// SetBody sets the content and its type.
func (r *Request) SetBody(contentType string, content []byte) *Request {
	r.ContentType = contentType
	r.Content = content
	r.ContentLength = 0
	return r
}

// BodyLength returns the number of content bytes that will be sent, or an
// error when ContentLength does not fit Content.
func (r *Request) BodyLength() (int, error) {
	n := r.ContentLength
	if n == 0 {
		n = len(r.Content)
	}
	if n < 0 || n > len(r.Content) {
		return 0, errors.NewValidationError("content length " + strconv.Itoa(r.ContentLength) +
			" does not match content of " + strconv.Itoa(len(r.Content)) + " bytes")
	}
	return n, nil
}

// HasBody reports whether the body block is emitted.
func (r *Request) HasBody() bool {
	n, err := r.BodyLength()
	return err == nil && r.Content != nil && r.ContentType != "" && n > 0
}

// Serialize renders req for target as raw HTTP/1.1 request bytes.
//
// The connection is always marked Connection: Close. When a body is present
// it is followed by a CRLF before the terminating empty line.
func Serialize(req *Request, target *urlparser.Target) ([]byte, error) {
	if req == nil {
		return nil, errors.NewNullArgumentError("request")
	}
	if target == nil {
		return nil, errors.NewNullArgumentError("target")
	}

	method, err := req.Method.Token()
	if err != nil {
		return nil, err
	}

	n, err := req.BodyLength()
	if err != nil {
		return nil, err
	}

	for _, h := range req.Headers {
		if !httpguts.ValidHeaderFieldName(h.Type) {
			return nil, errors.NewValidationError("invalid header name " + strconv.Quote(h.Type))
		}
		if !httpguts.ValidHeaderFieldValue(h.Value) {
			return nil, errors.NewValidationError("invalid value for header " + h.Type)
		}
	}
	if !httpguts.ValidHeaderFieldValue(req.ContentType) || !httpguts.ValidHeaderFieldValue(req.ContentEncoding) {
		return nil, errors.NewValidationError("invalid content type or encoding")
	}

	var buf bytes.Buffer
	buf.Grow(len(method) + len(target.Path) + len(target.Authority) + 64 + n)

	buf.WriteString(method)
	buf.WriteByte(' ')
	buf.WriteString(target.Path)
	buf.WriteByte(' ')
	buf.WriteString(version)
	buf.WriteString(crlf)

	writeHeader(&buf, header.Host, target.Authority)
	writeHeader(&buf, header.Connection, "Close")

	for _, h := range req.Headers {
		writeHeader(&buf, h.Type, h.Value)
	}

	if req.HasBody() {
		writeHeader(&buf, header.ContentType, req.ContentType)
		if req.ContentEncoding != "" {
			writeHeader(&buf, header.ContentEncoding, req.ContentEncoding)
		}
		writeHeader(&buf, header.ContentLength, strconv.Itoa(n))
		buf.WriteString(crlf)
		buf.Write(req.Content[:n])
		buf.WriteString(crlf)
	}

	buf.WriteString(crlf)
	return buf.Bytes(), nil
}

func writeHeader(buf *bytes.Buffer, name, value string) {
	buf.WriteString(name)
	buf.WriteString(separator)
	buf.WriteString(value)
	buf.WriteString(crlf)
}
