package response

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/WhileEndless/go-rawfetch/pkg/constants"
	"github.com/WhileEndless/go-rawfetch/pkg/errors"
	"github.com/WhileEndless/go-rawfetch/pkg/header"
)

const (
	statusPrefix  = "HTTP/"
	fieldSep      = ": "
	chunkedPrefix = "Transfer-Encoding: chunked"
)

// wellKnown fields are captured at most once each.
type wellKnown int

const (
	fieldServer wellKnown = iota
	fieldDate
	fieldContentType
	fieldContentEncoding
	fieldContentLength
	fieldChunked
	fieldCount
)

var wellKnownPrefixes = [...]string{
	fieldServer:          header.Server + fieldSep,
	fieldDate:            header.Date + fieldSep,
	fieldContentType:     header.ContentType + fieldSep,
	fieldContentEncoding: header.ContentEncoding + fieldSep,
	fieldContentLength:   header.ContentLength + fieldSep,
}

// Options adjusts parsing for the request that produced the response.
type Options struct {
	// NoBody skips body extraction, as required for responses to HEAD.
	NoBody bool
}

// Parse parses a complete raw HTTP/1.x response.
func Parse(raw []byte) (*Response, error) {
	return ParseWithOptions(raw, Options{})
}

// ParseWithOptions parses raw in a single pass: status line, header lines up
// to the first empty line, then the body framed by Content-Length or chunked
// transfer coding. On error no response is returned.
func ParseWithOptions(raw []byte, opts Options) (resp *Response, err error) {
	if len(raw) == 0 {
		return nil, errors.NewProtocolError("response is empty", nil)
	}

	defer func() {
		if r := recover(); r != nil {
			if r != bytes.ErrTooLarge {
				panic(r)
			}
			resp, err = nil, errors.NewOutOfMemoryError("response parsing", bytes.ErrTooLarge)
		}
	}()

	p := &parser{
		resp: &Response{StatusCode: StatusUnknown, Raw: string(raw)},
		sc:   newLineScanner(raw),
	}
	if err := p.run(opts); err != nil {
		return nil, err
	}
	p.resp.HeadersCount = p.resp.Headers.Len()
	return p.resp, nil
}

type parser struct {
	resp *Response
	sc   *lineScanner
	seen [fieldCount]bool
}

func (p *parser) run(opts Options) error {
	status, ok := p.sc.next()
	if !ok {
		p.parseStatusLine(p.sc.rest())
		return nil
	}
	p.parseStatusLine(status)

	boundary := false
	for {
		line, ok := p.sc.next()
		if !ok {
			break
		}
		if len(line) == 0 {
			boundary = true
			break
		}
		if err := p.parseHeader(line); err != nil {
			return err
		}
	}

	if opts.NoBody {
		p.resp.ContentLength = 0
		return nil
	}
	if !boundary {
		if p.resp.ContentLength > 0 {
			return errors.NewProtocolError("header block is not terminated", nil)
		}
		return nil
	}
	return p.parseBody(p.sc.rest())
}

// parseStatusLine reads "HTTP/x.y NNN reason". A malformed line leaves the
// status code at StatusUnknown without failing the parse.
func (p *parser) parseStatusLine(line []byte) {
	p.resp.StatusLine = string(line)
	if len(line) < len(statusPrefix) || !bytes.EqualFold(line[:len(statusPrefix)], []byte(statusPrefix)) {
		return
	}

	sp := bytes.IndexByte(line, ' ')
	if sp < 0 {
		return
	}
	p.resp.HTTPVersion = string(line[:sp])

	code := line[sp+1:]
	if end := bytes.IndexByte(code, ' '); end >= 0 {
		code = code[:end]
	}
	if len(code) != 3 {
		return
	}
	n := 0
	for _, c := range code {
		if c < '0' || c > '9' {
			return
		}
		n = n*10 + int(c-'0')
	}
	p.resp.StatusCode = n
}

func (p *parser) parseHeader(line []byte) error {
	for field, prefix := range wellKnownPrefixes {
		if p.seen[field] || !hasPrefixFold(line, prefix) {
			continue
		}
		p.seen[field] = true

		name := string(line[:len(prefix)-len(fieldSep)])
		value := string(bytes.TrimSpace(line[len(prefix):]))

		switch wellKnown(field) {
		case fieldServer:
			p.resp.Server = value
		case fieldDate:
			p.resp.Date = value
		case fieldContentType:
			p.resp.ContentType = value
		case fieldContentEncoding:
			p.resp.ContentEncoding = value
		case fieldContentLength:
			n, err := parseContentLength(value)
			if err != nil {
				return err
			}
			p.resp.ContentLength = n
			value = strconv.FormatInt(n, 10)
		}
		p.resp.Headers.Add(name, value)
		return nil
	}

	if !p.seen[fieldChunked] && hasPrefixFold(line, chunkedPrefix) {
		p.seen[fieldChunked] = true
		p.resp.Chunked = true
		p.resp.Headers.Add(header.TransferEncoding, "chunked")
		return nil
	}

	idx := bytes.Index(line, []byte(fieldSep))
	if idx < 0 {
		return nil
	}
	name := string(line[:idx])
	value := string(bytes.TrimSpace(line[idx+len(fieldSep):]))
	if !p.resp.Chunked && strings.EqualFold(name, header.TransferEncoding) && lastCodingIsChunked(value) {
		p.resp.Chunked = true
	}
	p.resp.Headers.Add(name, value)
	return nil
}

func (p *parser) parseBody(body []byte) error {
	if p.resp.Chunked {
		content, err := decodeChunked(body)
		if err != nil {
			return errors.NewProtocolError("malformed chunked body", err)
		}
		if len(content) > 0 {
			p.resp.Content = append([]byte(nil), content...)
		}
		return nil
	}

	n := p.resp.ContentLength
	if n == 0 {
		return nil
	}
	if int64(len(body)) < n {
		return errors.NewProtocolError(
			"body truncated: "+strconv.FormatInt(n, 10)+" bytes declared, "+strconv.Itoa(len(body))+" received", nil)
	}
	p.resp.Content = append([]byte(nil), body[:n]...)
	return nil
}

func parseContentLength(value string) (int64, error) {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, errors.NewProtocolError("invalid Content-Length "+strconv.Quote(value), err)
	}
	if n < 0 {
		return 0, errors.NewProtocolError("negative Content-Length not allowed", nil)
	}
	if n > constants.MaxContentLength {
		return 0, errors.NewOverflowError(constants.MaxContentLength)
	}
	return n, nil
}

func hasPrefixFold(line []byte, prefix string) bool {
	return len(line) >= len(prefix) && strings.EqualFold(string(line[:len(prefix)]), prefix)
}

// lastCodingIsChunked reports whether chunked is the final transfer coding,
// e.g. "gzip, chunked".
func lastCodingIsChunked(value string) bool {
	codings := strings.Split(value, ",")
	return strings.EqualFold(strings.TrimSpace(codings[len(codings)-1]), "chunked")
}
