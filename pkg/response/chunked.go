package response

import (
	"bytes"
	"strconv"

	"github.com/pkg/errors"
)

// decodeChunked reassembles a chunked body. Parsing stops at the zero-size
// chunk; trailers after it are ignored.
func decodeChunked(body []byte) ([]byte, error) {
	var out bytes.Buffer
	sc := newLineScanner(body)

	for n := 0; ; n++ {
		line, ok := sc.next()
		if !ok {
			return nil, errors.Errorf("chunk %d: size line not terminated", n)
		}

		size, err := parseChunkSize(line)
		if err != nil {
			return nil, errors.Wrapf(err, "chunk %d", n)
		}
		if size == 0 {
			break
		}

		rest := sc.rest()
		if size > int64(len(rest)) {
			return nil, errors.Errorf("chunk %d: %d bytes declared, %d available", n, size, len(rest))
		}
		out.Write(rest[:size])

		if !bytes.HasPrefix(rest[size:], crlf) {
			return nil, errors.Errorf("chunk %d: data not followed by CRLF", n)
		}
		sc.pos += int(size) + len(crlf)
	}

	return out.Bytes(), nil
}

func parseChunkSize(line []byte) (int64, error) {
	if i := bytes.IndexByte(line, ';'); i >= 0 {
		line = line[:i]
	}
	tok := string(bytes.TrimSpace(line))
	if tok == "" {
		return 0, errors.New("empty chunk size")
	}
	size, err := strconv.ParseUint(tok, 16, 63)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid chunk size %q", tok)
	}
	return int64(size), nil
}
