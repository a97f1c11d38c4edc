package response

import "bytes"

var crlf = []byte("\r\n")

// lineScanner walks a byte slice one CRLF-terminated line at a time.
type lineScanner struct {
	data []byte
	pos  int
}

func newLineScanner(data []byte) *lineScanner {
	return &lineScanner{data: data}
}

// next returns the line at the cursor without its terminator and moves past
// it. ok is false when no complete line remains; the cursor does not move.
func (s *lineScanner) next() (line []byte, ok bool) {
	idx := bytes.Index(s.data[s.pos:], crlf)
	if idx < 0 {
		return nil, false
	}
	line = s.data[s.pos : s.pos+idx]
	s.pos += idx + len(crlf)
	return line, true
}

// rest returns everything after the cursor.
func (s *lineScanner) rest() []byte {
	return s.data[s.pos:]
}
