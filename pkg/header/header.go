// Package header provides the ordered header collection shared by requests and responses.
package header

import "strings"

// Well-known header names.
const (
	Server           = "Server"
	Date             = "Date"
	ContentType      = "Content-Type"
	ContentEncoding  = "Content-Encoding"
	ContentLength    = "Content-Length"
	TransferEncoding = "Transfer-Encoding"
	Host             = "Host"
	Connection       = "Connection"
)

// Header is a single name/value pair. Type holds the name without the trailing colon.
type Header struct {
	Type  string
	Value string
}

// String renders the header as it appears on the wire, without the line terminator.
func (h Header) String() string {
	return h.Type + ": " + h.Value
}

// Is reports whether the header name matches name, ignoring case.
func (h Header) Is(name string) bool {
	return strings.EqualFold(h.Type, name)
}

// List is an ordered header collection. Names keep the case they were added with.
type List []Header

// Add appends a header, preserving insertion order.
func (l *List) Add(name, value string) {
	*l = append(*l, Header{Type: name, Value: value})
}

// Get returns the value of the first header named name, ignoring case.
func (l List) Get(name string) (string, bool) {
	for _, h := range l {
		if h.Is(name) {
			return h.Value, true
		}
	}
	return "", false
}

// Values returns every value stored under name in encounter order.
func (l List) Values(name string) []string {
	var out []string
	for _, h := range l {
		if h.Is(name) {
			out = append(out, h.Value)
		}
	}
	return out
}

// Has reports whether a header named name is present.
func (l List) Has(name string) bool {
	_, ok := l.Get(name)
	return ok
}

// Len returns the number of headers.
func (l List) Len() int {
	return len(l)
}

// Each calls fn for every header in order until fn returns false.
func (l List) Each(fn func(Header) bool) {
	for _, h := range l {
		if !fn(h) {
			return
		}
	}
}

// Clone returns an independent copy of the list.
func (l List) Clone() List {
	if l == nil {
		return nil
	}
	out := make(List, len(l))
	copy(out, l)
	return out
}

// Map groups values by name as written, for callers that prefer map access.
func (l List) Map() map[string][]string {
	m := make(map[string][]string, len(l))
	for _, h := range l {
		m[h.Type] = append(m[h.Type], h.Value)
	}
	return m
}
