package request

import (
	"strings"

	"github.com/WhileEndless/go-rawfetch/pkg/errors"
)

// Method identifies the HTTP request method. The zero value is GET.
type Method int

const (
	MethodGet Method = iota
	MethodHead
	MethodPost
	MethodPatch
	MethodPut
	MethodDelete
	MethodConnect
	MethodOptions
	MethodTrace
)

var methodNames = [...]string{
	MethodGet:     "GET",
	MethodHead:    "HEAD",
	MethodPost:    "POST",
	MethodPatch:   "PATCH",
	MethodPut:     "PUT",
	MethodDelete:  "DELETE",
	MethodConnect: "CONNECT",
	MethodOptions: "OPTIONS",
	MethodTrace:   "TRACE",
}

// Valid reports whether m is one of the recognized methods.
func (m Method) Valid() bool {
	return m >= MethodGet && int(m) < len(methodNames)
}

// Token returns the request-line token for m.
func (m Method) Token() (string, error) {
	if !m.Valid() {
		return "", errors.NewInvalidMethodError(int(m))
	}
	return methodNames[m], nil
}

// String implements fmt.Stringer.
func (m Method) String() string {
	if tok, err := m.Token(); err == nil {
		return tok
	}
	return "INVALID"
}

// ParseMethod maps a method token, in any case, back to its Method.
func ParseMethod(token string) (Method, error) {
	for i, name := range methodNames {
		if strings.EqualFold(name, token) {
			return Method(i), nil
		}
	}
	return 0, errors.New(errors.ErrorTypeInvalidMethod, "unknown HTTP method "+token, nil)
}
