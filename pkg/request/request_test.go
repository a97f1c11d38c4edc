package request

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WhileEndless/go-rawfetch/pkg/errors"
	"github.com/WhileEndless/go-rawfetch/pkg/urlparser"
)

func mustTarget(t *testing.T, url string) *urlparser.Target {
	t.Helper()
	target, err := urlparser.Parse(url)
	require.NoError(t, err)
	return target
}

func TestSerializeGet(t *testing.T) {
	req := New(MethodGet, "http://example.com/index.html")
	req.AddHeader("User-Agent", "rawfetch-test").AddHeader("Accept", "*/*")

	raw, err := Serialize(req, mustTarget(t, req.URL))
	require.NoError(t, err)

	expected := "GET /index.html HTTP/1.1\r\n" +
		"Host: example.com\r\n" +
		"Connection: Close\r\n" +
		"User-Agent: rawfetch-test\r\n" +
		"Accept: */*\r\n" +
		"\r\n"
	assert.Equal(t, expected, string(raw))
}

func TestSerializeHostKeepsExplicitPort(t *testing.T) {
	req := New(MethodHead, "http://localhost:8080/")

	raw, err := Serialize(req, mustTarget(t, req.URL))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "HEAD / HTTP/1.1\r\nHost: localhost:8080\r\n")
}

func TestSerializeBody(t *testing.T) {
	req := New(MethodPost, "https://api.example.com/v1/items")
	req.SetBody("application/json", []byte(`{"a":1}`))
	req.ContentEncoding = "identity"

	raw, err := Serialize(req, mustTarget(t, req.URL))
	require.NoError(t, err)

	expected := "POST /v1/items HTTP/1.1\r\n" +
		"Host: api.example.com\r\n" +
		"Connection: Close\r\n" +
		"Content-Type: application/json\r\n" +
		"Content-Encoding: identity\r\n" +
		"Content-Length: 7\r\n" +
		"\r\n" +
		`{"a":1}` + "\r\n" +
		"\r\n"
	assert.Equal(t, expected, string(raw))
}

func TestSerializeBodyRespectsContentLength(t *testing.T) {
	req := New(MethodPut, "http://example.com/")
	req.SetBody("text/plain", []byte("hello world"))
	req.ContentLength = 5

	raw, err := Serialize(req, mustTarget(t, req.URL))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Content-Length: 5\r\n\r\nhello\r\n\r\n")
}

func TestSerializeOmitsBodyWithoutContentType(t *testing.T) {
	tests := []struct {
		name string
		req  *Request
	}{
		{"no content type", &Request{Method: MethodPost, Content: []byte("data")}},
		{"nil content", &Request{Method: MethodPost, ContentType: "text/plain"}},
		{"empty content", &Request{Method: MethodPost, ContentType: "text/plain", Content: []byte{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := Serialize(tt.req, mustTarget(t, "http://example.com/"))
			require.NoError(t, err)
			assert.NotContains(t, string(raw), "Content-Length")
			assert.NotContains(t, string(raw), "Content-Type")
		})
	}
}

func TestSerializeGetWithBodyIsNotRejected(t *testing.T) {
	req := New(MethodGet, "http://example.com/")
	req.SetBody("text/plain", []byte("x"))

	raw, err := Serialize(req, mustTarget(t, req.URL))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Content-Length: 1\r\n")
}

func TestSerializeErrors(t *testing.T) {
	target := mustTarget(t, "http://example.com/")

	_, err := Serialize(&Request{Method: Method(99)}, target)
	assert.Equal(t, errors.ErrorTypeInvalidMethod, errors.GetErrorType(err))

	_, err = Serialize(&Request{Method: Method(-1)}, target)
	assert.Equal(t, errors.ErrorTypeInvalidMethod, errors.GetErrorType(err))

	_, err = Serialize(nil, target)
	assert.Equal(t, errors.ErrorTypeNullArgument, errors.GetErrorType(err))

	bad := New(MethodGet, "http://example.com/")
	bad.AddHeader("X-Injected", "a\r\nEvil: 1")
	_, err = Serialize(bad, target)
	assert.Equal(t, errors.ErrorTypeValidation, errors.GetErrorType(err))

	long := New(MethodPost, "http://example.com/")
	long.SetBody("text/plain", []byte("abc"))
	long.ContentLength = 10
	_, err = Serialize(long, target)
	assert.Equal(t, errors.ErrorTypeValidation, errors.GetErrorType(err))
}

func TestMethodTokens(t *testing.T) {
	tokens := []string{"GET", "HEAD", "POST", "PATCH", "PUT", "DELETE", "CONNECT", "OPTIONS", "TRACE"}
	for i, tok := range tokens {
		m := Method(i)
		got, err := m.Token()
		require.NoError(t, err)
		assert.Equal(t, tok, got)

		parsed, err := ParseMethod(tok)
		require.NoError(t, err)
		assert.Equal(t, m, parsed)
	}

	assert.Equal(t, "INVALID", Method(9).String())
	_, err := ParseMethod("BREW")
	assert.Error(t, err)
}
