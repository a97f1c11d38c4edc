package rawfetch_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rawfetch "github.com/WhileEndless/go-rawfetch"
	"github.com/WhileEndless/go-rawfetch/internal/testserver"
)

func TestFetch(t *testing.T) {
	srv := testserver.Start(t, testserver.Respond("HTTP/1.1 404 Not Found\r\nServer: test\r\nContent-Length: 0\r\n\r\n"))

	resp, err := rawfetch.Fetch(context.Background(), srv.URL("http", "/missing"))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
	assert.Equal(t, "test", resp.Server)
	assert.False(t, resp.HasContent())
}

func TestFetchErrors(t *testing.T) {
	_, err := rawfetch.Fetch(context.Background(), "gopher://example.com/")
	assert.Equal(t, rawfetch.ErrorTypeValidation, rawfetch.GetErrorType(err))

	_, err = rawfetch.Fetch(context.Background(), "")
	assert.Equal(t, rawfetch.ErrorTypeNullArgument, rawfetch.GetErrorType(err))
}

func TestFetchLogsAtConfiguredLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected bool
	}{
		{"debug", true},
		{"warn", false},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			srv := testserver.Start(t, testserver.Respond("HTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n"))
			logPath := filepath.Join(t.TempDir(), "rawfetch.log")
			t.Setenv("RAWFETCH_LOG_LEVEL", tt.level)
			t.Setenv("RAWFETCH_LOG_OUTPUT", logPath)

			_, err := rawfetch.Fetch(context.Background(), srv.URL("http", "/"))
			require.NoError(t, err)

			data, err := os.ReadFile(logPath)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, strings.Contains(string(data), "submitting request"))
			assert.Equal(t, tt.expected, strings.Contains(string(data), "request completed"))
		})
	}
}

func TestFetchFailureLoggedAtWarn(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "rawfetch.log")
	t.Setenv("RAWFETCH_LOG_LEVEL", "warn")
	t.Setenv("RAWFETCH_LOG_OUTPUT", logPath)

	_, err := rawfetch.Fetch(context.Background(), "http://example.com:0/")
	require.Error(t, err)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "request failed")
	assert.Contains(t, string(data), `"error_type":"invalid_port"`)
}

func TestNewClientSubmit(t *testing.T) {
	srv := testserver.Start(t, testserver.Respond("HTTP/1.1 201 Created\r\nContent-Length: 2\r\n\r\nok"))

	c, err := rawfetch.NewClient()
	require.NoError(t, err)

	req := rawfetch.NewRequest(rawfetch.MethodPost, srv.URL("http", "/items"))
	req.SetBody("text/plain", []byte("x"))

	resp, err := c.Submit(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 201, resp.StatusCode)
	assert.Equal(t, "ok", resp.Text())
}

func TestVersion(t *testing.T) {
	assert.Equal(t, rawfetch.Version, rawfetch.GetVersion())
}
