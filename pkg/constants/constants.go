// Package constants defines magic numbers and default values used throughout go-rawfetch
package constants

import "time"

// Connection timeouts
const (
	DefaultConnTimeout  = 10 * time.Second
	DefaultDNSTimeout   = 5 * time.Second
	DefaultReadTimeout  = 30 * time.Second
	DefaultWriteTimeout = 30 * time.Second
)

// Default ports per scheme
const (
	DefaultHTTPPort  = 80
	DefaultHTTPSPort = 443
)

// URL limits
const (
	MaxHostLength = 255
	MinPort       = 1
	MaxPort       = 65535
)

// Buffer limits
const (
	// DefaultBufferSize is the read chunk size used when a request gives no hint.
	DefaultBufferSize = 8192
	// MaxBufferSize bounds a caller supplied read chunk size.
	MaxBufferSize = 16 * 1024 * 1024
	// MaxResponseSize caps the accumulated raw response.
	MaxResponseSize = 100 * 1024 * 1024
	// MaxContentLength is the largest Content-Length the parser accepts.
	MaxContentLength = 1024 * 1024 * 1024
)
