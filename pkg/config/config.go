// Package config loads client settings from RAWFETCH_* environment variables.
package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"

	"github.com/WhileEndless/go-rawfetch/pkg/constants"
	"github.com/WhileEndless/go-rawfetch/pkg/logging"
	"github.com/WhileEndless/go-rawfetch/pkg/tlsconfig"
)

// Prefix is prepended to every environment variable name.
const Prefix = "RAWFETCH"

// Config holds all client configuration.
type Config struct {
	ConnTimeout  time.Duration `envconfig:"CONN_TIMEOUT" default:"10s"`
	DNSTimeout   time.Duration `envconfig:"DNS_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"30s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"30s"`

	// BufferSize is the read chunk size used when a request leaves BufferSize at 0.
	BufferSize      int   `envconfig:"BUFFER_SIZE" default:"8192"`
	MaxResponseSize int64 `envconfig:"MAX_RESPONSE_SIZE" default:"104857600"`

	// CAFile replaces the system bundle when set.
	CAFile     string `envconfig:"CA_FILE"`
	TLSProfile string `envconfig:"TLS_PROFILE" default:"secure"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	LogDev   bool   `envconfig:"LOG_DEV" default:"false"`
	// LogOutput is a comma-separated list of zap sinks.
	LogOutput []string `envconfig:"LOG_OUTPUT" default:"stderr"`
}

// Load loads configuration from environment variables and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		ConnTimeout:     constants.DefaultConnTimeout,
		DNSTimeout:      constants.DefaultDNSTimeout,
		ReadTimeout:     constants.DefaultReadTimeout,
		WriteTimeout:    constants.DefaultWriteTimeout,
		BufferSize:      constants.DefaultBufferSize,
		MaxResponseSize: constants.MaxResponseSize,
		TLSProfile:      tlsconfig.ProfileSecure.Name,
		LogLevel:        "info",
		LogOutput:       []string{"stderr"},
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.ConnTimeout < 0 || c.DNSTimeout < 0 || c.ReadTimeout < 0 || c.WriteTimeout < 0 {
		return errors.New("timeouts must not be negative")
	}
	if c.BufferSize < 0 {
		return errors.Errorf("buffer size %d must not be negative", c.BufferSize)
	}
	if c.MaxResponseSize < 0 {
		return errors.Errorf("max response size %d must not be negative", c.MaxResponseSize)
	}
	if _, err := c.VersionProfile(); err != nil {
		return err
	}
	return nil
}

// VersionProfile resolves TLSProfile.
func (c *Config) VersionProfile() (tlsconfig.VersionProfile, error) {
	p, err := tlsconfig.ProfileByName(c.TLSProfile)
	return p, errors.Wrap(err, "invalid TLS profile")
}

// Logger returns the logging configuration for these settings.
func (c *Config) Logger() logging.Config {
	lc := logging.DefaultConfig()
	lc.Level = c.LogLevel
	lc.Development = c.LogDev
	if len(c.LogOutput) > 0 {
		lc.OutputPaths = c.LogOutput
	}
	return lc
}
