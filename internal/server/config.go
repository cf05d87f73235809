package server

import (
	"net"
	"strconv"
	"time"

	"github.com/agentstation/sightline/pkg/constants"
	"github.com/agentstation/sightline/pkg/errors"
)

// Config holds server configuration.
type Config struct {
	// Server settings
	Host string
	Port int

	// API settings
	PathPrefix string

	// CORSEnabled adds CORS headers. Empty CORSOrigins allows any origin.
	CORSEnabled bool
	CORSOrigins []string

	// Sessions expire after SessionTTL without access.
	SessionTTL time.Duration

	// MaxUploadBytes caps request bodies.
	MaxUploadBytes int64

	// HTTP timeouts
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Features
	MetricsEnabled bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Host:           "localhost",
		Port:           8080,
		PathPrefix:     constants.DefaultPathPrefix,
		SessionTTL:     constants.SessionTTL,
		MaxUploadBytes: constants.MaxUploadBytes,
		ReadTimeout:    constants.DefaultReadTimeout,
		WriteTimeout:   constants.DefaultWriteTimeout,
		IdleTimeout:    120 * time.Second,
		MetricsEnabled: true,
	}
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Validate rejects a port outside 1-65535 and a non-positive session TTL
// or upload limit.
func (c Config) Validate() error {
	switch {
	case c.Port < 1 || c.Port > 65535:
		return errors.NewValidationError("port", c.Port, "must be between 1 and 65535")
	case c.SessionTTL <= 0:
		return errors.NewValidationError("session-ttl", c.SessionTTL, "must be positive")
	case c.MaxUploadBytes <= 0:
		return errors.NewValidationError("max-upload", c.MaxUploadBytes, "must be positive")
	}
	return nil
}

// withDefaults fills zero values from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.PathPrefix == "" {
		c.PathPrefix = d.PathPrefix
	}
	if c.SessionTTL == 0 {
		c.SessionTTL = d.SessionTTL
	}
	if c.MaxUploadBytes == 0 {
		c.MaxUploadBytes = d.MaxUploadBytes
	}
	return c
}
