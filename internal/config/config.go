// Package config loads pubsheet settings from environment variables.
// Every field has a default; Load validates the result so a bad setting
// stops the process at startup.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Fetch    FetchConfig
	Tools    ToolsConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
	Audit    AuditConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"8080"`

	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"90s"`
	IdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout bounds the wait for in-flight calls on exit (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout per request (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// FetchConfig controls downloads from Google Sheets.
type FetchConfig struct {
	// BaseURL is the Google Docs origin; tests point it at a local server.
	BaseURL string `env:"FETCH_BASE_URL" default:"https://docs.google.com"`

	// Timeout bounds a single download including redirects (default: 30s)
	Timeout time.Duration `env:"FETCH_TIMEOUT" default:"30s"`

	// MaxBodyBytes caps the CSV export size (default: 50MB)
	MaxBodyBytes int64 `env:"FETCH_MAX_BODY_BYTES" default:"52428800"`

	UserAgent string `env:"FETCH_USER_AGENT" default:"pubsheet/1.0"`
}

// ToolsConfig bounds concurrent tool calls.
type ToolsConfig struct {
	// MaxConcurrent is the number of calls that may run at once (default: 16)
	MaxConcurrent int `env:"TOOLS_MAX_CONCURRENT" default:"16"`

	// MaxWait is how long a call waits for a free slot (default: 10s)
	MaxWait time.Duration `env:"TOOLS_MAX_WAIT" default:"10s"`
}

// RateLimitConfig holds per-IP rate limiting settings.
type RateLimitConfig struct {
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the limit per client IP (default: 120)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"120"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of proxy CIDRs whose
	// X-Forwarded-For and X-Real-IP headers are believed.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// AuditConfig holds the optional call-audit database. With no URL calls are
// not recorded.
type AuditConfig struct {
	URL string `env:"AUDIT_DATABASE_URL" envAlt:"DATABASE_URL"`

	MaxConns        int           `env:"AUDIT_DB_MAX_CONNS" default:"4"`
	MinConns        int           `env:"AUDIT_DB_MIN_CONNS" default:"0"`
	MaxConnLifetime time.Duration `env:"AUDIT_DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"AUDIT_DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// Enabled reports whether an audit database is configured.
func (c *AuditConfig) Enabled() bool {
	return c.URL != ""
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
