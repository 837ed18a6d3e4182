// Package config provides centralized configuration management for the server.
// Settings come from an optional TOML file, then environment variables, then
// defaults, and are validated on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Workspace WorkspaceConfig `toml:"workspace"`
	Database  DatabaseConfig  `toml:"database"`
	Rate      RateLimitConfig `toml:"rate"`
	Security  SecurityConfig  `toml:"security"`
	Audit     AuditConfig     `toml:"audit"`
	Logging   LoggingConfig   `toml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `toml:"host" env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `toml:"port" env:"SERVER_PORT" default:"8080"`

	ReadTimeout  time.Duration `toml:"read-timeout" env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `toml:"write-timeout" env:"SERVER_WRITE_TIMEOUT" default:"60s"`
	IdleTimeout  time.Duration `toml:"idle-timeout" env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout bounds graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `toml:"shutdown-timeout" env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `toml:"request-timeout" env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// WorkspaceConfig holds table registry and import settings.
type WorkspaceConfig struct {
	// HistoryCapacity is the number of snapshots kept per table (default: 10)
	HistoryCapacity int `toml:"history-capacity" env:"WORKSPACE_HISTORY_CAPACITY" default:"10"`

	// SeedDir is a directory of .csv/.tsv files loaded at startup
	SeedDir string `toml:"seed-dir" env:"WORKSPACE_SEED_DIR"`

	// MaxUploadBytes is the maximum import size in bytes (default: 100MB)
	MaxUploadBytes int64 `toml:"max-upload-bytes" env:"WORKSPACE_MAX_UPLOAD_BYTES" default:"104857600"`

	// MaxConcurrentImports is the number of files parsed at once (default: 4)
	MaxConcurrentImports int `toml:"max-concurrent-imports" env:"WORKSPACE_MAX_CONCURRENT_IMPORTS" default:"4"`

	// ImportWait is how long an import waits for a slot (default: 30s)
	ImportWait time.Duration `toml:"import-wait" env:"WORKSPACE_IMPORT_WAIT" default:"30s"`
}

// DatabaseConfig holds the optional PostgreSQL audit store settings.
// An empty URL keeps the audit trail in memory.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `toml:"url" env:"DATABASE_URL" envAlt:"DB_URL"`

	MaxConns        int           `toml:"max-conns" env:"DB_MAX_CONNS" default:"10"`
	MinConns        int           `toml:"min-conns" env:"DB_MIN_CONNS" default:"0"`
	MaxConnLifetime time.Duration `toml:"max-conn-lifetime" env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `toml:"max-conn-idle-time" env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// RateLimitConfig holds per-client token bucket settings.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `toml:"enabled" env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the refill rate per IP (default: 120)
	RequestsPerMinute int `toml:"requests-per-minute" env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"120"`

	// Burst is the bucket size per IP (default: 30)
	Burst int `toml:"burst" env:"RATE_LIMIT_BURST" default:"30"`

	// UploadLimit is requests per minute for import endpoints (default: 10)
	UploadLimit int `toml:"upload-limit" env:"RATE_LIMIT_UPLOAD" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `toml:"trusted-proxies" env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `toml:"enable-csp" env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey rejects /api requests without a valid X-API-Key header
	RequireAPIKey bool `toml:"require-api-key" env:"SECURITY_REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted API keys
	APIKeys []string `toml:"api-keys" env:"API_KEYS"`
}

// AuditConfig holds audit trail settings.
type AuditConfig struct {
	// Retention is how long entries are kept (default: 30 days)
	Retention time.Duration `toml:"retention" env:"AUDIT_RETENTION" default:"720h"`

	// MemoryCapacity bounds the in-memory log (default: 10000)
	MemoryCapacity int `toml:"memory-capacity" env:"AUDIT_MEMORY_CAPACITY" default:"10000"`

	// CheckInterval is how often the retention job runs (default: 1h)
	CheckInterval time.Duration `toml:"check-interval" env:"AUDIT_CHECK_INTERVAL" default:"1h"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `toml:"level" env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `toml:"format" env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// UsesDatabase reports whether a PostgreSQL audit store is configured.
func (c *DatabaseConfig) UsesDatabase() bool { return c.URL != "" }
