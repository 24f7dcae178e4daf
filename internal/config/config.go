// Wayfarer - Travel Map Photo and Tile Services
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package config

import (
	"net"
	"strconv"
	"time"
)

// Config is the complete server configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Storage  StorageConfig  `koanf:"storage"`
	Database DatabaseConfig `koanf:"database"`
	Tiles    TilesConfig    `koanf:"tiles"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// StorageConfig controls where uploads land and what is accepted.
type StorageConfig struct {
	// ContentRoot is the public content directory. Stored image paths are
	// relative to it and it is served under /content/.
	ContentRoot       string   `koanf:"content_root"`
	MaxUploadBytes    int64    `koanf:"max_upload_bytes"`
	AllowedTypes      []string `koanf:"allowed_types"`
	AllowedExtensions []string `koanf:"allowed_extensions"`
}

// DatabaseConfig configures the DuckDB settings store.
type DatabaseConfig struct {
	Path      string        `koanf:"path"`
	MaxMemory string        `koanf:"max_memory"`
	Threads   int           `koanf:"threads"`
	CacheTTL  time.Duration `koanf:"cache_ttl"`
}

// TilesConfig configures the tile cache worker and the tile proxy.
type TilesConfig struct {
	Enabled    bool   `koanf:"enabled"`
	Prefix     string `koanf:"prefix"`
	Version    string `koanf:"version"`
	MaxEntries int    `koanf:"max_entries"`

	// Store is "memory" or "badger".
	Store      string `koanf:"store"`
	StorePath  string `koanf:"store_path"`
	SyncWrites bool   `koanf:"sync_writes"`

	// CleanupInterval is how often the janitor posts a cleanup message.
	// Zero disables it.
	CleanupInterval time.Duration `koanf:"cleanup_interval"`

	AllowedHosts []string `koanf:"allowed_hosts"`
	Extensions   []string `koanf:"extensions"`

	// Layers maps a layer name to a URL template using {z} {x} {y} and
	// optionally {s} for a subdomain.
	Layers     map[string]string `koanf:"layers"`
	Subdomains []string          `koanf:"subdomains"`
	UserAgent  string            `koanf:"user_agent"`

	BreakerFailures uint32        `koanf:"breaker_failures"`
	BreakerTimeout  time.Duration `koanf:"breaker_timeout"`
	RatePerSecond   float64       `koanf:"rate_per_second"`
	RateBurst       int           `koanf:"rate_burst"`
}

// SecurityConfig holds CORS and request rate limiting.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	UploadRateLimit   int           `koanf:"upload_rate_limit"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}
