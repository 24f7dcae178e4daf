// Wayfarer - Travel Map Photo and Tile Services
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/wayfarer/internal/tilecache"
	"github.com/tomtom215/wayfarer/internal/upload"
)

// DefaultConfigPaths are searched in order; the first existing file wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/wayfarer/config.yaml",
	"/etc/wayfarer/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			Host:            "0.0.0.0",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Environment:     "development",
		},
		Storage: StorageConfig{
			ContentRoot:       "/data/content",
			MaxUploadBytes:    upload.DefaultMaxUploadBytes,
			AllowedTypes:      upload.DefaultAllowedTypes(),
			AllowedExtensions: upload.DefaultAllowedExtensions(),
		},
		Database: DatabaseConfig{
			Path:      "/data/wayfarer.duckdb",
			MaxMemory: "256MB",
			Threads:   0,
			CacheTTL:  time.Minute,
		},
		Tiles: TilesConfig{
			Enabled:         true,
			Prefix:          tilecache.DefaultPrefix,
			Version:         tilecache.DefaultVersion,
			MaxEntries:      tilecache.DefaultMaxEntries,
			Store:           "badger",
			StorePath:       "/data/tiles",
			CleanupInterval: 10 * time.Minute,
			AllowedHosts:    tilecache.DefaultTileHosts(),
			Extensions:      tilecache.DefaultTileExtensions(),
			Layers: map[string]string{
				"osm":  "https://tile.openstreetmap.org/{z}/{x}/{y}.png",
				"topo": "https://{s}.tile.opentopomap.org/{z}/{x}/{y}.png",
			},
			Subdomains:      []string{"a", "b", "c"},
			UserAgent:       "Wayfarer/1.0 (+https://github.com/tomtom215/wayfarer)",
			BreakerFailures: 5,
			BreakerTimeout:  30 * time.Second,
			RatePerSecond:   0,
			RateBurst:       1,
		},
		Security: SecurityConfig{
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			UploadRateLimit: 20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadWithKoanf loads defaults, then the config file if one exists, then
// environment variables, and validates the result.
func LoadWithKoanf() (*Config, error) {
	return load(findConfigFile())
}

// LoadFile is LoadWithKoanf with an explicit config file path. An empty path
// skips the file layer.
func LoadFile(path string) (*Config, error) {
	return load(path)
}

func load(path string) (*Config, error) {
	k := koanf.New(".")

	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	// A plain string map loads as a single leaf. Setting each layer on its
	// own lets the file and env layers add to the defaults.
	for name, tmpl := range defaults.Tiles.Layers {
		if err := k.Set("tiles.layers."+name, tmpl); err != nil {
			return nil, fmt.Errorf("failed to load default tile layers: %w", err)
		}
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.ProviderWithValue("", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// sliceConfigPaths are split on commas when they arrive as strings.
var sliceConfigPaths = []string{
	"storage.allowed_types",
	"storage.allowed_extensions",
	"tiles.allowed_hosts",
	"tiles.extensions",
	"tiles.subdomains",
	"security.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, p := range sliceConfigPaths {
		s, ok := k.Get(p).(string)
		if !ok {
			continue
		}
		var parts []string
		for _, v := range strings.Split(s, ",") {
			if v = strings.TrimSpace(v); v != "" {
				parts = append(parts, v)
			}
		}
		if err := k.Set(p, parts); err != nil {
			return fmt.Errorf("failed to set %s: %w", p, err)
		}
	}
	return nil
}

// envMappings maps lower-cased environment variable names to config keys.
var envMappings = map[string]string{
	// Server
	"http_port":             "server.port",
	"http_host":             "server.host",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_idle_timeout":     "server.idle_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"environment":           "server.environment",

	// Storage
	"content_root":       "storage.content_root",
	"max_upload_bytes":   "storage.max_upload_bytes",
	"allowed_mime_types": "storage.allowed_types",
	"allowed_extensions": "storage.allowed_extensions",

	// Settings database
	"duckdb_path":        "database.path",
	"duckdb_max_memory":  "database.max_memory",
	"duckdb_threads":     "database.threads",
	"settings_cache_ttl": "database.cache_ttl",

	// Tile cache
	"tile_cache_enabled":     "tiles.enabled",
	"tile_cache_prefix":      "tiles.prefix",
	"tile_cache_version":     "tiles.version",
	"tile_cache_max_entries": "tiles.max_entries",
	"tile_store":             "tiles.store",
	"tile_store_path":        "tiles.store_path",
	"tile_store_sync_writes": "tiles.sync_writes",
	"tile_cleanup_interval":  "tiles.cleanup_interval",
	"tile_allowed_hosts":     "tiles.allowed_hosts",
	"tile_extensions":        "tiles.extensions",
	"tile_subdomains":        "tiles.subdomains",
	"tile_user_agent":        "tiles.user_agent",
	"tile_breaker_failures":  "tiles.breaker_failures",
	"tile_breaker_timeout":   "tiles.breaker_timeout",
	"tile_rate_limit":        "tiles.rate_per_second",
	"tile_rate_burst":        "tiles.rate_burst",

	// Security
	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"upload_rate_limit":   "security.upload_rate_limit",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// tileLayerEnvPrefix lets a layer be added or replaced from the environment:
// TILE_LAYER_SATELLITE=https://... becomes tiles.layers.satellite.
const tileLayerEnvPrefix = "tile_layer_"

// envTransform maps an environment variable onto a config key. Unmapped
// variables are dropped so unrelated environment does not leak in.
func envTransform(key, value string) (string, any) {
	key = strings.ToLower(key)
	if mapped, ok := envMappings[key]; ok {
		return mapped, value
	}
	if layer, ok := strings.CutPrefix(key, tileLayerEnvPrefix); ok && layer != "" {
		return "tiles.layers." + layer, value
	}
	return "", nil
}
