// Wayfarer - Travel Map Photo and Tile Services
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/tomtom215/wayfarer/internal/logging"
)

var validLogFormats = map[string]bool{"json": true, "console": true}

var validTileStores = map[string]bool{"memory": true, "badger": true}

var validEnvironments = map[string]bool{"development": true, "staging": true, "production": true}

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateTiles(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("HTTP_SHUTDOWN_TIMEOUT must not be negative")
	}
	if !validEnvironments[c.Server.Environment] {
		return fmt.Errorf("ENVIRONMENT must be one of: development, staging, production")
	}
	return nil
}

func (c *Config) validateStorage() error {
	if strings.TrimSpace(c.Storage.ContentRoot) == "" {
		return fmt.Errorf("CONTENT_ROOT is required")
	}
	if c.Storage.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	if len(c.Storage.AllowedTypes) == 0 {
		return fmt.Errorf("ALLOWED_MIME_TYPES must list at least one type")
	}
	for _, t := range c.Storage.AllowedTypes {
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(t)), "image/") {
			return fmt.Errorf("ALLOWED_MIME_TYPES contains non-image type %q", t)
		}
	}
	if len(c.Storage.AllowedExtensions) == 0 {
		return fmt.Errorf("ALLOWED_EXTENSIONS must list at least one extension")
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("DUCKDB_PATH is required")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must not be negative")
	}
	if c.Database.CacheTTL < 0 {
		return fmt.Errorf("SETTINGS_CACHE_TTL must not be negative")
	}
	return nil
}

func (c *Config) validateTiles() error {
	t := c.Tiles
	if !t.Enabled {
		return nil
	}
	if !validTileStores[t.Store] {
		return fmt.Errorf("TILE_STORE must be one of: memory, badger")
	}
	if t.Store == "badger" && strings.TrimSpace(t.StorePath) == "" {
		return fmt.Errorf("TILE_STORE_PATH is required when TILE_STORE=badger")
	}
	if t.MaxEntries < 1 {
		return fmt.Errorf("TILE_CACHE_MAX_ENTRIES must be at least 1")
	}
	if t.CleanupInterval < 0 {
		return fmt.Errorf("TILE_CLEANUP_INTERVAL must not be negative")
	}
	if t.RatePerSecond < 0 {
		return fmt.Errorf("TILE_RATE_LIMIT must not be negative")
	}
	if strings.TrimSpace(t.Prefix) == "" {
		return fmt.Errorf("TILE_CACHE_PREFIX is required")
	}
	for name, tmpl := range t.Layers {
		if err := validateLayerTemplate(tmpl); err != nil {
			return fmt.Errorf("tile layer %q: %w", name, err)
		}
		if strings.Contains(tmpl, "{s}") && len(t.Subdomains) == 0 {
			return fmt.Errorf("tile layer %q uses {s} but TILE_SUBDOMAINS is empty", name)
		}
	}
	return nil
}

// validateLayerTemplate checks that a tile URL template is an absolute
// http(s) URL carrying all three tile coordinates.
func validateLayerTemplate(tmpl string) error {
	for _, p := range []string{"{z}", "{x}", "{y}"} {
		if !strings.Contains(tmpl, p) {
			return fmt.Errorf("template is missing %s", p)
		}
	}
	probe := strings.NewReplacer("{z}", "0", "{x}", "0", "{y}", "0", "{s}", "a").Replace(tmpl)
	u, err := url.Parse(probe)
	if err != nil {
		return fmt.Errorf("template is not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("template scheme must be http or https, got: %s", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("template host is required")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" && c.IsProduction() {
			return fmt.Errorf("CORS_ORIGINS must not be * in production")
		}
	}
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < 1 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1")
	}
	if c.Security.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
	}
	if c.Security.UploadRateLimit < 0 {
		return fmt.Errorf("UPLOAD_RATE_LIMIT must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}
