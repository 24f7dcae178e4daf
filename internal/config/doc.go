// Wayfarer - Travel Map Photo and Tile Services
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

// Package config loads Wayfarer's runtime configuration.
//
// Configuration is layered with koanf: built-in defaults, then an optional
// YAML file, then environment variables. Later layers win.
//
// The YAML file is looked up at $CONFIG_PATH, ./config.yaml, ./config.yml,
// /etc/wayfarer/config.yaml and /etc/wayfarer/config.yml, in that order.
// Environment variables use flat legacy names (HTTP_PORT, CONTENT_ROOT,
// TILE_STORE, LOG_LEVEL, ...) that are mapped onto nested keys; anything not
// in the mapping table is ignored. List values such as CORS_ORIGINS or
// TILE_ALLOWED_HOSTS are comma separated.
//
//	cfg, err := config.LoadWithKoanf()
//	if err != nil {
//	    logging.Fatal().Err(err).Msg("Invalid configuration")
//	}
//
// Validate is run by LoadWithKoanf and reports the first invalid setting
// using its environment variable name.
package config
