// Wayfarer - Travel Map Photo and Tile Services
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

// Package settings persists runtime-editable key-value settings such as the
// image processing bounds.
package settings

import "context"

// Store is a string key-value settings store.
type Store interface {
	// Get returns the value for key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set creates or replaces the value for key.
	Set(ctx context.Context, key, value string) error

	// All returns every stored setting.
	All(ctx context.Context) (map[string]string, error)

	Ping(ctx context.Context) error
	Close() error
}
