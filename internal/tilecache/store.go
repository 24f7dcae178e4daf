// Wayfarer - Travel Map Photo and Tile Services
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package tilecache

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Store.Match when no entry exists for a key.
var ErrNotFound = errors.New("tile cache entry not found")

// Store holds named cache generations, each an insertion-ordered set of
// entries keyed by URL.
type Store interface {
	// Put stores e in generation, replacing any entry with the same key.
	// A replaced entry moves to the newest position.
	Put(ctx context.Context, generation string, e *Entry) error

	// Match returns the entry for key or ErrNotFound.
	Match(ctx context.Context, generation, key string) (*Entry, error)

	// Keys returns the generation's keys, oldest insertion first.
	Keys(ctx context.Context, generation string) ([]string, error)

	Delete(ctx context.Context, generation, key string) (bool, error)
	Len(ctx context.Context, generation string) (int, error)

	// Generations lists every generation holding at least one entry or
	// explicitly created by Open.
	Generations(ctx context.Context) ([]string, error)

	// Open creates generation if it doesn't exist.
	Open(ctx context.Context, generation string) error

	DeleteGeneration(ctx context.Context, generation string) (bool, error)
	Close() error
}
