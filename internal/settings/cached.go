// Wayfarer - Travel Map Photo and Tile Services
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package settings

import (
	"context"
	"time"

	"github.com/tomtom215/wayfarer/internal/cache"
	"github.com/tomtom215/wayfarer/internal/metrics"
)

// cachedValue remembers misses too so absent keys don't hit the store on
// every upload.
type cachedValue struct {
	value string
	found bool
}

// Cached is a read-through TTL cache in front of a Store. Writes go to the
// store and then invalidate the key.
type Cached struct {
	store Store
	cache *cache.Cache[cachedValue]
}

// NewCached wraps store with a cache of the given TTL.
func NewCached(store Store, ttl time.Duration) *Cached {
	return &Cached{store: store, cache: cache.New[cachedValue](ttl)}
}

// Get implements Store.
func (c *Cached) Get(ctx context.Context, key string) (string, bool, error) {
	v, ok := c.cache.Get(key)
	c.publish()
	if ok {
		return v.value, v.found, nil
	}

	value, found, err := c.store.Get(ctx, key)
	if err != nil {
		return "", false, err
	}
	c.cache.Set(key, cachedValue{value: value, found: found})
	return value, found, nil
}

func (c *Cached) publish() {
	s := c.cache.GetStats()
	metrics.RecordSettingsCache(s.Hits, s.Misses, s.TotalKeys, c.cache.HitRate())
}

// Set implements Store.
func (c *Cached) Set(ctx context.Context, key, value string) error {
	if err := c.store.Set(ctx, key, value); err != nil {
		return err
	}
	c.cache.Delete(key)
	return nil
}

// All implements Store. It always reads through.
func (c *Cached) All(ctx context.Context) (map[string]string, error) {
	return c.store.All(ctx)
}

// Ping implements Store.
func (c *Cached) Ping(ctx context.Context) error {
	return c.store.Ping(ctx)
}

// Close stops the cache sweep and closes the underlying store.
func (c *Cached) Close() error {
	c.cache.Close()
	return c.store.Close()
}
