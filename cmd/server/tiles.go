// Wayfarer - Travel Map Photo and Tile Services
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package main

import (
	"fmt"

	"github.com/tomtom215/wayfarer/internal/api"
	"github.com/tomtom215/wayfarer/internal/config"
	"github.com/tomtom215/wayfarer/internal/logging"
	"github.com/tomtom215/wayfarer/internal/tilecache"
)

type tileComponents struct {
	store  tilecache.Store
	worker *tilecache.Worker
	proxy  *api.TileProxy
}

// newTileComponents opens the tile store and builds the worker and proxy.
// The worker stays in the installing state until the supervisor runs it.
func newTileComponents(cfg *config.TilesConfig) (*tileComponents, error) {
	store, err := openTileStore(cfg)
	if err != nil {
		return nil, err
	}

	worker, err := tilecache.New(store, tilecache.Config{
		Prefix:     cfg.Prefix,
		Version:    cfg.Version,
		MaxEntries: cfg.MaxEntries,
		Hosts:      cfg.AllowedHosts,
		Extensions: cfg.Extensions,
		Upstream: tilecache.UpstreamConfig{
			Name:            "tile-upstream",
			BreakerFailures: cfg.BreakerFailures,
			BreakerTimeout:  cfg.BreakerTimeout,
			RatePerSecond:   cfg.RatePerSecond,
			Burst:           cfg.RateBurst,
		},
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	proxy, err := api.NewTileProxy(worker, api.TileProxyConfig{
		Layers:     cfg.Layers,
		Subdomains: cfg.Subdomains,
		UserAgent:  cfg.UserAgent,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	logging.Info().
		Str("store", cfg.Store).
		Str("generation", worker.Generation()).
		Strs("layers", proxy.Layers()).
		Msg("Tile cache configured")
	return &tileComponents{store: store, worker: worker, proxy: proxy}, nil
}

func openTileStore(cfg *config.TilesConfig) (tilecache.Store, error) {
	switch cfg.Store {
	case "memory":
		return tilecache.NewMemoryStore(), nil
	case "badger":
		s, err := tilecache.OpenBadgerStore(tilecache.BadgerOptions{
			Path:       cfg.StorePath,
			SyncWrites: cfg.SyncWrites,
		})
		if err != nil {
			return nil, fmt.Errorf("open tile store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown tile store %q", cfg.Store)
	}
}
