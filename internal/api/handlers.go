// Wayfarer - Travel Map Photo and Tile Services
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package api

import (
	"errors"
	"time"

	"github.com/tomtom215/wayfarer/internal/settings"
	"github.com/tomtom215/wayfarer/internal/tilecache"
	"github.com/tomtom215/wayfarer/internal/upload"
)

// Handler holds the dependencies of every endpoint.
//
// Handler methods are split across files by area:
//   - handlers_health.go: liveness and readiness
//   - handlers_upload.go: upload, delete and thumbnail lookup
//   - handlers_settings.go: imaging settings
//   - handlers_tiles.go: tile proxy, worker messages and stats
type Handler struct {
	uploader *upload.Uploader
	settings settings.Store

	// tiles and proxy are nil when the tile cache is disabled.
	tiles *tilecache.Worker
	proxy *TileProxy

	startTime time.Time
}

// Dependencies groups what NewHandler needs.
type Dependencies struct {
	Uploader *upload.Uploader
	Settings settings.Store
	Tiles    *tilecache.Worker
	Proxy    *TileProxy
}

// NewHandler validates deps and builds a Handler.
func NewHandler(deps Dependencies) (*Handler, error) {
	if deps.Uploader == nil {
		return nil, errors.New("api: uploader is required")
	}
	if deps.Settings == nil {
		return nil, errors.New("api: settings store is required")
	}
	if (deps.Tiles == nil) != (deps.Proxy == nil) {
		return nil, errors.New("api: tile worker and tile proxy must be set together")
	}
	return &Handler{
		uploader:  deps.Uploader,
		settings:  deps.Settings,
		tiles:     deps.Tiles,
		proxy:     deps.Proxy,
		startTime: time.Now(),
	}, nil
}

// TilesEnabled reports whether tile routes are served.
func (h *Handler) TilesEnabled() bool {
	return h.tiles != nil
}
