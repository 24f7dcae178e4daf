// Wayfarer - Travel Map Photo and Tile Services
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package services

import (
	"context"
	"time"

	"github.com/tomtom215/wayfarer/internal/logging"
	"github.com/tomtom215/wayfarer/internal/tilecache"
)

// MessagePoster is the messaging surface of *tilecache.Worker.
type MessagePoster interface {
	PostMessage(ctx context.Context, msg string) error
}

// TileJanitorService posts a cleanup message to the tile worker on a fixed
// interval. A failed cleanup is logged and retried at the next tick.
type TileJanitorService struct {
	worker   MessagePoster
	interval time.Duration
}

// NewTileJanitorService creates a janitor. A non-positive interval disables
// it: Serve then just waits for shutdown.
func NewTileJanitorService(w MessagePoster, interval time.Duration) *TileJanitorService {
	return &TileJanitorService{worker: w, interval: interval}
}

// Serve implements suture.Service.
func (s *TileJanitorService) Serve(ctx context.Context) error {
	if s.interval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.worker.PostMessage(ctx, tilecache.MessageCleanup); err != nil {
				logging.Warn().Err(err).Str("service", s.String()).Msg("Scheduled tile cache cleanup failed")
			}
		}
	}
}

func (s *TileJanitorService) String() string {
	return "tile-janitor"
}
