// Wayfarer - Travel Map Photo and Tile Services
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package services

import (
	"context"
	"fmt"

	"github.com/tomtom215/wayfarer/internal/tilecache"
)

// TileWorker is the lifecycle surface of *tilecache.Worker.
type TileWorker interface {
	State() tilecache.State
	Install(ctx context.Context) error
	Activate(ctx context.Context) error
	Close() error
}

// TileWorkerService installs and activates the tile cache worker, then holds
// it active until shutdown, when the worker is retired. A restart after a
// failed activation resumes from the step that failed.
type TileWorkerService struct {
	worker TileWorker
}

// NewTileWorkerService wraps w.
func NewTileWorkerService(w TileWorker) *TileWorkerService {
	return &TileWorkerService{worker: w}
}

// Serve implements suture.Service.
func (s *TileWorkerService) Serve(ctx context.Context) error {
	if s.worker.State() == tilecache.StateInstalling {
		if err := s.worker.Install(ctx); err != nil {
			return fmt.Errorf("tile worker: %w", err)
		}
	}
	if s.worker.State() == tilecache.StateActivating {
		if err := s.worker.Activate(ctx); err != nil {
			return fmt.Errorf("tile worker: %w", err)
		}
	}

	<-ctx.Done()
	if err := s.worker.Close(); err != nil {
		return fmt.Errorf("tile worker close: %w", err)
	}
	return ctx.Err()
}

func (s *TileWorkerService) String() string {
	return "tile-worker"
}
