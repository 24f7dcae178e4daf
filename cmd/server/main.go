// Wayfarer - Travel Map Photo and Tile Services
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

// Package main is the entry point for the Wayfarer server.
//
// Wayfarer backs a travel map: administrators upload trip, point and route
// photos, which are validated, resized and thumbnailed into a public content
// tree, and the map's tiles are fetched through an offline-capable cache.
//
// # Startup
//
//  1. Configuration: struct defaults, then an optional YAML file, then
//     environment variables (koanf v2)
//  2. Logging: zerolog, also bridged to slog for the supervisor
//  3. Settings: DuckDB store behind a TTL cache
//  4. Upload pipeline rooted at the content directory
//  5. Tile cache: memory or badger store, worker, proxy
//  6. HTTP router and server
//  7. Supervisor tree: tile worker (data), janitor (messaging), HTTP (api)
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the root context. The HTTP server drains for up
// to server.shutdown_timeout, the tile worker is retired, and the stores are
// closed.
//
// # Example
//
//	export CONTENT_ROOT=/srv/wayfarer/content
//	export DUCKDB_PATH=/srv/wayfarer/wayfarer.duckdb
//	export TILE_STORE=badger TILE_STORE_PATH=/srv/wayfarer/tiles
//	./wayfarer
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/wayfarer/internal/api"
	"github.com/tomtom215/wayfarer/internal/config"
	"github.com/tomtom215/wayfarer/internal/logging"
	"github.com/tomtom215/wayfarer/internal/settings"
	"github.com/tomtom215/wayfarer/internal/supervisor"
	"github.com/tomtom215/wayfarer/internal/supervisor/services"
	"github.com/tomtom215/wayfarer/internal/upload"
)

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("Wayfarer stopped with an error")
	}
	logging.Info().Msg("Application stopped gracefully")
}

func run(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("content_root", cfg.Storage.ContentRoot).
		Str("db_path", cfg.Database.Path).
		Bool("tiles", cfg.Tiles.Enabled).
		Msg("Starting Wayfarer")

	store, err := settings.OpenDuckDB(ctx, settings.DBConfig{
		Path:      cfg.Database.Path,
		MaxMemory: cfg.Database.MaxMemory,
		Threads:   cfg.Database.Threads,
	})
	if err != nil {
		return err
	}
	settingsStore := settings.NewCached(store, cfg.Database.CacheTTL)
	defer closeLogged("settings store", settingsStore.Close)

	if err := os.MkdirAll(cfg.Storage.ContentRoot, 0o755); err != nil {
		return fmt.Errorf("create content root: %w", err)
	}
	uploader, err := upload.New(upload.Options{
		ContentRoot:       cfg.Storage.ContentRoot,
		AllowedTypes:      cfg.Storage.AllowedTypes,
		AllowedExtensions: cfg.Storage.AllowedExtensions,
		MaxSizeBytes:      cfg.Storage.MaxUploadBytes,
	})
	if err != nil {
		return err
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return err
	}

	deps := api.Dependencies{Uploader: uploader, Settings: settingsStore}
	if cfg.Tiles.Enabled {
		tiles, err := newTileComponents(&cfg.Tiles)
		if err != nil {
			return err
		}
		defer closeLogged("tile store", tiles.store.Close)

		deps.Tiles, deps.Proxy = tiles.worker, tiles.proxy
		tree.AddDataService(services.NewTileWorkerService(tiles.worker))
		tree.AddMessagingService(services.NewTileJanitorService(tiles.worker, cfg.Tiles.CleanupInterval))
	}

	handler, err := api.NewHandler(deps)
	if err != nil {
		return err
	}
	router := api.NewRouter(handler, middlewareConfig(cfg))

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.SetupChi(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, server.Addr, cfg.Server.ShutdownTimeout))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	logging.Info().Msg("Starting supervisor tree")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport() //nolint:errcheck // best-effort report
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}
	return nil
}

func middlewareConfig(cfg *config.Config) *api.ChiMiddlewareConfig {
	mw := api.DefaultChiMiddlewareConfig()
	mw.CORSAllowedOrigins = cfg.Security.CORSOrigins
	mw.RateLimitRequests = cfg.Security.RateLimitReqs
	mw.RateLimitWindow = cfg.Security.RateLimitWindow
	mw.RateLimitDisabled = cfg.Security.RateLimitDisabled
	mw.UploadRateLimit = cfg.Security.UploadRateLimit
	return mw
}

func closeLogged(name string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logging.Error().Err(err).Str("component", name).Msg("Close failed")
	}
}
