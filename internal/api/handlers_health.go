// Wayfarer - Travel Map Photo and Tile Services
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/wayfarer/internal/logging"
	"github.com/tomtom215/wayfarer/internal/tilecache"
)

const readinessTimeout = 2 * time.Second

// HealthLive reports that the process is up.
//
// @Summary Liveness probe
// @Description Returns 200 while the process is running, regardless of dependencies
// @Tags Core
// @Produce json
// @Success 200 {object} APIResponse "Service is alive"
// @Router /api/v1/health/live [get]
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]any{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// ReadyStatus is the readiness probe body.
type ReadyStatus struct {
	Status      string `json:"status"`
	SettingsDB  bool   `json:"settings_db"`
	TileCache   string `json:"tile_cache"`
	ContentRoot string `json:"content_root"`
}

// HealthReady returns 200 when the settings store answers and the tile
// worker, if enabled, is active. Otherwise 503 with the same body.
//
// @Summary Readiness probe
// @Description Checks the settings store and the tile cache worker state
// @Tags Core
// @Produce json
// @Success 200 {object} APIResponse{data=ReadyStatus} "Service is ready"
// @Failure 503 {object} APIResponse{data=ReadyStatus} "Service is not ready"
// @Router /api/v1/health/ready [get]
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	status := ReadyStatus{
		Status:      "ready",
		TileCache:   "disabled",
		ContentRoot: h.uploader.ContentRoot(),
	}
	ready := true

	if err := h.settings.Ping(ctx); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Readiness: settings store unavailable")
		ready = false
	} else {
		status.SettingsDB = true
	}

	if h.tiles != nil {
		state := h.tiles.State()
		status.TileCache = state.String()
		if state != tilecache.StateActive {
			ready = false
		}
	}

	rw := NewResponseWriter(w, r)
	if !ready {
		status.Status = "not_ready"
		rw.writeJSON(http.StatusServiceUnavailable, APIResponse{Success: false, Data: status, Meta: rw.meta()})
		return
	}
	rw.Success(status)
}
