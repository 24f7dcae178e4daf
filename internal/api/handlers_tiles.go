// Wayfarer - Travel Map Photo and Tile Services
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/wayfarer/internal/tilecache"
	"github.com/tomtom215/wayfarer/internal/validation"
)

type tileMessageRequest struct {
	Message string `json:"message" validate:"required,oneof=cleanup clearCache"`
}

// TileLayers handles GET /api/v1/tiles.
//
// @Summary List tile layers
// @Tags Tiles
// @Produce json
// @Success 200 {object} APIResponse "Layer names"
// @Router /api/v1/tiles [get]
func (h *Handler) TileLayers(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]any{"layers": h.proxy.Layers()})
}

// Tile handles GET /tiles/{layer}/{z}/{x}/{y}. The response body is
// the raw tile, not a JSON envelope.
//
// @Summary Fetch a map tile
// @Description Proxies a tile through the caching worker. Served copies carry X-Tile-Cache.
// @Tags Tiles
// @Produce image/png
// @Param layer path string true "Layer name"
// @Param z path int true "Zoom"
// @Param x path int true "Column"
// @Param y path string true "Row, optionally with an extension"
// @Success 200 {file} binary "Tile"
// @Failure 400 {object} APIResponse "Invalid tile coordinates"
// @Failure 404 {object} APIResponse "Unknown layer"
// @Failure 408 "Offline and not cached"
// @Router /tiles/{layer}/{z}/{x}/{y} [get]
func (h *Handler) Tile(w http.ResponseWriter, r *http.Request) {
	layer := chi.URLParam(r, "layer")
	req := struct {
		Layer string `json:"layer" validate:"required,layer_name"`
	}{Layer: layer}
	if verr := validation.ValidateStruct(&req); verr != nil {
		NewResponseWriter(w, r).ValidationError(verr)
		return
	}

	t, err := ParseTile(chi.URLParam(r, "z"), chi.URLParam(r, "x"), chi.URLParam(r, "y"))
	if err != nil {
		NewResponseWriter(w, r).BadRequest(err.Error())
		return
	}

	if err := h.proxy.Serve(w, r, layer, t); err != nil {
		rw := NewResponseWriter(w, r)
		if errors.Is(err, ErrUnknownLayer) {
			rw.NotFound(err.Error())
			return
		}
		rw.Error(http.StatusBadGateway, ErrCodeExternalServiceFail, "tile upstream request failed")
	}
}

// PostTileMessage handles POST /api/v1/tiles/messages with a body like
// {"message":"cleanup"}. The message runs before the response is written.
//
// @Summary Send a tile cache message
// @Tags Tiles
// @Accept json
// @Produce json
// @Param body body tileMessageRequest true "cleanup or clearCache"
// @Success 202 {object} APIResponse "Message accepted"
// @Failure 400 {object} APIResponse "Unknown message"
// @Router /api/v1/tiles/messages [post]
func (h *Handler) PostTileMessage(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req tileMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rw.BadRequest("invalid JSON body: " + err.Error())
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		rw.ValidationError(verr)
		return
	}

	if err := h.tiles.PostMessage(r.Context(), req.Message); err != nil {
		rw.InternalError("tile cache message failed", err)
		return
	}
	h.respondTileStats(rw, req.Message)
}

// TileStats handles GET /api/v1/tiles/stats.
//
// @Summary Tile cache statistics
// @Tags Tiles
// @Produce json
// @Success 200 {object} APIResponse{data=tilecache.Stats} "Generation, state and entry count"
// @Router /api/v1/tiles/stats [get]
func (h *Handler) TileStats(w http.ResponseWriter, r *http.Request) {
	h.respondTileStats(NewResponseWriter(w, r), "")
}

func (h *Handler) respondTileStats(rw *ResponseWriter, message string) {
	stats, err := h.tiles.Stats(rw.r.Context())
	if err != nil {
		rw.InternalError("tile cache stats unavailable", err)
		return
	}
	if message == "" {
		rw.Success(stats)
		return
	}
	rw.Accepted(struct {
		Message string `json:"message"`
		tilecache.Stats
	}{Message: message, Stats: stats})
}
