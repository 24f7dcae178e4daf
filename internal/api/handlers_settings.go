// Wayfarer - Travel Map Photo and Tile Services
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package api

import (
	"net/http"

	"github.com/tomtom215/wayfarer/internal/imaging"
	"github.com/tomtom215/wayfarer/internal/settings"
	"github.com/tomtom215/wayfarer/internal/validation"
)

// ProcessingSettingsResponse is the body of the settings endpoints.
type ProcessingSettingsResponse struct {
	Processing imaging.ProcessingConfig `json:"processing"`
	Warnings   []string                 `json:"warnings,omitempty"`
}

// boundsRequest mirrors imaging.Bounds. Quality is a pointer so an omitted
// value is rejected instead of being stored as 0.
type boundsRequest struct {
	MaxWidth  int  `json:"max_width" validate:"required,min=1,max=20000"`
	MaxHeight int  `json:"max_height" validate:"required,min=1,max=20000"`
	Quality   *int `json:"quality" validate:"required,min=0,max=100"`
}

func (b *boundsRequest) bounds() imaging.Bounds {
	return imaging.Bounds{MaxWidth: b.MaxWidth, MaxHeight: b.MaxHeight, Quality: *b.Quality}
}

type processingRequest struct {
	Image     *boundsRequest `json:"image" validate:"required"`
	Thumbnail *boundsRequest `json:"thumbnail" validate:"required"`
}

// GetProcessingSettings handles GET /api/v1/settings/imaging.
//
// @Summary Get image processing settings
// @Description Returns the bounds and qualities used for stored images and thumbnails
// @Tags Settings
// @Produce json
// @Success 200 {object} APIResponse{data=ProcessingSettingsResponse}
// @Failure 500 {object} APIResponse "Settings store unavailable"
// @Router /api/v1/settings/imaging [get]
func (h *Handler) GetProcessingSettings(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	cfg, warnings, err := settings.LoadProcessingConfig(r.Context(), h.settings)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.Success(ProcessingSettingsResponse{Processing: cfg, Warnings: warnings})
}

// UpdateProcessingSettings handles PUT /api/v1/settings/imaging. All six
// values are replaced together and each one is required.
//
// @Summary Update image processing settings
// @Tags Settings
// @Accept json
// @Produce json
// @Param body body processingRequest true "Image and thumbnail bounds"
// @Success 200 {object} APIResponse{data=ProcessingSettingsResponse}
// @Failure 400 {object} APIResponse "Invalid or incomplete settings"
// @Failure 500 {object} APIResponse "Settings store unavailable"
// @Router /api/v1/settings/imaging [put]
func (h *Handler) UpdateProcessingSettings(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req processingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rw.BadRequest("invalid JSON body: " + err.Error())
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		rw.ValidationError(verr)
		return
	}
	cfg := imaging.ProcessingConfig{Image: req.Image.bounds(), Thumbnail: req.Thumbnail.bounds()}

	if err := settings.SaveProcessingConfig(r.Context(), h.settings, cfg); err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.Success(ProcessingSettingsResponse{Processing: cfg})
}
