// Wayfarer - Travel Map Photo and Tile Services
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package settings

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/tomtom215/wayfarer/internal/imaging"
)

// Setting keys for image processing.
const (
	KeyImageMaxWidth      = "image_max_width"
	KeyImageMaxHeight     = "image_max_height"
	KeyImageQuality       = "image_quality"
	KeyThumbnailMaxWidth  = "thumbnail_max_width"
	KeyThumbnailMaxHeight = "thumbnail_max_height"
	KeyThumbnailQuality   = "thumbnail_quality"
)

type intSetting struct {
	key      string
	min, max int
	field    func(*imaging.ProcessingConfig) *int
}

var processingSettings = []intSetting{
	{KeyImageMaxWidth, 1, 20000, func(c *imaging.ProcessingConfig) *int { return &c.Image.MaxWidth }},
	{KeyImageMaxHeight, 1, 20000, func(c *imaging.ProcessingConfig) *int { return &c.Image.MaxHeight }},
	{KeyImageQuality, 0, 100, func(c *imaging.ProcessingConfig) *int { return &c.Image.Quality }},
	{KeyThumbnailMaxWidth, 1, 20000, func(c *imaging.ProcessingConfig) *int { return &c.Thumbnail.MaxWidth }},
	{KeyThumbnailMaxHeight, 1, 20000, func(c *imaging.ProcessingConfig) *int { return &c.Thumbnail.MaxHeight }},
	{KeyThumbnailQuality, 0, 100, func(c *imaging.ProcessingConfig) *int { return &c.Thumbnail.Quality }},
}

// LoadProcessingConfig reads the image processing settings. Missing keys use
// the defaults. Unparsable or out-of-range values also use the defaults and
// produce a warning. If the store itself fails, the defaults are returned
// together with the error.
func LoadProcessingConfig(ctx context.Context, store Store) (imaging.ProcessingConfig, []string, error) {
	cfg := imaging.DefaultProcessingConfig()
	var warnings []string

	for _, s := range processingSettings {
		raw, found, err := store.Get(ctx, s.key)
		if err != nil {
			return imaging.DefaultProcessingConfig(), nil, fmt.Errorf("load %s: %w", s.key, err)
		}
		if !found {
			continue
		}
		v, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || v < s.min || v > s.max {
			warnings = append(warnings, fmt.Sprintf("setting %s has invalid value %q; using default %d",
				s.key, raw, *s.field(&cfg)))
			continue
		}
		*s.field(&cfg) = v
	}
	return cfg, warnings, nil
}

// SaveProcessingConfig writes all six processing settings.
func SaveProcessingConfig(ctx context.Context, store Store, cfg imaging.ProcessingConfig) error {
	if err := cfg.Image.Validate(); err != nil {
		return fmt.Errorf("image bounds: %w", err)
	}
	if err := cfg.Thumbnail.Validate(); err != nil {
		return fmt.Errorf("thumbnail bounds: %w", err)
	}
	for _, s := range processingSettings {
		if err := store.Set(ctx, s.key, strconv.Itoa(*s.field(&cfg))); err != nil {
			return err
		}
	}
	return nil
}
