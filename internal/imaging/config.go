// Wayfarer - Travel Map Photo and Tile Services
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package imaging

import "fmt"

// Default processing bounds used when no setting overrides them.
const (
	DefaultImageMaxWidth  = 1920
	DefaultImageMaxHeight = 1080
	DefaultImageQuality   = 85

	DefaultThumbnailMaxWidth  = 400
	DefaultThumbnailMaxHeight = 300
	DefaultThumbnailQuality   = 80
)

// Bounds is a bounding box plus the output quality (0-100) to encode at.
type Bounds struct {
	MaxWidth  int `json:"max_width" validate:"required,min=1,max=20000"`
	MaxHeight int `json:"max_height" validate:"required,min=1,max=20000"`
	Quality   int `json:"quality" validate:"min=0,max=100"`
}

// Validate reports whether the bounds can be used for processing.
func (b Bounds) Validate() error {
	if b.MaxWidth <= 0 || b.MaxHeight <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidBounds, b.MaxWidth, b.MaxHeight)
	}
	if b.Quality < 0 || b.Quality > 100 {
		return fmt.Errorf("%w: quality %d", ErrInvalidBounds, b.Quality)
	}
	return nil
}

// ProcessingConfig holds the bounds for full-size images and thumbnails.
type ProcessingConfig struct {
	Image     Bounds `json:"image" validate:"required"`
	Thumbnail Bounds `json:"thumbnail" validate:"required"`
}

// DefaultProcessingConfig returns 1920x1080 at quality 85 for images and
// 400x300 at quality 80 for thumbnails.
func DefaultProcessingConfig() ProcessingConfig {
	return ProcessingConfig{
		Image: Bounds{
			MaxWidth:  DefaultImageMaxWidth,
			MaxHeight: DefaultImageMaxHeight,
			Quality:   DefaultImageQuality,
		},
		Thumbnail: Bounds{
			MaxWidth:  DefaultThumbnailMaxWidth,
			MaxHeight: DefaultThumbnailMaxHeight,
			Quality:   DefaultThumbnailQuality,
		},
	}
}
