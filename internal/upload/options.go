// Wayfarer - Travel Map Photo and Tile Services
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package upload

import (
	"slices"
	"strings"

	"github.com/tomtom215/wayfarer/internal/imaging"
)

const (
	// DefaultMaxUploadBytes is the global ceiling used when neither the call
	// nor the configuration sets one.
	DefaultMaxUploadBytes int64 = 10 << 20

	// DefaultFolder is where point photos are stored.
	DefaultFolder = "uploads/points"

	// ThumbsDir is the subdirectory holding thumbnails next to their images.
	ThumbsDir = "thumbs"
)

// DefaultAllowedTypes returns the content types accepted by default.
func DefaultAllowedTypes() []string {
	return []string{"image/jpeg", "image/png"}
}

// DefaultAllowedExtensions returns the file extensions accepted by default.
func DefaultAllowedExtensions() []string {
	return []string{"jpg", "jpeg", "png"}
}

// Options configures an Uploader.
type Options struct {
	// ContentRoot is the directory all relative paths resolve against.
	ContentRoot string

	AllowedTypes      []string
	AllowedExtensions []string
	MaxSizeBytes      int64
}

func (o Options) withDefaults() Options {
	if len(o.AllowedTypes) == 0 {
		o.AllowedTypes = DefaultAllowedTypes()
	}
	if len(o.AllowedExtensions) == 0 {
		o.AllowedExtensions = DefaultAllowedExtensions()
	}
	if o.MaxSizeBytes <= 0 {
		o.MaxSizeBytes = DefaultMaxUploadBytes
	}
	o.AllowedTypes = normalize(o.AllowedTypes)
	o.AllowedExtensions = normalize(o.AllowedExtensions)
	for i, ext := range o.AllowedExtensions {
		o.AllowedExtensions[i] = strings.TrimPrefix(ext, ".")
	}
	return o
}

// Params are the per-call inputs to UploadImage. Zero values fall back to the
// Uploader's Options, and a zero Processing to
// imaging.DefaultProcessingConfig.
type Params struct {
	Processing   imaging.ProcessingConfig
	AllowedTypes []string
	MaxSizeBytes int64
}

func (p Params) processing() imaging.ProcessingConfig {
	if p.Processing == (imaging.ProcessingConfig{}) {
		return imaging.DefaultProcessingConfig()
	}
	return p.Processing
}

func normalize(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}
