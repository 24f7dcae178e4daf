// Wayfarer - Travel Map Photo and Tile Services
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"math"

	"github.com/gabriel-vasile/mimetype"
)

// MaxPixels caps the declared size of a source image. Decoding allocates
// several bytes per pixel before any scaling happens.
const MaxPixels = 50_000_000

// Errors returned by the processing functions.
var (
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrInvalidBounds     = errors.New("invalid processing bounds")
	ErrImageTooLarge     = errors.New("image exceeds pixel limit")
)

// Format identifies a supported image encoding.
type Format string

// Supported formats.
const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
	FormatGIF  Format = "gif"
)

// MIMEType returns the media type for the format.
func (f Format) MIMEType() string {
	return "image/" + string(f)
}

// DetectFormat sniffs the encoding from the leading bytes of data.
func DetectFormat(data []byte) (Format, error) {
	mt := mimetype.Detect(data)
	switch {
	case mt.Is("image/jpeg"):
		return FormatJPEG, nil
	case mt.Is("image/png"):
		return FormatPNG, nil
	case mt.Is("image/gif"):
		return FormatGIF, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, mt.String())
	}
}

// source is a decoded image together with what we learned while decoding it.
type source struct {
	img         image.Image
	format      Format
	orientation Orientation
}

func decode(data []byte) (*source, error) {
	format, err := DetectFormat(data)
	if err != nil {
		return nil, err
	}

	cfg, err := decodeConfig(data, format)
	if err != nil {
		return nil, fmt.Errorf("decode %s header: %w", format, err)
	}
	if px := int64(cfg.Width) * int64(cfg.Height); px > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}

	var img image.Image
	r := bytes.NewReader(data)
	switch format {
	case FormatJPEG:
		img, err = jpeg.Decode(r)
	case FormatPNG:
		img, err = png.Decode(r)
	case FormatGIF:
		img, err = gif.Decode(r)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", format, err)
	}

	src := &source{img: img, format: format, orientation: OrientationNormal}
	if format == FormatJPEG {
		src.orientation = ReadOrientation(data)
	}
	return src, nil
}

// decodeConfig reads only the header, so the pixel budget is checked before
// anything large is allocated.
func decodeConfig(data []byte, format Format) (image.Config, error) {
	r := bytes.NewReader(data)
	switch format {
	case FormatJPEG:
		return jpeg.DecodeConfig(r)
	case FormatPNG:
		return png.DecodeConfig(r)
	case FormatGIF:
		return gif.DecodeConfig(r)
	default:
		return image.Config{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// encode writes img in the given format. quality is 0-100 for every format;
// PNG maps it onto a compression level.
func encode(w io.Writer, img image.Image, format Format, quality int) error {
	quality = clampQuality(quality)
	switch format {
	case FormatJPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: max(quality, 1)})
	case FormatPNG:
		enc := png.Encoder{CompressionLevel: pngCompression(quality)}
		return enc.Encode(w, img)
	case FormatGIF:
		return gif.Encode(w, img, nil)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// PNGLevel converts a 0-100 quality into a zlib-style 0-9 level where higher
// quality means less compression.
func PNGLevel(quality int) int {
	quality = clampQuality(quality)
	return 9 - int(math.Round(float64(quality)/100*9))
}

// pngCompression maps a 0-9 level onto the encoder's coarser settings.
func pngCompression(quality int) png.CompressionLevel {
	switch level := PNGLevel(quality); {
	case level == 0:
		return png.NoCompression
	case level <= 3:
		return png.BestSpeed
	case level <= 6:
		return png.DefaultCompression
	default:
		return png.BestCompression
	}
}

func clampQuality(q int) int {
	return min(max(q, 0), 100)
}
