// Wayfarer - Travel Map Photo and Tile Services
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package imaging

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"math"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"
)

// FitWithin returns the largest dimensions with the aspect ratio of w x h
// that fit inside maxW x maxH. It never upscales, and each side is at least 1.
func FitWithin(w, h, maxW, maxH int) (int, int) {
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	if w <= maxW && h <= maxH {
		return w, h
	}
	scale := math.Min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	scale = math.Min(scale, 1)

	nw := min(max(1, int(math.Round(float64(w)*scale))), maxW)
	nh := min(max(1, int(math.Round(float64(h)*scale))), maxH)
	return nw, nh
}

// ResizeImage bounds the image at src to maxWidth x maxHeight and writes the
// result to dst, which may equal src.
//
// An image already within bounds is not scaled: a JPEG is re-encoded at
// quality when quality is below 100, anything else is copied to dst.
func ResizeImage(src, dst string, maxWidth, maxHeight, quality int) error {
	b := Bounds{MaxWidth: maxWidth, MaxHeight: maxHeight, Quality: quality}
	if err := b.Validate(); err != nil {
		return err
	}

	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read source: %w", err)
	}
	s, err := decode(data)
	if err != nil {
		return err
	}

	img := applyOrientation(s.img, s.orientation)
	w, h := img.Bounds().Dx(), img.Bounds().Dy()

	if w <= maxWidth && h <= maxHeight {
		if s.format == FormatJPEG && quality < 100 {
			return writeImage(dst, img, s.format, quality)
		}
		return copyInto(dst, src, data)
	}

	nw, nh := FitWithin(w, h, maxWidth, maxHeight)
	return writeImage(dst, scale(img, nw, nh), s.format, quality)
}

// CreateThumbnail writes a preview of src to dst bounded by maxWidth x
// maxHeight. Smaller images keep their dimensions. JPEG and GIF sources are
// written as JPEG; PNG sources stay PNG.
func CreateThumbnail(src, dst string, maxWidth, maxHeight, quality int) error {
	b := Bounds{MaxWidth: maxWidth, MaxHeight: maxHeight, Quality: quality}
	if err := b.Validate(); err != nil {
		return err
	}

	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read source: %w", err)
	}
	s, err := decode(data)
	if err != nil {
		return err
	}

	img := applyOrientation(s.img, s.orientation)
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	nw, nh := FitWithin(w, h, maxWidth, maxHeight)

	out := FormatJPEG
	if s.format == FormatPNG {
		out = FormatPNG
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create thumbnail directory: %w", err)
	}
	return writeImage(dst, scale(img, nw, nh), out, quality)
}

// scale resamples img into a new transparent canvas of w x h. draw.Src
// replaces destination pixels so alpha is carried over rather than blended.
func scale(img image.Image, w, h int) image.Image {
	b := img.Bounds()
	if b.Dx() == w && b.Dy() == h {
		return img
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

func writeImage(dst string, img image.Image, format Format, quality int) error {
	var buf bytes.Buffer
	if err := encode(&buf, img, format, quality); err != nil {
		return fmt.Errorf("encode %s: %w", format, err)
	}
	return writeFileAtomic(dst, &buf)
}

// copyInto writes the original bytes to dst unless dst is src.
func copyInto(dst, src string, data []byte) error {
	if sameFile(dst, src) {
		return nil
	}
	return writeFileAtomic(dst, bytes.NewReader(data))
}

func sameFile(a, b string) bool {
	if filepath.Clean(a) == filepath.Clean(b) {
		return true
	}
	ai, errA := os.Stat(a)
	bi, errB := os.Stat(b)
	return errA == nil && errB == nil && os.SameFile(ai, bi)
}

// writeFileAtomic writes r to a temporary file next to dst and renames it
// over dst.
func writeFileAtomic(dst string, r io.Reader) error {
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".imaging-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // no-op after a successful rename

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close() //nolint:errcheck,gosec // already failing
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil { //nolint:gosec // stored images are world-readable
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
