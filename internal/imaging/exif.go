// Wayfarer - Travel Map Photo and Tile Services
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package imaging

import (
	"bytes"

	"github.com/rwcarlsen/goexif/exif"
)

// Orientation is the EXIF orientation tag value (1-8).
type Orientation int

// Orientation values as defined by the EXIF/TIFF specification.
const (
	OrientationNormal     Orientation = 1
	OrientationFlipH      Orientation = 2
	OrientationRotate180  Orientation = 3
	OrientationFlipV      Orientation = 4
	OrientationTranspose  Orientation = 5
	OrientationRotate90   Orientation = 6 // rotate 90 clockwise to display
	OrientationTransverse Orientation = 7
	OrientationRotate270  Orientation = 8 // rotate 90 counter-clockwise to display
)

// SwapsDimensions reports whether displaying the image exchanges width and height.
func (o Orientation) SwapsDimensions() bool {
	return o >= OrientationTranspose && o <= OrientationRotate270
}

func (o Orientation) valid() bool {
	return o >= OrientationNormal && o <= OrientationRotate270
}

const markerSOI = 0xD8

// ReadOrientation returns the EXIF orientation of a JPEG, or
// OrientationNormal when the data has no usable tag.
func ReadOrientation(data []byte) Orientation {
	if len(data) < 4 || data[0] != 0xFF || data[1] != markerSOI {
		return OrientationNormal
	}

	// Decode may return partial metadata together with a non-critical error.
	x, _ := exif.Decode(bytes.NewReader(data))
	if x == nil {
		return OrientationNormal
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return OrientationNormal
	}
	v, err := tag.Int(0)
	if err != nil {
		return OrientationNormal
	}
	if o := Orientation(v); o.valid() {
		return o
	}
	return OrientationNormal
}
