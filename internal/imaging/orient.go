// Wayfarer - Travel Map Photo and Tile Services
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package imaging

import (
	"image"

	transform "github.com/disintegration/imaging"
)

// applyOrientation returns a new upright image for the given EXIF
// orientation. The input is never modified.
//
// The transform package rotates counter-clockwise, so a tag asking for a
// clockwise quarter turn maps to Rotate270.
func applyOrientation(img image.Image, o Orientation) image.Image {
	switch o {
	case OrientationFlipH:
		return transform.FlipH(img)
	case OrientationRotate180:
		return transform.Rotate180(img)
	case OrientationFlipV:
		return transform.FlipV(img)
	case OrientationTranspose:
		return transform.Transpose(img)
	case OrientationRotate90:
		return transform.Rotate270(img)
	case OrientationTransverse:
		return transform.Transverse(img)
	case OrientationRotate270:
		return transform.Rotate90(img)
	default:
		return img
	}
}
