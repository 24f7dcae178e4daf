// Wayfarer - Travel Map Photo and Tile Services
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

/*
Package imaging resizes, recompresses and thumbnails stored photos.

Supported source formats are JPEG, PNG and GIF. The format is taken from the
file's content, never from its name or a client-declared type.

# Orientation

Camera JPEGs frequently store pixels sideways and carry an EXIF orientation
tag (values 1 through 8). Before any bounds check or scaling, the tag is read
with github.com/rwcarlsen/goexif and the matching rotate/flip transform from
github.com/disintegration/imaging is applied, so the written output is
upright and its dimensions are the displayed ones. Orientations 5 through 8
swap width and height.

# Limits

Only the header is read before the pixel count is checked against
MaxPixels. Larger images fail with ErrImageTooLarge without being decoded.

# Operations

ResizeImage bounds a full-size image:

	err := imaging.ResizeImage(path, path, 1920, 1080, 85)

Images already within bounds are not scaled. JPEGs are re-encoded at the
requested quality when it is below 100; everything else is copied (or left in
place when source and destination are the same file).

CreateThumbnail produces a preview that never upscales:

	err := imaging.CreateThumbnail(path, thumbPath, 400, 300, 80)

JPEG and GIF sources produce JPEG thumbnails; PNG sources stay PNG with
their alpha channel.

Scaling uses golang.org/x/image/draw with the Catmull-Rom kernel into a newly
allocated canvas. Outputs are written to a temporary file and renamed into
place so a failed in-place operation leaves the original intact.
*/
package imaging
