// Wayfarer - Travel Map Photo and Tile Services
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

/*
Package api is the HTTP layer of Wayfarer.

It exposes the photo upload pipeline, the imaging settings, the tile proxy
with its offline cache and the public content tree behind a chi router.

Routes:

	GET    /api/v1/health/live                 liveness
	GET    /api/v1/health/ready                settings store and tile worker readiness
	POST   /api/v1/uploads                     multipart upload (field "image", optional "folder")
	DELETE /api/v1/uploads?path=               delete an image and its thumbnail
	GET    /api/v1/uploads/thumbnail?path=     thumbnail lookup
	GET    /api/v1/settings/imaging            current processing bounds
	PUT    /api/v1/settings/imaging            replace processing bounds
	GET    /api/v1/tiles                       configured tile layers
	GET    /api/v1/tiles/stats                 tile cache statistics
	POST   /api/v1/tiles/messages              {"message":"cleanup"|"clearCache"}
	GET    /tiles/{layer}/{z}/{x}/{y}          tile proxy through the cache worker
	GET    /content/*                          stored images and thumbnails
	GET    /metrics                            Prometheus

Tile routes are only mounted when the tile cache is enabled.

JSON endpoints answer with the APIResponse envelope:

	{"success":true,"data":{...},"meta":{"request_id":"...","timestamp":"..."}}
	{"success":false,"error":{"code":"FILE_TOO_LARGE","message":"..."},"meta":{...}}

Tile and content responses are passed through as raw bytes.
*/
package api
