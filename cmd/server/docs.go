// Wayfarer - Travel Map Photo and Tile Services
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

// @title Wayfarer API
// @version 1.0
// @description Photo ingestion and offline-capable map tile proxy for a travel map
// @description
// @description ## Uploads
// @description
// @description Images are validated by content, stored under the content root with a
// @description generated name, bounded to the configured size and thumbnailed.
// @description Resize or thumbnail failures do not fail the upload; they are returned
// @description in `warnings`.
// @description
// @description ## Tiles
// @description
// @description `/tiles/{layer}/{z}/{x}/{y}` fetches network-first and falls back to the
// @description cache. `X-Tile-Cache: hit` marks a cached copy and an empty 408 with
// @description `X-Tile-Cache: offline` means neither source could answer.
// @description
// @description ## Error Responses
// @description
// @description ```json
// @description {
// @description   "success": false,
// @description   "error": {"code": "ERROR_CODE", "message": "Human-readable message", "details": {}},
// @description   "meta": {"timestamp": "2026-01-01T00:00:00Z", "request_id": "..."}
// @description }
// @description ```
//
// @license.name AGPL-3.0-or-later
// @license.url https://www.gnu.org/licenses/agpl-3.0.html
//
// @host localhost:8080
// @BasePath /
// @schemes http https
//
// @tag.name Core
// @tag.description Health probes
//
// @tag.name Uploads
// @tag.description Image upload, deletion and thumbnail lookup
//
// @tag.name Settings
// @tag.description Image processing bounds
//
// @tag.name Tiles
// @tag.description Tile proxy and cache control

package main
