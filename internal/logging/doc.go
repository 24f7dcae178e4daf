// Wayfarer - Travel Map Photo and Tile Services
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

// Package logging is the zerolog-backed logging layer shared by every
// Wayfarer component.
//
// A global logger is configured once at startup with Init. Package-level
// helpers (Info, Warn, Error, ...) write through it, and Ctx attaches the
// request ID carried by a context:
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	logging.Info().Str("addr", addr).Msg("Server starting")
//	logging.Ctx(r.Context()).Warn().Err(err).Msg("Thumbnail failed")
//
// Output is JSON by default and a human-readable console format when
// Format is "console". Field names are fixed (time, level, message, error,
// caller) so log pipelines can rely on them.
//
// SlogHandler adapts the global logger to log/slog for libraries that only
// accept a *slog.Logger, such as the suture event hook.
package logging
