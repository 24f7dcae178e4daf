// Wayfarer - Travel Map Photo and Tile Services
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

// Package middleware holds the HTTP middleware shared by the API router:
// request IDs, Prometheus request metrics and access logging.
//
// Every middleware has the chi signature func(http.Handler) http.Handler.
// Metrics and access logs label requests by chi route pattern
// (/tiles/{layer}/{z}/{x}/{y}) rather than raw path so tile coordinates do
// not explode label cardinality.
package middleware
