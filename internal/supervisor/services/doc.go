// Wayfarer - Travel Map Photo and Tile Services
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

// Package services adapts Wayfarer components to suture.Service.
//
// Every service blocks in Serve until its context is canceled, returns nil
// or ctx.Err() on a clean stop, and implements fmt.Stringer so supervisor
// events name it.
package services
