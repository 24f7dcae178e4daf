// Wayfarer - Travel Map Photo and Tile Services
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

/*
Package supervisor runs Wayfarer's long-lived components under a suture/v4
supervisor tree.

The tree has three layers, each its own supervisor so that a crash-looping
component backs off without stopping its siblings:

	wayfarer (root)
	├── data-layer       tile cache worker lifecycle
	├── messaging-layer  tile cache janitor
	└── api-layer        HTTP server

Supervisor events are logged through sutureslog, which takes a *slog.Logger.
Pass logging.NewSlogLogger() to route them into zerolog.

Service implementations live in the services subpackage.
*/
package supervisor
