// Wayfarer - Travel Map Photo and Tile Services
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

/*
Package tilecache keeps map tiles available when the upstream tile servers
are not.

A Worker sits between the tile proxy and the network as an http.RoundTripper.
It goes through three lifecycle states:

	installing -> activating -> active

While installing it does nothing but become ready. Activation deletes every
cache generation other than the current one and takes control immediately.
Only an active worker intercepts requests.

# Interception

A GET request is intercepted when its host is on the tile host allow-list
(exact match or a subdomain) or its path ends in a tile extension (.png, .jpg,
.jpeg, .webp, .pbf, .mvt). Everything else goes straight to the next
transport.

# Network first

Intercepted requests always try the network first. A 200 response is stored
under its exact URL in the active generation and returned to the caller. Other
statuses are returned without being stored. When the network leg fails, the
cached copy is returned if there is one; otherwise the caller receives an
empty 408 response. Errors never reach the caller.

# Messages

PostMessage accepts "cleanup", which trims the active generation to the entry
ceiling by deleting the oldest insertions first, and "clearCache", which
deletes every generation owned by this application.

Entries live in a Store: MemoryStore for a process-local cache or
BadgerStore for one that survives restarts.
*/
package tilecache
