// Wayfarer - Travel Map Photo and Tile Services
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package tilecache

import (
	"net/url"
	"path"
	"strings"
)

// DefaultTileHosts are the tile providers the map client uses.
func DefaultTileHosts() []string {
	return []string{
		"tile.openstreetmap.org",
		"tile.opentopomap.org",
		"tiles.stadiamaps.com",
		"basemaps.cartocdn.com",
		"server.arcgisonline.com",
		"api.maptiler.com",
	}
}

// DefaultTileExtensions are path suffixes that identify tile requests on any
// host.
func DefaultTileExtensions() []string {
	return []string{".png", ".jpg", ".jpeg", ".webp", ".pbf", ".mvt"}
}

// Matcher decides which requests the worker intercepts.
type Matcher struct {
	hosts      []string
	extensions map[string]struct{}
}

// NewMatcher builds a Matcher. Empty lists use the defaults.
func NewMatcher(hosts, extensions []string) *Matcher {
	if len(hosts) == 0 {
		hosts = DefaultTileHosts()
	}
	if len(extensions) == 0 {
		extensions = DefaultTileExtensions()
	}

	m := &Matcher{extensions: make(map[string]struct{}, len(extensions))}
	for _, h := range hosts {
		h = strings.ToLower(strings.TrimSpace(h))
		if h != "" {
			m.hosts = append(m.hosts, strings.TrimPrefix(h, "."))
		}
	}
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		m.extensions[ext] = struct{}{}
	}
	return m
}

// Match reports whether u is a tile request.
func (m *Matcher) Match(u *url.URL) bool {
	if u == nil {
		return false
	}
	return m.matchHost(u.Hostname()) || m.matchExtension(u.Path)
}

func (m *Matcher) matchHost(host string) bool {
	host = strings.ToLower(host)
	if host == "" {
		return false
	}
	for _, h := range m.hosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

func (m *Matcher) matchExtension(p string) bool {
	_, ok := m.extensions[strings.ToLower(path.Ext(p))]
	return ok
}
