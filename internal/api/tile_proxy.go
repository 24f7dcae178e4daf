// Wayfarer - Travel Map Photo and Tile Services
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/paulmach/orb/maptile"

	"github.com/tomtom215/wayfarer/internal/logging"
	"github.com/tomtom215/wayfarer/internal/tilecache"
)

// MaxTileZoom is the deepest zoom level the proxy accepts.
const MaxTileZoom = 22

var (
	// ErrUnknownLayer is returned for a layer name with no URL template.
	ErrUnknownLayer = errors.New("unknown tile layer")

	// ErrInvalidTile is returned for coordinates outside the tile grid.
	ErrInvalidTile = errors.New("invalid tile coordinates")
)

// proxiedHeaders are copied from the upstream tile response.
var proxiedHeaders = []string{
	"Content-Type",
	"Cache-Control",
	"ETag",
	"Last-Modified",
	"Expires",
	tilecache.HeaderCache,
}

// TileProxyConfig configures a TileProxy.
type TileProxyConfig struct {
	// Layers maps a layer name to a URL template using {z}, {x}, {y} and
	// optionally {s}.
	Layers     map[string]string
	Subdomains []string
	UserAgent  string
}

// TileProxy fetches map tiles through the tile cache worker so that browsers
// without direct upstream access still get cached tiles.
type TileProxy struct {
	layers     map[string]string
	subdomains []string
	userAgent  string
	client     *http.Client
}

// NewTileProxy builds a proxy whose requests run through worker.
func NewTileProxy(worker *tilecache.Worker, cfg TileProxyConfig) (*TileProxy, error) {
	if worker == nil {
		return nil, errors.New("tile proxy: worker is required")
	}
	if len(cfg.Layers) == 0 {
		return nil, errors.New("tile proxy: at least one layer is required")
	}
	layers := make(map[string]string, len(cfg.Layers))
	for name, tmpl := range cfg.Layers {
		layers[strings.ToLower(name)] = tmpl
	}
	return &TileProxy{
		layers:     layers,
		subdomains: cfg.Subdomains,
		userAgent:  cfg.UserAgent,
		// No timeout: only the caller's context ends a fetch.
		client: &http.Client{Transport: worker},
	}, nil
}

// Layers returns the configured layer names in order.
func (p *TileProxy) Layers() []string {
	names := make([]string, 0, len(p.layers))
	for name := range p.layers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseTile parses path coordinates. y may carry a file extension such as
// "1500.png".
func ParseTile(zs, xs, ys string) (maptile.Tile, error) {
	if dot := strings.IndexByte(ys, '.'); dot >= 0 {
		ys = ys[:dot]
	}
	z, errZ := strconv.ParseUint(zs, 10, 32)
	x, errX := strconv.ParseUint(xs, 10, 32)
	y, errY := strconv.ParseUint(ys, 10, 32)
	if err := errors.Join(errZ, errX, errY); err != nil {
		return maptile.Tile{}, fmt.Errorf("%w: %v", ErrInvalidTile, err)
	}
	if z > MaxTileZoom {
		return maptile.Tile{}, fmt.Errorf("%w: zoom %d exceeds %d", ErrInvalidTile, z, MaxTileZoom)
	}
	t := maptile.New(uint32(x), uint32(y), maptile.Zoom(z))
	if !t.Valid() {
		return maptile.Tile{}, fmt.Errorf("%w: %d/%d/%d", ErrInvalidTile, z, x, y)
	}
	return t, nil
}

// URL expands the layer template for t.
func (p *TileProxy) URL(layer string, t maptile.Tile) (string, error) {
	tmpl, ok := p.layers[strings.ToLower(layer)]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownLayer, layer)
	}
	r := strings.NewReplacer(
		"{z}", strconv.FormatUint(uint64(t.Z), 10),
		"{x}", strconv.FormatUint(uint64(t.X), 10),
		"{y}", strconv.FormatUint(uint64(t.Y), 10),
		"{s}", p.subdomain(t),
	)
	return r.Replace(tmpl), nil
}

// subdomain spreads tiles across the configured subdomains deterministically
// so each tile always maps to the same cache key.
func (p *TileProxy) subdomain(t maptile.Tile) string {
	if len(p.subdomains) == 0 {
		return ""
	}
	return p.subdomains[(uint64(t.X)+uint64(t.Y))%uint64(len(p.subdomains))]
}

// Serve fetches the tile and writes the upstream or cached response to w.
// Offline misses are passed on as the worker's empty 408.
func (p *TileProxy) Serve(w http.ResponseWriter, r *http.Request, layer string, t maptile.Tile) error {
	target, err := p.URL(layer, t)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("build tile request: %w", err)
	}
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}
	for _, h := range []string{"If-None-Match", "If-Modified-Since"} {
		if v := r.Header.Get(h); v != "" {
			req.Header.Set(h, v)
		}
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch tile: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	for _, h := range proxiedHeaders {
		if v := resp.Header.Get(h); v != "" {
			w.Header().Set(h, v)
		}
	}
	w.WriteHeader(resp.StatusCode)
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Str("url", target).Msg("Tile copy interrupted")
	}

	center := t.Center()
	logging.Ctx(r.Context()).Debug().
		Str("layer", layer).
		Str("url", target).
		Int("status", resp.StatusCode).
		Int64("bytes", n).
		Float64("lon", center.Lon()).
		Float64("lat", center.Lat()).
		Str("cache", resp.Header.Get(tilecache.HeaderCache)).
		Msg("Tile proxied")
	return nil
}
