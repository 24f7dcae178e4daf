// Wayfarer - Travel Map Photo and Tile Services
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package tilecache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/wayfarer/internal/logging"
	"github.com/tomtom215/wayfarer/internal/metrics"
)

// Messages accepted by PostMessage.
const (
	MessageCleanup    = "cleanup"
	MessageClearCache = "clearCache"
)

// Response header describing how a tile was served. Live network responses
// don't carry it.
const (
	HeaderCache  = "X-Tile-Cache"
	CacheHit     = "hit"
	CacheOffline = "offline"
)

const (
	// DefaultMaxEntries is the cleanup ceiling.
	DefaultMaxEntries = 2000

	DefaultPrefix  = "wayfarer-tiles"
	DefaultVersion = "v1"
)

// ErrInvalidState is returned when a lifecycle step runs out of order.
var ErrInvalidState = errors.New("tile worker: invalid lifecycle state")

// State is the worker lifecycle state.
type State int32

// Lifecycle states.
const (
	StateInstalling State = iota
	StateActivating
	StateActive
	StateRedundant
)

func (s State) String() string {
	switch s {
	case StateInstalling:
		return "installing"
	case StateActivating:
		return "activating"
	case StateActive:
		return "active"
	case StateRedundant:
		return "redundant"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Config configures a Worker.
type Config struct {
	// Prefix marks generations owned by this application. Version
	// distinguishes the current generation from older ones.
	Prefix  string
	Version string

	MaxEntries int

	Hosts      []string
	Extensions []string

	Upstream UpstreamConfig

	// Transport performs the actual network requests. Defaults to
	// http.DefaultTransport.
	Transport http.RoundTripper
}

// Generation returns the name of the generation this config makes current.
func (c Config) Generation() string {
	prefix, version := c.Prefix, c.Version
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if version == "" {
		version = DefaultVersion
	}
	return prefix + "-" + version
}

// Stats describes the worker for health and admin endpoints.
type Stats struct {
	Generation string `json:"generation"`
	State      string `json:"state"`
	Entries    int    `json:"entries"`
	MaxEntries int    `json:"max_entries"`
	Breaker    string `json:"breaker"`
}

// Worker is a network-first caching intermediary for tile requests.
type Worker struct {
	prefix     string
	generation string
	maxEntries int

	store   Store
	matcher *Matcher
	next    http.RoundTripper
	up      *upstream

	state atomic.Int32
	now   func() time.Time
	log   zerolog.Logger

	// mu serializes cleanup and clear so they don't interleave.
	mu sync.Mutex
}

// New creates a Worker in the installing state.
func New(store Store, cfg Config) (*Worker, error) {
	if store == nil {
		return nil, errors.New("tile worker: store is required")
	}
	next := cfg.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	maxEntries := cfg.MaxEntries
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}

	w := &Worker{
		prefix:     prefix,
		generation: cfg.Generation(),
		maxEntries: maxEntries,
		store:      store,
		matcher:    NewMatcher(cfg.Hosts, cfg.Extensions),
		next:       next,
		up:         newUpstream(next, cfg.Upstream),
		now:        time.Now,
		log:        logging.WithComponent("tilecache"),
	}
	w.state.Store(int32(StateInstalling))
	return w, nil
}

// State returns the current lifecycle state.
func (w *Worker) State() State {
	return State(w.state.Load())
}

// Generation returns the current generation name.
func (w *Worker) Generation() string {
	return w.generation
}

// Install prepares the current generation. The worker moves to activating
// as soon as it is ready.
func (w *Worker) Install(ctx context.Context) error {
	if w.State() != StateInstalling {
		return fmt.Errorf("%w: install from %s", ErrInvalidState, w.State())
	}
	if err := w.store.Open(ctx, w.generation); err != nil {
		return fmt.Errorf("install tile cache: %w", err)
	}
	w.state.Store(int32(StateActivating))
	w.log.Info().Str("generation", w.generation).Msg("Tile cache worker installed")
	return nil
}

// Activate deletes every generation other than the current one and takes
// control of tile requests immediately.
func (w *Worker) Activate(ctx context.Context) error {
	if w.State() != StateActivating {
		return fmt.Errorf("%w: activate from %s", ErrInvalidState, w.State())
	}

	gens, err := w.store.Generations(ctx)
	if err != nil {
		return fmt.Errorf("list tile cache generations: %w", err)
	}
	for _, g := range gens {
		if g == w.generation {
			continue
		}
		if _, err := w.store.DeleteGeneration(ctx, g); err != nil {
			return fmt.Errorf("delete stale generation %q: %w", g, err)
		}
		w.log.Info().Str("generation", g).Msg("Deleted stale tile cache generation")
	}

	w.state.Store(int32(StateActive))
	w.refreshGauge(ctx)
	w.log.Info().Str("generation", w.generation).Msg("Tile cache worker active")
	return nil
}

// Start runs Install followed by Activate.
func (w *Worker) Start(ctx context.Context) error {
	if err := w.Install(ctx); err != nil {
		return err
	}
	return w.Activate(ctx)
}

// Close retires the worker. Requests pass straight through afterwards. The
// store is owned by the caller and stays open.
func (w *Worker) Close() error {
	w.state.Store(int32(StateRedundant))
	return nil
}

// RoundTrip implements http.RoundTripper.
func (w *Worker) RoundTrip(req *http.Request) (*http.Response, error) {
	if !w.intercepts(req) {
		metrics.RecordTileRequest("passthrough")
		return w.next.RoundTrip(req)
	}

	key := req.URL.String()
	resp, err := w.up.roundTrip(req)
	if err == nil {
		if resp.StatusCode != http.StatusOK {
			metrics.RecordTileRequest("network_uncached")
			return resp, nil
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close() //nolint:errcheck,gosec // body fully consumed
		if readErr == nil {
			w.put(req.Context(), key, resp, body)
			resp.Body = io.NopCloser(bytes.NewReader(body))
			resp.ContentLength = int64(len(body))
			metrics.RecordTileRequest("network")
			return resp, nil
		}
		err = readErr
	}

	return w.fallback(req, key, err), nil
}

func (w *Worker) intercepts(req *http.Request) bool {
	return w.State() == StateActive &&
		req.Method == http.MethodGet &&
		w.matcher.Match(req.URL)
}

func (w *Worker) put(ctx context.Context, key string, resp *http.Response, body []byte) {
	ctx = context.WithoutCancel(ctx)
	if err := w.store.Put(ctx, w.generation, newEntry(key, resp, body, w.now())); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("url", key).Msg("Failed to cache tile")
	}
}

// fallback answers from the cache after a network failure, or with an empty
// 408 when nothing is cached.
func (w *Worker) fallback(req *http.Request, key string, cause error) *http.Response {
	ctx := context.WithoutCancel(req.Context())
	log := logging.Ctx(ctx)

	e, err := w.store.Match(ctx, w.generation, key)
	if err == nil {
		log.Debug().Err(cause).Str("url", key).Msg("Tile network failed; serving cached copy")
		metrics.RecordTileRequest("cache_hit")
		resp := e.Response(req)
		resp.Header.Set(HeaderCache, CacheHit)
		return resp
	}
	if !errors.Is(err, ErrNotFound) {
		log.Warn().Err(err).Str("url", key).Msg("Tile cache lookup failed")
	}

	log.Debug().Err(cause).Str("url", key).Msg("Tile network failed and nothing cached")
	metrics.RecordTileRequest("offline")
	return offlineResponse(req)
}

// PostMessage handles a control message. Unknown messages are ignored.
func (w *Worker) PostMessage(ctx context.Context, msg string) error {
	switch msg {
	case MessageCleanup:
		_, err := w.Cleanup(ctx)
		return err
	case MessageClearCache:
		_, err := w.ClearCache(ctx)
		return err
	default:
		logging.Ctx(ctx).Debug().Str("message", msg).Msg("Ignoring unknown tile cache message")
		return nil
	}
}

// Cleanup deletes the oldest entries of the current generation until at
// most MaxEntries remain. It returns the number removed.
func (w *Worker) Cleanup(ctx context.Context) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	keys, err := w.store.Keys(ctx, w.generation)
	if err != nil {
		return 0, fmt.Errorf("cleanup: %w", err)
	}
	excess := len(keys) - w.maxEntries
	if excess <= 0 {
		metrics.TileCacheEntries.Set(float64(len(keys)))
		return 0, nil
	}

	removed := 0
	for _, key := range keys[:excess] {
		ok, err := w.store.Delete(ctx, w.generation, key)
		if err != nil {
			return removed, fmt.Errorf("cleanup: delete %q: %w", key, err)
		}
		if ok {
			removed++
		}
	}

	metrics.TileCacheEvictions.Add(float64(removed))
	w.refreshGauge(ctx)
	logging.Ctx(ctx).Info().
		Int("removed", removed).
		Int("max_entries", w.maxEntries).
		Msg("Tile cache cleaned up")
	return removed, nil
}

// ClearCache deletes every generation owned by this application, including
// the current one. It returns the number of generations removed.
func (w *Worker) ClearCache(ctx context.Context) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	gens, err := w.store.Generations(ctx)
	if err != nil {
		return 0, fmt.Errorf("clear cache: %w", err)
	}

	removed := 0
	for _, g := range gens {
		if !strings.HasPrefix(g, w.prefix) {
			continue
		}
		ok, err := w.store.DeleteGeneration(ctx, g)
		if err != nil {
			return removed, fmt.Errorf("clear cache: delete %q: %w", g, err)
		}
		if ok {
			removed++
		}
	}

	metrics.TileCacheClears.Inc()
	metrics.TileCacheEntries.Set(0)
	logging.Ctx(ctx).Info().Int("generations", removed).Msg("Tile cache cleared")
	return removed, nil
}

// Stats reports the worker state and entry count.
func (w *Worker) Stats(ctx context.Context) (Stats, error) {
	n, err := w.store.Len(ctx, w.generation)
	if err != nil {
		return Stats{}, err
	}
	metrics.TileCacheEntries.Set(float64(n))
	return Stats{
		Generation: w.generation,
		State:      w.State().String(),
		Entries:    n,
		MaxEntries: w.maxEntries,
		Breaker:    w.up.state(),
	}, nil
}

func (w *Worker) refreshGauge(ctx context.Context) {
	if n, err := w.store.Len(ctx, w.generation); err == nil {
		metrics.TileCacheEntries.Set(float64(n))
	}
}
