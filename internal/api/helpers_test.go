// Wayfarer - Travel Map Photo and Tile Services
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package api

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/wayfarer/internal/tilecache"
	"github.com/tomtom215/wayfarer/internal/upload"
)

// memSettings is an in-memory settings.Store that can be told to fail.
type memSettings struct {
	mu     sync.Mutex
	values map[string]string
	fail   error
}

func newMemSettings() *memSettings {
	return &memSettings{values: make(map[string]string)}
}

func (m *memSettings) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return "", false, m.fail
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memSettings) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.values[key] = value
	return nil
}

func (m *memSettings) All(_ context.Context) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	out := make(map[string]string, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out, nil
}

func (m *memSettings) Ping(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fail
}

func (m *memSettings) Close() error { return nil }

var errStoreDown = errors.New("database is locked")

type testEnv struct {
	handler  *Handler
	router   http.Handler
	settings *memSettings
	root     string
	worker   *tilecache.Worker
}

type envOptions struct {
	maxBytes int64
	// upstream enables the tile routes with a single "osm" layer pointing at
	// this server.
	upstream *httptest.Server
}

func newTestEnv(t *testing.T, opts envOptions) *testEnv {
	t.Helper()
	root := t.TempDir()
	up, err := upload.New(upload.Options{ContentRoot: root, MaxSizeBytes: opts.maxBytes})
	if err != nil {
		t.Fatalf("upload.New() error = %v", err)
	}

	env := &testEnv{settings: newMemSettings(), root: root}
	deps := Dependencies{Uploader: up, Settings: env.settings}

	if opts.upstream != nil {
		store := tilecache.NewMemoryStore()
		w, err := tilecache.New(store, tilecache.Config{Prefix: "wayfarer-tiles", Version: "test"})
		if err != nil {
			t.Fatalf("tilecache.New() error = %v", err)
		}
		if err := w.Start(context.Background()); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		proxy, err := NewTileProxy(w, TileProxyConfig{
			Layers:    map[string]string{"osm": opts.upstream.URL + "/{z}/{x}/{y}.png"},
			UserAgent: "wayfarer-test",
		})
		if err != nil {
			t.Fatalf("NewTileProxy() error = %v", err)
		}
		deps.Tiles, deps.Proxy = w, proxy
		env.worker = w
	}

	h, err := NewHandler(deps)
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	env.handler = h
	env.router = NewRouter(h, &ChiMiddlewareConfig{RateLimitDisabled: true}).SetupChi()
	return env
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// envelope mirrors APIResponse with raw data for per-test decoding.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
	Meta    *APIMeta        `json:"meta"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return env
}

func decodeData(t *testing.T, env envelope, v any) {
	t.Helper()
	if err := json.Unmarshal(env.Data, v); err != nil {
		t.Fatalf("decode data %s: %v", env.Data, err)
	}
}

func jpegData(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// newUploadRequest builds a multipart upload. An empty filename omits the file
// part entirely.
func newUploadRequest(t *testing.T, target, filename string, data []byte, folder string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if folder != "" {
		if err := mw.WriteField(folderField, folder); err != nil {
			t.Fatal(err)
		}
	}
	if filename != "" {
		part, err := mw.CreateFormFile(uploadField, filename)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write(data); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}
