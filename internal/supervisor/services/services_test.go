// Wayfarer - Travel Map Photo and Tile Services
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package services

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/wayfarer/internal/tilecache"
)

// fakeServer blocks in ListenAndServe until Shutdown is called.
type fakeServer struct {
	listenErr   error
	shutdownErr error
	stopped     chan struct{}
	once        sync.Once
	shutdowns   atomic.Int32
}

func newFakeServer() *fakeServer {
	return &fakeServer{stopped: make(chan struct{})}
}

func (f *fakeServer) ListenAndServe() error {
	if f.listenErr != nil {
		return f.listenErr
	}
	<-f.stopped
	return http.ErrServerClosed
}

func (f *fakeServer) Shutdown(context.Context) error {
	f.shutdowns.Add(1)
	f.once.Do(func() { close(f.stopped) })
	return f.shutdownErr
}

func TestHTTPServerService_GracefulShutdown(t *testing.T) {
	srv := newFakeServer()
	svc := NewHTTPServerService(srv, ":0", time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
	if srv.shutdowns.Load() != 1 {
		t.Errorf("shutdowns = %d, want 1", srv.shutdowns.Load())
	}
}

func TestHTTPServerService_ListenFailure(t *testing.T) {
	srv := newFakeServer()
	srv.listenErr = errors.New("listen tcp :80: bind: permission denied")
	svc := NewHTTPServerService(srv, ":80", 0)

	err := svc.Serve(context.Background())
	if err == nil || !errors.Is(err, srv.listenErr) {
		t.Errorf("Serve() = %v, want wrapped listen error", err)
	}
	if svc.shutdownTimeout != 10*time.Second {
		t.Errorf("default shutdown timeout = %v", svc.shutdownTimeout)
	}
}

func TestHTTPServerService_ShutdownError(t *testing.T) {
	srv := newFakeServer()
	srv.shutdownErr = context.DeadlineExceeded
	svc := NewHTTPServerService(srv, ":0", time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve() = %v, want shutdown error", err)
	}
}

type countingPoster struct {
	mu   sync.Mutex
	msgs []string
	fail error
}

func (c *countingPoster) PostMessage(_ context.Context, msg string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, msg)
	return c.fail
}

func (c *countingPoster) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.msgs)
}

func TestTileJanitorService_PostsCleanup(t *testing.T) {
	poster := &countingPoster{fail: errors.New("store closed")}
	svc := NewTileJanitorService(poster, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve() = %v", err)
	}

	if poster.count() < 2 {
		t.Errorf("cleanup posted %d times, want at least 2 despite failures", poster.count())
	}
	for _, m := range poster.msgs {
		if m != tilecache.MessageCleanup {
			t.Errorf("posted %q, want %q", m, tilecache.MessageCleanup)
		}
	}
}

func TestTileJanitorService_Disabled(t *testing.T) {
	poster := &countingPoster{}
	svc := NewTileJanitorService(poster, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_ = svc.Serve(ctx)
	if poster.count() != 0 {
		t.Errorf("disabled janitor posted %d messages", poster.count())
	}
}

func TestTileWorkerService_Lifecycle(t *testing.T) {
	store := tilecache.NewMemoryStore()
	ctx := context.Background()
	if err := store.Open(ctx, "wayfarer-tiles-v0"); err != nil {
		t.Fatal(err)
	}
	w, err := tilecache.New(store, tilecache.Config{Version: "v1"})
	if err != nil {
		t.Fatal(err)
	}
	svc := NewTileWorkerService(w)

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- svc.Serve(runCtx) }()

	deadline := time.Now().Add(2 * time.Second)
	for w.State() != tilecache.StateActive {
		if time.Now().After(deadline) {
			t.Fatalf("worker state = %s, want active", w.State())
		}
		time.Sleep(5 * time.Millisecond)
	}

	gens, err := store.Generations(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(gens) != 1 || gens[0] != w.Generation() {
		t.Errorf("generations = %v, want only %s", gens, w.Generation())
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() = %v", err)
	}
	if w.State() != tilecache.StateRedundant {
		t.Errorf("state after stop = %s, want redundant", w.State())
	}
}

// stepWorker fails activation once.
type stepWorker struct {
	state       tilecache.State
	activations int
}

func (s *stepWorker) State() tilecache.State { return s.state }

func (s *stepWorker) Install(context.Context) error {
	s.state = tilecache.StateActivating
	return nil
}

func (s *stepWorker) Activate(context.Context) error {
	s.activations++
	if s.activations == 1 {
		return errors.New("badger: value log full")
	}
	s.state = tilecache.StateActive
	return nil
}

func (s *stepWorker) Close() error {
	s.state = tilecache.StateRedundant
	return nil
}

func TestTileWorkerService_ResumesAfterFailedActivation(t *testing.T) {
	w := &stepWorker{}
	svc := NewTileWorkerService(w)

	if err := svc.Serve(context.Background()); err == nil {
		t.Fatal("expected first Serve to fail")
	}
	if w.state != tilecache.StateActivating {
		t.Fatalf("state = %s, want activating", w.state)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := svc.Serve(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("second Serve() = %v", err)
	}
	if w.activations != 2 {
		t.Errorf("activations = %d, want 2", w.activations)
	}
	if w.state != tilecache.StateRedundant {
		t.Errorf("state = %s, want redundant", w.state)
	}
}
