// Wayfarer - Travel Map Photo and Tile Services
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package tilecache

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"testing"
	"time"
)

func newTestBadgerStore(t *testing.T) Store {
	t.Helper()
	s, err := OpenBadgerStore(BadgerOptions{InMemory: true})
	if err != nil {
		t.Fatalf("OpenBadgerStore() error = %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return s
}

func newTestMemoryStore(t *testing.T) Store {
	t.Helper()
	return NewMemoryStore()
}

var storeFactories = map[string]func(t *testing.T) Store{
	"memory": newTestMemoryStore,
	"badger": newTestBadgerStore,
}

func tileEntry(key, body string) *Entry {
	return &Entry{
		Key:      key,
		Status:   http.StatusOK,
		Header:   http.Header{"Content-Type": []string{"image/png"}},
		Body:     []byte(body),
		StoredAt: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func tileURL(i int) string {
	return fmt.Sprintf("https://tile.openstreetmap.org/12/%d/1500.png", i)
}

func TestStore_PutMatch(t *testing.T) {
	for name, factory := range storeFactories {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t)

			if _, err := s.Match(ctx, "g", tileURL(1)); !errors.Is(err, ErrNotFound) {
				t.Fatalf("Match() on empty store error = %v, want ErrNotFound", err)
			}

			in := tileEntry(tileURL(1), "tile-bytes")
			if err := s.Put(ctx, "g", in); err != nil {
				t.Fatalf("Put() error = %v", err)
			}
			// Mutating the caller's entry must not affect the stored copy.
			in.Body[0] = 'X'

			got, err := s.Match(ctx, "g", tileURL(1))
			if err != nil {
				t.Fatalf("Match() error = %v", err)
			}
			if string(got.Body) != "tile-bytes" {
				t.Errorf("Body = %q, want tile-bytes", got.Body)
			}
			if got.Header.Get("Content-Type") != "image/png" {
				t.Errorf("Content-Type = %q", got.Header.Get("Content-Type"))
			}
			if got.Status != http.StatusOK {
				t.Errorf("Status = %d", got.Status)
			}

			if _, err := s.Match(ctx, "other", tileURL(1)); !errors.Is(err, ErrNotFound) {
				t.Errorf("generations must be isolated, got %v", err)
			}
		})
	}
}

func TestStore_InsertionOrder(t *testing.T) {
	for name, factory := range storeFactories {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t)

			for i := 0; i < 5; i++ {
				if err := s.Put(ctx, "g", tileEntry(tileURL(i), "v1")); err != nil {
					t.Fatal(err)
				}
			}
			// Overwriting moves the key to the newest position.
			if err := s.Put(ctx, "g", tileEntry(tileURL(1), "v2")); err != nil {
				t.Fatal(err)
			}

			keys, err := s.Keys(ctx, "g")
			if err != nil {
				t.Fatalf("Keys() error = %v", err)
			}
			want := []string{tileURL(0), tileURL(2), tileURL(3), tileURL(4), tileURL(1)}
			if !slices.Equal(keys, want) {
				t.Errorf("Keys() = %v, want %v", keys, want)
			}

			n, err := s.Len(ctx, "g")
			if err != nil || n != 5 {
				t.Errorf("Len() = %d, %v; want 5", n, err)
			}

			got, _ := s.Match(ctx, "g", tileURL(1))
			if string(got.Body) != "v2" {
				t.Errorf("overwritten Body = %q, want v2", got.Body)
			}
		})
	}
}

func TestStore_Delete(t *testing.T) {
	for name, factory := range storeFactories {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t)

			if err := s.Put(ctx, "g", tileEntry(tileURL(1), "a")); err != nil {
				t.Fatal(err)
			}
			ok, err := s.Delete(ctx, "g", tileURL(1))
			if err != nil || !ok {
				t.Fatalf("Delete() = %v, %v; want true", ok, err)
			}
			ok, err = s.Delete(ctx, "g", tileURL(1))
			if err != nil || ok {
				t.Errorf("second Delete() = %v, %v; want false", ok, err)
			}
			if keys, _ := s.Keys(ctx, "g"); len(keys) != 0 {
				t.Errorf("Keys() after delete = %v", keys)
			}
		})
	}
}

func TestStore_Generations(t *testing.T) {
	for name, factory := range storeFactories {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t)

			if err := s.Open(ctx, "wayfarer-tiles-v1"); err != nil {
				t.Fatal(err)
			}
			if err := s.Put(ctx, "wayfarer-tiles-v0", tileEntry(tileURL(1), "old")); err != nil {
				t.Fatal(err)
			}

			gens, err := s.Generations(ctx)
			if err != nil {
				t.Fatal(err)
			}
			slices.Sort(gens)
			if want := []string{"wayfarer-tiles-v0", "wayfarer-tiles-v1"}; !slices.Equal(gens, want) {
				t.Errorf("Generations() = %v, want %v", gens, want)
			}

			ok, err := s.DeleteGeneration(ctx, "wayfarer-tiles-v0")
			if err != nil || !ok {
				t.Fatalf("DeleteGeneration() = %v, %v", ok, err)
			}
			if _, err := s.Match(ctx, "wayfarer-tiles-v0", tileURL(1)); !errors.Is(err, ErrNotFound) {
				t.Errorf("entry survived generation delete: %v", err)
			}
			if ok, _ := s.DeleteGeneration(ctx, "wayfarer-tiles-v0"); ok {
				t.Error("deleting a missing generation reported true")
			}

			gens, _ = s.Generations(ctx)
			if !slices.Equal(gens, []string{"wayfarer-tiles-v1"}) {
				t.Errorf("Generations() after delete = %v", gens)
			}
		})
	}
}

func TestBadgerStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := OpenBadgerStore(BadgerOptions{Path: dir})
	if err != nil {
		t.Fatalf("OpenBadgerStore() error = %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := s.Put(ctx, "g", tileEntry(tileURL(i), "v")); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err = OpenBadgerStore(BadgerOptions{Path: dir})
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s.Close()

	// New writes must still sort after the ones from the previous run.
	if err := s.Put(ctx, "g", tileEntry(tileURL(0), "v2")); err != nil {
		t.Fatal(err)
	}
	keys, err := s.Keys(ctx, "g")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{tileURL(1), tileURL(2), tileURL(0)}
	if !slices.Equal(keys, want) {
		t.Errorf("Keys() = %v, want %v", keys, want)
	}
}

func TestOpenBadgerStore_RequiresPath(t *testing.T) {
	if _, err := OpenBadgerStore(BadgerOptions{}); err == nil {
		t.Error("expected error without path")
	}
}
