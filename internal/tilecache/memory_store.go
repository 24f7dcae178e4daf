// Wayfarer - Travel Map Photo and Tile Services
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package tilecache

import (
	"context"
	"sort"
	"sync"
)

// node is an element of a generation's insertion-ordered list.
type node struct {
	entry *Entry
	prev  *node
	next  *node
}

// generation is a doubly-linked list with sentinel head and tail plus a map
// for O(1) lookup. head.next is the oldest entry, tail.prev the newest.
type generation struct {
	items map[string]*node
	head  *node
	tail  *node
	seq   uint64
}

func newGeneration() *generation {
	g := &generation{
		items: make(map[string]*node),
		head:  &node{},
		tail:  &node{},
	}
	g.head.next = g.tail
	g.tail.prev = g.head
	return g
}

func (g *generation) append(n *node) {
	n.prev = g.tail.prev
	n.next = g.tail
	g.tail.prev.next = n
	g.tail.prev = n
}

func (g *generation) unlink(n *node) {
	n.prev.next = n.next
	n.next.prev = n.prev
	n.prev, n.next = nil, nil
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu          sync.RWMutex
	generations map[string]*generation
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{generations: make(map[string]*generation)}
}

// Put implements Store.
func (s *MemoryStore) Put(_ context.Context, gen string, e *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.generation(gen)
	if old, ok := g.items[e.Key]; ok {
		g.unlink(old)
	}
	g.seq++
	stored := e.clone()
	stored.Seq = g.seq
	n := &node{entry: stored}
	g.items[e.Key] = n
	g.append(n)
	return nil
}

// Match implements Store.
func (s *MemoryStore) Match(_ context.Context, gen, key string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.generations[gen]
	if !ok {
		return nil, ErrNotFound
	}
	n, ok := g.items[key]
	if !ok {
		return nil, ErrNotFound
	}
	return n.entry.clone(), nil
}

// Keys implements Store.
func (s *MemoryStore) Keys(_ context.Context, gen string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.generations[gen]
	if !ok {
		return nil, nil
	}
	keys := make([]string, 0, len(g.items))
	for n := g.head.next; n != g.tail; n = n.next {
		keys = append(keys, n.entry.Key)
	}
	return keys, nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, gen, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.generations[gen]
	if !ok {
		return false, nil
	}
	n, ok := g.items[key]
	if !ok {
		return false, nil
	}
	g.unlink(n)
	delete(g.items, key)
	return true, nil
}

// Len implements Store.
func (s *MemoryStore) Len(_ context.Context, gen string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if g, ok := s.generations[gen]; ok {
		return len(g.items), nil
	}
	return 0, nil
}

// Generations implements Store.
func (s *MemoryStore) Generations(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.generations))
	for name := range s.generations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Open implements Store.
func (s *MemoryStore) Open(_ context.Context, gen string) error {
	s.mu.Lock()
	s.generation(gen)
	s.mu.Unlock()
	return nil
}

// DeleteGeneration implements Store.
func (s *MemoryStore) DeleteGeneration(_ context.Context, gen string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.generations[gen]; !ok {
		return false, nil
	}
	delete(s.generations, gen)
	return true, nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	return nil
}

// generation returns the named generation, creating it. Caller holds s.mu.
func (s *MemoryStore) generation(name string) *generation {
	g, ok := s.generations[name]
	if !ok {
		g = newGeneration()
		s.generations[name] = g
	}
	return g
}
