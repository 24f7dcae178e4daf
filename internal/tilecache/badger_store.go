// Wayfarer - Travel Map Photo and Tile Services
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package tilecache

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/wayfarer/internal/logging"
)

// Key layout:
//
//	gen:<generation>                 -> empty (generation marker)
//	ent:<generation>\x00<url>        -> JSON Entry
//	ord:<generation>\x00<seq uint64> -> url
//
// Badger iterates keys in byte order, so the big-endian sequence suffix keeps
// the ord: family in insertion order.
const (
	prefixGeneration = "gen:"
	prefixEntry      = "ent:"
	prefixOrder      = "ord:"
	sequenceKey      = "meta:seq"
	sep              = "\x00"
)

// BadgerOptions configures a BadgerStore.
type BadgerOptions struct {
	// Path is the data directory. Ignored when InMemory is set.
	Path     string
	InMemory bool

	// SyncWrites fsyncs every write. Tiles can be refetched, so the default
	// is off.
	SyncWrites bool
}

// BadgerStore is a Store persisted in BadgerDB.
type BadgerStore struct {
	db  *badger.DB
	seq *badger.Sequence
}

// OpenBadgerStore opens or creates a BadgerStore.
func OpenBadgerStore(o BadgerOptions) (*BadgerStore, error) {
	opts := badger.DefaultOptions(o.Path)
	if o.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else if o.Path == "" {
		return nil, errors.New("tilecache: badger path is required")
	}
	opts.SyncWrites = o.SyncWrites
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open tile store: %w", err)
	}
	seq, err := db.GetSequence([]byte(sequenceKey), 256)
	if err != nil {
		db.Close() //nolint:errcheck,gosec // already failing
		return nil, fmt.Errorf("open tile store sequence: %w", err)
	}
	return &BadgerStore{db: db, seq: seq}, nil
}

func generationKey(gen string) []byte { return []byte(prefixGeneration + gen) }
func entryPrefix(gen string) []byte   { return []byte(prefixEntry + gen + sep) }
func orderPrefix(gen string) []byte   { return []byte(prefixOrder + gen + sep) }

func entryKey(gen, key string) []byte {
	return append(entryPrefix(gen), key...)
}

func orderKey(gen string, seq uint64) []byte {
	return binary.BigEndian.AppendUint64(orderPrefix(gen), seq)
}

func getEntry(txn *badger.Txn, gen, key string) (*Entry, error) {
	item, err := txn.Get(entryKey(gen, key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var e Entry
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &e)
	}); err != nil {
		return nil, fmt.Errorf("decode entry: %w", err)
	}
	return &e, nil
}

// Put implements Store.
func (s *BadgerStore) Put(_ context.Context, gen string, e *Entry) error {
	seq, err := s.seq.Next()
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}
	stored := e.clone()
	stored.Seq = seq
	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("encode entry: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		old, err := getEntry(txn, gen, e.Key)
		switch {
		case err == nil:
			if err := txn.Delete(orderKey(gen, old.Seq)); err != nil {
				return err
			}
		case !errors.Is(err, ErrNotFound):
			return err
		}

		if err := txn.Set(entryKey(gen, e.Key), data); err != nil {
			return err
		}
		if err := txn.Set(orderKey(gen, seq), []byte(e.Key)); err != nil {
			return err
		}
		return txn.Set(generationKey(gen), nil)
	})
}

// Match implements Store.
func (s *BadgerStore) Match(_ context.Context, gen, key string) (*Entry, error) {
	var e *Entry
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		e, err = getEntry(txn, gen, key)
		return err
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Keys implements Store.
func (s *BadgerStore) Keys(ctx context.Context, gen string) ([]string, error) {
	var keys []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		prefix := orderPrefix(gen)
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			val, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			keys = append(keys, string(val))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list tile keys: %w", err)
	}
	return keys, nil
}

// Delete implements Store.
func (s *BadgerStore) Delete(_ context.Context, gen, key string) (bool, error) {
	deleted := false
	err := s.db.Update(func(txn *badger.Txn) error {
		e, err := getEntry(txn, gen, key)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := txn.Delete(orderKey(gen, e.Seq)); err != nil {
			return err
		}
		deleted = true
		return txn.Delete(entryKey(gen, key))
	})
	return deleted, err
}

// Len implements Store.
func (s *BadgerStore) Len(_ context.Context, gen string) (int, error) {
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		prefix := orderPrefix(gen)
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// Generations implements Store.
func (s *BadgerStore) Generations(_ context.Context) ([]string, error) {
	var names []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		prefix := []byte(prefixGeneration)
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			names = append(names, strings.TrimPrefix(string(it.Item().Key()), prefixGeneration))
		}
		return nil
	})
	return names, err
}

// Open implements Store.
func (s *BadgerStore) Open(_ context.Context, gen string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(generationKey(gen), nil)
	})
}

// DeleteGeneration implements Store.
func (s *BadgerStore) DeleteGeneration(_ context.Context, gen string) (bool, error) {
	exists := false
	if err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(generationKey(gen))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		exists = err == nil
		return err
	}); err != nil {
		return false, err
	}
	if !exists {
		return false, nil
	}

	if err := s.db.DropPrefix(entryPrefix(gen), orderPrefix(gen)); err != nil {
		return false, fmt.Errorf("drop generation %q: %w", gen, err)
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(generationKey(gen))
	}); err != nil {
		return false, err
	}
	return true, nil
}

// Close implements Store.
func (s *BadgerStore) Close() error {
	if err := s.seq.Release(); err != nil {
		logging.Warn().Err(err).Msg("Failed to release tile store sequence")
	}
	return s.db.Close()
}
