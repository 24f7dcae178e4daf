// Wayfarer - Travel Map Photo and Tile Services
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // registers the "duckdb" driver

	"github.com/tomtom215/wayfarer/internal/logging"
	"github.com/tomtom215/wayfarer/internal/metrics"
)

// DBConfig configures the DuckDB-backed store.
type DBConfig struct {
	// Path is the database file, or ":memory:".
	Path      string
	MaxMemory string
	Threads   int
}

// DuckDBStore keeps settings in a single DuckDB table.
type DuckDBStore struct {
	conn *sql.DB
}

const schema = `CREATE TABLE IF NOT EXISTS settings (
	key        VARCHAR PRIMARY KEY,
	value      VARCHAR NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// OpenDuckDB opens (creating if needed) the settings database.
func OpenDuckDB(ctx context.Context, cfg DBConfig) (*DuckDBStore, error) {
	if cfg.Path == "" {
		return nil, errors.New("settings: database path is required")
	}
	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	maxMemory := cfg.MaxMemory
	if maxMemory == "" {
		maxMemory = "256MB"
	}

	if cfg.Path != ":memory:" {
		if dir := filepath.Dir(cfg.Path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
			}
		}
	}

	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s",
		cfg.Path, threads, maxMemory)
	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open settings database: %w", err)
	}

	if _, err := conn.ExecContext(ctx, schema); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to create settings table: %w", err)
	}

	logging.Debug().Str("path", cfg.Path).Msg("Settings database opened")
	return &DuckDBStore{conn: conn}, nil
}

// Get implements Store.
func (s *DuckDBStore) Get(ctx context.Context, key string) (string, bool, error) {
	defer observe("get", time.Now())

	var value string
	err := s.conn.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, true, nil
}

// Set implements Store.
func (s *DuckDBStore) Set(ctx context.Context, key, value string) error {
	defer observe("set", time.Now())

	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value)
	if err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}
	return nil
}

// All implements Store.
func (s *DuckDBStore) All(ctx context.Context) (map[string]string, error) {
	defer observe("all", time.Now())

	rows, err := s.conn.QueryContext(ctx, `SELECT key, value FROM settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		out[k] = v
	}
	return out, rows.Err()
}

// Ping implements Store.
func (s *DuckDBStore) Ping(ctx context.Context) error {
	return s.conn.PingContext(ctx)
}

// Close implements Store.
func (s *DuckDBStore) Close() error {
	return s.conn.Close()
}

func observe(op string, start time.Time) {
	metrics.RecordSettingsQuery(op, time.Since(start))
}

func closeQuietly(conn *sql.DB) {
	if err := conn.Close(); err != nil {
		logging.Warn().Err(err).Msg("Failed to close settings database")
	}
}
