// Wayfarer - Travel Map Photo and Tile Services
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

// capture swaps in a buffer-backed global logger for the duration of a test.
func capture(t *testing.T, level string) *bytes.Buffer {
	t.Helper()
	prev := Logger()
	prevLevel := zerolog.GlobalLevel()
	var buf bytes.Buffer
	Init(Config{Level: level, Format: "json", Output: &buf})
	t.Cleanup(func() {
		SetLogger(prev)
		zerolog.SetGlobalLevel(prevLevel)
	})
	return &buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid JSON log line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"trace":   zerolog.TraceLevel,
		"DEBUG":   zerolog.DebugLevel,
		"info":    zerolog.InfoLevel,
		"warning": zerolog.WarnLevel,
		" error ": zerolog.ErrorLevel,
		"off":     zerolog.Disabled,
		"":        zerolog.InfoLevel,
		"verbose": zerolog.InfoLevel,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestValidLevel(t *testing.T) {
	if !ValidLevel("warn") || !ValidLevel("Disabled") {
		t.Error("expected known levels to be valid")
	}
	if ValidLevel("verbose") || ValidLevel("") {
		t.Error("expected unknown levels to be invalid")
	}
}

func TestInit_JSONFields(t *testing.T) {
	buf := capture(t, "debug")

	Info().Str("component", "upload").Msg("stored")
	Err(errors.New("boom")).Msg("failed")

	lines := decodeLines(t, buf)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0]["message"] != "stored" || lines[0]["level"] != "info" || lines[0]["component"] != "upload" {
		t.Errorf("first line = %v", lines[0])
	}
	if lines[1]["error"] != "boom" || lines[1]["level"] != "error" {
		t.Errorf("second line = %v", lines[1])
	}
}

func TestInit_LevelFilters(t *testing.T) {
	buf := capture(t, "warn")

	Debug().Msg("hidden")
	Info().Msg("hidden")
	Warn().Msg("shown")

	lines := decodeLines(t, buf)
	if len(lines) != 1 || lines[0]["message"] != "shown" {
		t.Errorf("lines = %v, want only the warning", lines)
	}
}

func TestInit_Console(t *testing.T) {
	prev := Logger()
	prevLevel := zerolog.GlobalLevel()
	defer func() {
		SetLogger(prev)
		zerolog.SetGlobalLevel(prevLevel)
	}()

	var buf bytes.Buffer
	Init(Config{Level: "info", Format: "console", Output: &buf})
	Info().Msg("hello console")

	out := buf.String()
	if !strings.Contains(out, "hello console") || strings.HasPrefix(out, "{") {
		t.Errorf("console output = %q", out)
	}
}

func TestCtx_AddsRequestID(t *testing.T) {
	buf := capture(t, "info")

	ctx := ContextWithRequestID(context.Background(), "req-42")
	Ctx(ctx).Info().Msg("with id")
	Ctx(context.Background()).Info().Msg("without id")

	lines := decodeLines(t, buf)
	if len(lines) != 2 {
		t.Fatalf("got %d lines", len(lines))
	}
	if lines[0]["request_id"] != "req-42" {
		t.Errorf("request_id = %v, want req-42", lines[0]["request_id"])
	}
	if _, ok := lines[1]["request_id"]; ok {
		t.Error("unexpected request_id on context without one")
	}
}

func TestCtx_UsesStoredLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewTestLogger(&buf).With().Str("component", "tiles").Logger()
	ctx := ContextWithLogger(context.Background(), l)

	Ctx(ctx).Info().Msg("scoped")

	if !strings.Contains(buf.String(), `"component":"tiles"`) {
		t.Errorf("output = %q, want stored logger fields", buf.String())
	}
}

func TestRequestIDs(t *testing.T) {
	if RequestIDFromContext(context.Background()) != "" {
		t.Error("empty context should have no request ID")
	}
	a, b := GenerateRequestID(), GenerateRequestID()
	if a == b || len(a) != 36 {
		t.Errorf("GenerateRequestID() = %q, %q", a, b)
	}
}

func TestWithComponent(t *testing.T) {
	buf := capture(t, "debug")

	log := WithComponent("tilecache")
	log.Info().Msg("installed")

	lines := decodeLines(t, buf)
	if len(lines) != 1 || lines[0]["component"] != "tilecache" {
		t.Errorf("lines = %v, want one line with component=tilecache", lines)
	}
}

func TestErr_LevelFollowsError(t *testing.T) {
	buf := capture(t, "debug")

	Err(nil).Msg("stopped")
	Err(errors.New("drain timed out")).Msg("stopped")

	lines := decodeLines(t, buf)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0]["level"] != "info" {
		t.Errorf("nil error level = %v, want info", lines[0]["level"])
	}
	if lines[1]["level"] != "error" || lines[1]["error"] != "drain timed out" {
		t.Errorf("error line = %v", lines[1])
	}
}
