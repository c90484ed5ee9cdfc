// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// =============================================================================
// Level Tests
// =============================================================================

func TestLevel_String(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.level.String(); got != tt.want {
				t.Errorf("Level.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{" warn ", LevelWarn, false},
		{"error", LevelError, false},
		{"verbose", LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestFromSlogLevel(t *testing.T) {
	if got := fromSlogLevel(slog.LevelWarn + 1); got != LevelWarn {
		t.Errorf("fromSlogLevel(warn+1) = %v, want WARN", got)
	}
	if got := fromSlogLevel(slog.LevelDebug - 4); got != LevelDebug {
		t.Errorf("fromSlogLevel(debug-4) = %v, want DEBUG", got)
	}
}

// =============================================================================
// Logger Tests
// =============================================================================

func TestNew_WritesToOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelInfo, Service: "catalog", Output: &buf})
	defer logger.Close()

	logger.Info("store opened", "path", "/tmp/catalog")

	out := buf.String()
	if !strings.Contains(out, "store opened") {
		t.Errorf("output missing message: %q", out)
	}
	if !strings.Contains(out, "service=catalog") {
		t.Errorf("output missing service attribute: %q", out)
	}
}

func TestNew_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{JSON: true, Output: &buf})
	logger.Warn("collection not found", "short_name", "pmc-oa")

	if !strings.Contains(buf.String(), `"short_name":"pmc-oa"`) {
		t.Errorf("expected JSON attribute, got %q", buf.String())
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelWarn, Output: &buf})

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	out := buf.String()
	for _, hidden := range []string{"debug message", "info message"} {
		if strings.Contains(out, hidden) {
			t.Errorf("%q should have been filtered", hidden)
		}
	}
	for _, shown := range []string{"warn message", "error message"} {
		if !strings.Contains(out, shown) {
			t.Errorf("%q should have been written", shown)
		}
	}
}

func TestNew_QuietMode(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Quiet: true, Output: &buf})
	logger.Error("nobody hears this")

	if buf.Len() != 0 {
		t.Errorf("quiet logger wrote %q", buf.String())
	}
}

func TestNew_WithLogDir(t *testing.T) {
	dir := t.TempDir()
	logger := New(Config{Quiet: true, LogDir: dir, Service: "report"})
	logger.Info("written to file", "count", 3)
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	matches, err := filepath.Glob(filepath.Join(dir, "report_*.log"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("expected one log file, got %v (err %v)", matches, err)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"written to file"`) {
		t.Errorf("log file missing record: %s", data)
	}
}

func TestNew_WithLogDir_InvalidPath(t *testing.T) {
	parent := t.TempDir()
	blocker := filepath.Join(parent, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	logger := New(Config{LogDir: filepath.Join(blocker, "logs"), Output: &buf})
	defer logger.Close()

	if logger.file != nil {
		t.Error("file handle should be nil when the log dir cannot be created")
	}
	if !strings.Contains(buf.String(), "file logging disabled") {
		t.Errorf("expected a warning about file logging, got %q", buf.String())
	}
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Output: &buf})
	child := logger.With("component", "graph")
	child.Info("child message")

	if !strings.Contains(buf.String(), "component=graph") {
		t.Errorf("child attributes missing: %q", buf.String())
	}
	if child.file != logger.file || child.exporter != logger.exporter {
		t.Error("child should share file and exporter with parent")
	}
}

// =============================================================================
// Exporter Tests
// =============================================================================

func TestExporter_ReceivesSlogRecords(t *testing.T) {
	exporter := NewBufferedExporter()
	logger := New(Config{Quiet: true, Service: "catalog", Exporter: exporter})

	component := logger.Slog().With("component", "graph").WithGroup("doc")
	component.Warn("write-once field already set", "id", "PMC1")

	entries := exporter.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Level != LevelWarn || e.Message != "write-once field already set" {
		t.Errorf("unexpected entry %+v", e)
	}
	if e.Service != "catalog" {
		t.Errorf("Service = %q", e.Service)
	}
	if e.Attrs["component"] != "graph" {
		t.Errorf("component attr = %v", e.Attrs["component"])
	}
	if e.Attrs["doc.id"] != "PMC1" {
		t.Errorf("grouped attr = %v", e.Attrs["doc.id"])
	}
}

func TestExporter_RespectsLevel(t *testing.T) {
	exporter := NewBufferedExporter()
	logger := New(Config{Quiet: true, Level: LevelWarn, Exporter: exporter})

	logger.Info("not exported")
	logger.Error("exported")

	if exporter.Contains(LevelInfo, "not exported") {
		t.Error("info entry should be filtered")
	}
	if exporter.Count(LevelError, "exported") != 1 {
		t.Error("error entry should be exported once")
	}
}

type failingExporter struct{ BufferedExporter }

func (f *failingExporter) Flush(context.Context) error { return errors.New("flush failed") }

func TestLogger_Close_ExporterError(t *testing.T) {
	logger := New(Config{Quiet: true, Exporter: &failingExporter{}})
	err := logger.Close()
	if err == nil || !strings.Contains(err.Error(), "flush exporter") {
		t.Errorf("Close() error = %v, want flush exporter error", err)
	}
}

func TestBufferedExporter_ConcurrentAccess(t *testing.T) {
	exporter := NewBufferedExporter()
	logger := New(Config{Quiet: true, Exporter: exporter})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Info("concurrent")
		}()
	}
	wg.Wait()

	if got := exporter.Count(LevelInfo, "concurrent"); got != 20 {
		t.Errorf("Count = %d, want 20", got)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := expandPath("~/logs"); got != filepath.Join(home, "logs") {
		t.Errorf("expandPath(~/logs) = %q", got)
	}
	if got := expandPath("/var/log"); got != "/var/log" {
		t.Errorf("expandPath(/var/log) = %q", got)
	}
}

func TestDiscard_DisablesEveryLevel(t *testing.T) {
	logger := Discard().With("component", "runner")
	for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
		if logger.Enabled(context.Background(), level) {
			t.Errorf("Discard() logger enabled at %v", level)
		}
	}
}
