// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
catalog:
  path: /data/catalog
  gc_interval: 10m
  owner_wait: 30s
logging:
  level: debug
  json: true
report:
  workers: 8
`), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/catalog", cfg.Catalog.Path)
	assert.Equal(t, 10*time.Minute, cfg.Catalog.GCInterval)
	assert.Equal(t, 30*time.Second, cfg.Catalog.OwnerWait)
	assert.Equal(t, 0.5, cfg.Catalog.GCDiscardRatio)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.JSON)
	assert.Equal(t, 8, cfg.Report.Workers)
	assert.Equal(t, "none", cfg.Telemetry.TraceExporter)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("catalog:\n  path: /from/file\n"), 0600))

	t.Setenv("CATALOG_PATH", "/from/env")
	t.Setenv("CATALOG_REPORT_WORKERS", "2")
	t.Setenv("CATALOG_OWNER_WAIT", "not-a-duration")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/from/env", cfg.Catalog.Path)
	assert.Equal(t, 2, cfg.Report.Workers)
	assert.Zero(t, cfg.Catalog.OwnerWait)
}

func TestLoad_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("catalog: [unclosed"), 0600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad ratio", func(c *Config) { c.Catalog.GCDiscardRatio = 1.5 }},
		{"no path", func(c *Config) { c.Catalog.Path = "" }},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }},
		{"bad exporter", func(c *Config) { c.Telemetry.TraceExporter = "jaeger" }},
		{"otlp without endpoint", func(c *Config) { c.Telemetry.TraceExporter = "otlp" }},
		{"zero workers", func(c *Config) { c.Report.Workers = 0 }},
		{"negative wait", func(c *Config) { c.Catalog.OwnerWait = -time.Second }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}

	cfg := Default()
	cfg.Catalog.Path = ""
	cfg.Catalog.InMemory = true
	assert.NoError(t, cfg.Validate())
}

func TestWrite_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	want := Default()
	want.Catalog.Path = "/srv/catalog"
	require.NoError(t, Write(path, want))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
