package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	def := Default()
	if cfg.Port != def.Port {
		t.Errorf("Port = %d, want %d", cfg.Port, def.Port)
	}
	if cfg.Validation != "strict" {
		t.Errorf("Validation = %q, want strict", cfg.Validation)
	}
	if cfg.Debounce != 100*time.Millisecond {
		t.Errorf("Debounce = %s, want 100ms", cfg.Debounce)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "spotd.yaml")
	content := `port: 4500
data_path: /tmp/spots.geojson
validation: lenient
label_zoom: 14
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != 4500 {
		t.Errorf("Port = %d, want 4500", cfg.Port)
	}
	if cfg.DataPath != "/tmp/spots.geojson" {
		t.Errorf("DataPath = %q", cfg.DataPath)
	}
	if cfg.Validation != "lenient" {
		t.Errorf("Validation = %q, want lenient", cfg.Validation)
	}
	if cfg.LabelZoom != 14 {
		t.Errorf("LabelZoom = %d, want 14", cfg.LabelZoom)
	}
	// Unset keys keep defaults.
	if cfg.LogMaxBackups != 3 {
		t.Errorf("LogMaxBackups = %d, want default 3", cfg.LogMaxBackups)
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("SPOTD_PORT", "9999")
	t.Setenv("SPOTD_VALIDATION", "lenient")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != 9999 {
		t.Errorf("Port = %d, want env override 9999", cfg.Port)
	}
	if cfg.Validation != "lenient" {
		t.Errorf("Validation = %q, want env override lenient", cfg.Validation)
	}
}

func TestValidateRejectsBadSettings(t *testing.T) {
	cases := []struct {
		name string
		mod  func(*Config)
	}{
		{"negative port", func(c *Config) { c.Port = -1 }},
		{"huge port", func(c *Config) { c.Port = 70000 }},
		{"bad validation mode", func(c *Config) { c.Validation = "loose" }},
		{"bad format", func(c *Config) { c.DataFormat = "xml" }},
		{"negative debounce", func(c *Config) { c.Debounce = -time.Second }},
	}
	for _, tc := range cases {
		cfg := Default()
		tc.mod(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: Validate accepted invalid config", tc.name)
		}
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "no-such.yaml")); err == nil {
		t.Error("Load should fail for an explicitly named missing file")
	}
}

func TestGridLayoutDefault(t *testing.T) {
	layout, err := LoadGridLayout("")
	if err != nil {
		t.Fatalf("LoadGridLayout failed: %v", err)
	}
	if len(layout.Columns) != 5 {
		t.Errorf("default layout has %d columns, want 5", len(layout.Columns))
	}
	if layout.Columns[0].Field != "name" {
		t.Errorf("first column = %q, want name", layout.Columns[0].Field)
	}
}

func TestGridLayoutFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "layout.toml")
	content := `
[[columns]]
field = "name"
title = "Name"
width = 24

[[columns]]
field = "note"
title = "Note"
width = 40

[[kinds.landing]]
field = "name"
title = "Landing Site"
width = 30
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write layout: %v", err)
	}

	layout, err := LoadGridLayout(path)
	if err != nil {
		t.Fatalf("LoadGridLayout failed: %v", err)
	}
	if len(layout.Columns) != 2 {
		t.Fatalf("layout has %d columns, want 2", len(layout.Columns))
	}

	cols := layout.ColumnsFor("landing")
	if len(cols) != 1 || cols[0].Title != "Landing Site" {
		t.Errorf("landing columns = %+v", cols)
	}
	cols = layout.ColumnsFor("control")
	if len(cols) != 2 {
		t.Errorf("control should fall back to shared columns, got %+v", cols)
	}
}

func TestGridLayoutMissingFile(t *testing.T) {
	if _, err := LoadGridLayout(filepath.Join(t.TempDir(), "no.toml")); err == nil {
		t.Error("LoadGridLayout should fail for a missing file")
	}
}
