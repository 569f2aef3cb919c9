package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate: %v", err)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Columns != Default().Columns {
		t.Errorf("expected default columns %d, got %d", Default().Columns, cfg.Columns)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gallery.json")
	data := `{"columns": 6, "debounce": "80ms", "workers": 2, "log": {"level": "debug"}}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Columns != 6 {
		t.Errorf("expected 6 columns, got %d", cfg.Columns)
	}
	if time.Duration(cfg.Debounce) != 80*time.Millisecond {
		t.Errorf("expected 80ms debounce, got %v", time.Duration(cfg.Debounce))
	}
	if cfg.Workers != 2 {
		t.Errorf("expected 2 workers, got %d", cfg.Workers)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected debug log level, got %q", cfg.Log.Level)
	}
	// untouched fields keep defaults
	if cfg.Gap != Default().Gap {
		t.Errorf("expected default gap, got %g", cfg.Gap)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"too many columns", func(c *Config) { c.Columns = 7 }},
		{"no workers", func(c *Config) { c.Workers = 0 }},
		{"zero cache", func(c *Config) { c.ThumbCacheSize = 0 }},
		{"zoom min above one", func(c *Config) { c.ZoomMin = 1.5 }},
		{"zero step", func(c *Config) { c.ZoomStep = 0 }},
		{"zero debounce", func(c *Config) { c.Debounce = 0 }},
		{"zero preload offset", func(c *Config) { c.PreloadOffsets = []int{1, 0} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestLoadBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{columns"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}
