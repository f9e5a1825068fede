package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEmbeddedDefaultMatchesHardcoded(t *testing.T) {
	cfg, err := Parse(defaultWorldYAML)
	if err != nil {
		t.Fatalf("Parse(embedded) error = %v", err)
	}
	if cfg != DefaultConfig() {
		t.Errorf("embedded default = %+v, expected %+v", cfg, DefaultConfig())
	}
}

func TestParsePartialKeepsDefaults(t *testing.T) {
	cfg, err := Parse([]byte("world:\n  width: 8\n  height: 8\n  depth: 4\nrun:\n  ticks: 20\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.World.Width != 8 || cfg.World.Depth != 4 || cfg.Run.Ticks != 20 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.Physics.HeatDiffusion != 0.1 || cfg.World.Scenario != "layered" {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestParseEmptyDocument(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse(nil) error = %v", err)
	}
	if cfg != DefaultConfig() {
		t.Error("empty document did not yield defaults")
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"zero width", "world:\n  width: 0\n"},
		{"negative depth", "world:\n  depth: -3\n"},
		{"unknown section", "weather:\n  rain: true\n"},
		{"unknown key", "physics:\n  friction: 2\n"},
		{"diffusion above one", "physics:\n  heat_diffusion: 1.5\n"},
		{"bad append mode", "history:\n  append_mode: branch\n"},
		{"bad temperament", "agent:\n  temperament: moody\n"},
		{"wrong type", "run:\n  ticks: many\n"},
		{"not yaml", "world: [\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse([]byte(tc.doc)); err == nil {
				t.Errorf("Parse(%q) error = nil, expected rejection", tc.doc)
			}
		})
	}
}

func TestLoadCustomPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "world.yaml")
	if err := os.WriteFile(path, []byte("world:\n  scenario: crucible\n  seed: 9\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.World.Scenario != "crucible" || cfg.World.Seed != 9 {
		t.Errorf("Load() world = %+v, expected crucible seed 9", cfg.World)
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("Load(missing) error = nil")
	}
}

func TestLoadFallsBackToEmbedded(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	if cfg != DefaultConfig() {
		t.Error("Load(\"\") did not return the embedded default")
	}
}

func TestApplyPreset(t *testing.T) {
	tests := []struct {
		preset Preset
		check  func(Config) bool
	}{
		{PresetBalanced, func(c Config) bool { return c == DefaultConfig() }},
		{PresetGentle, func(c Config) bool { return c.Agent.Cruelty < 0.1 && c.Agent.Temperament == "fixed" }},
		{PresetWrathful, func(c Config) bool { return c.Agent.Cruelty > 0.8 && c.Society.WarChance > 0.2 }},
		{PresetFrozen, func(c Config) bool { return c.Physics.Ambient < 0 }},
	}

	for _, tc := range tests {
		t.Run(string(tc.preset), func(t *testing.T) {
			cfg := DefaultConfig()
			if err := ApplyPreset(&cfg, tc.preset); err != nil {
				t.Fatalf("ApplyPreset() error = %v", err)
			}
			if !tc.check(cfg) {
				t.Errorf("ApplyPreset(%s) = %+v", tc.preset, cfg)
			}
		})
	}

	cfg := DefaultConfig()
	if err := ApplyPreset(&cfg, "chaotic"); err == nil {
		t.Error("ApplyPreset(chaotic) error = nil")
	}
}
