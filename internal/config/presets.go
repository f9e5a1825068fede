package config

import "fmt"

// Preset represents a named world temperament.
type Preset string

const (
	PresetGentle   Preset = "gentle"
	PresetBalanced Preset = "balanced"
	PresetWrathful Preset = "wrathful"
	PresetFrozen   Preset = "frozen"
)

// Presets lists every preset in display order.
func Presets() []Preset {
	return []Preset{PresetGentle, PresetBalanced, PresetWrathful, PresetFrozen}
}

// ApplyPreset modifies the config based on a preset.
// Balanced and the empty preset leave the config unchanged.
func ApplyPreset(cfg *Config, p Preset) error {
	switch p {
	case "", PresetBalanced:
	case PresetGentle:
		cfg.Agent = AgentConfig{Temperament: "fixed", Curiosity: 0.4, Benevolence: 0.8, Cruelty: 0.05}
		cfg.Society.WarChance = 0.02
	case PresetWrathful:
		cfg.Agent = AgentConfig{Temperament: "fixed", Curiosity: 0.9, Benevolence: 0.2, Cruelty: 0.9, Boredom: 0.5}
		cfg.Society.WarChance = 0.25
		cfg.Society.WarAggression = 0.9
	case PresetFrozen:
		cfg.Physics.Ambient = -15
		cfg.Physics.Cooling = 0.05
	default:
		return fmt.Errorf("config: unknown preset %q", p)
	}
	return nil
}
