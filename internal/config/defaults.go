package config

import (
	_ "embed"
)

//go:embed defaults/world.yaml
var defaultWorldYAML []byte

//go:embed defaults/world.schema.json
var worldSchemaJSON []byte

// DefaultConfig returns the default world configuration.
func DefaultConfig() Config {
	return Config{
		World: WorldConfig{
			Width:    64,
			Height:   64,
			Depth:    32,
			Seed:     0,
			Scenario: "layered",
		},
		Physics: PhysicsConfig{
			Gravity:       true,
			HeatDiffusion: 0.1,
			Cooling:       0.02,
			Ambient:       20,
			SolidifyBelow: 700,
			MeltAbove:     1200,
			BoilAt:        100,
			FreezeAt:      0,
		},
		Biology: BiologyConfig{
			Species:         3,
			SeedPopulations: 5,
			CarryingFactor:  10,
			NutrientRegen:   2,
			EmergenceChance: 0.02,
			OrganicAt:       100,
		},
		Society: SocietyConfig{
			SpawnThreshold: 500,
			CollapseAt:     50,
			WarRadius:      10,
			WarAggression:  1.2,
			WarChance:      0.1,
		},
		Agent: AgentConfig{
			Temperament: "random",
			Curiosity:   0.5,
			Benevolence: 0.5,
			Cruelty:     0.2,
		},
		History: HistoryConfig{
			MaxHistory:   0,
			HotSnapshots: 64,
			AppendMode:   "truncate",
		},
		Run: RunConfig{
			Ticks:       1000,
			ReportEvery: 50,
			SliceEvery:  200,
			TickRate:    10,
		},
	}
}
