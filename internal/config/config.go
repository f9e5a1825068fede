// Package config provides YAML-based world configuration loading, schema
// validation and temperament presets for the simulator.
package config

// Config contains every tunable of a simulation run.
type Config struct {
	World   WorldConfig   `yaml:"world"`
	Physics PhysicsConfig `yaml:"physics"`
	Biology BiologyConfig `yaml:"biology"`
	Society SocietyConfig `yaml:"society"`
	Agent   AgentConfig   `yaml:"agent"`
	History HistoryConfig `yaml:"history"`
	Run     RunConfig     `yaml:"run"`
}

// WorldConfig defines the grid and the scenario that fills it.
type WorldConfig struct {
	Width    int    `yaml:"width"`
	Height   int    `yaml:"height"`
	Depth    int    `yaml:"depth"`
	Seed     uint64 `yaml:"seed"`     // 0 means pick one at startup
	Scenario string `yaml:"scenario"` // registered scenario ID
}

// PhysicsConfig defines thermal parameters and phase transition points.
type PhysicsConfig struct {
	Gravity       bool    `yaml:"gravity"`
	HeatDiffusion float64 `yaml:"heat_diffusion"`
	Cooling       float64 `yaml:"cooling"`
	Ambient       float64 `yaml:"ambient"`
	SolidifyBelow float64 `yaml:"solidify_below"`
	MeltAbove     float64 `yaml:"melt_above"`
	BoilAt        float64 `yaml:"boil_at"`
	FreezeAt      float64 `yaml:"freeze_at"`
}

// BiologyConfig defines the species catalog size and population dynamics.
type BiologyConfig struct {
	Species         int     `yaml:"species"`
	SeedPopulations int     `yaml:"seed_populations"`
	CarryingFactor  float64 `yaml:"carrying_factor"`
	NutrientRegen   float64 `yaml:"nutrient_regen"`
	EmergenceChance float64 `yaml:"emergence_chance"`
	OrganicAt       uint32  `yaml:"organic_at"`
}

// SocietyConfig defines civilization founding, war and collapse.
type SocietyConfig struct {
	SpawnThreshold uint32  `yaml:"spawn_threshold"`
	CollapseAt     uint32  `yaml:"collapse_at"`
	WarRadius      float64 `yaml:"war_radius"`
	WarAggression  float64 `yaml:"war_aggression"` // combined aggression needed
	WarChance      float64 `yaml:"war_chance"`
}

// AgentConfig defines the overseer's starting temperament.
type AgentConfig struct {
	Temperament string  `yaml:"temperament"` // "random" or "fixed"
	Curiosity   float64 `yaml:"curiosity"`
	Benevolence float64 `yaml:"benevolence"`
	Cruelty     float64 `yaml:"cruelty"`
	Boredom     float64 `yaml:"boredom"`
}

// HistoryConfig defines timeline retention.
type HistoryConfig struct {
	MaxHistory   int    `yaml:"max_history"`   // 0 keeps every tick
	HotSnapshots int    `yaml:"hot_snapshots"` // 0 disables compression
	AppendMode   string `yaml:"append_mode"`   // "truncate" or "reject"
}

// RunConfig defines the headless driving loop.
type RunConfig struct {
	Ticks       int `yaml:"ticks"`
	ReportEvery int `yaml:"report_every"`
	SliceEvery  int `yaml:"slice_every"`
	TickRate    int `yaml:"tick_rate"` // viewer ticks per second
}
