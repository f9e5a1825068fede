package pipeline

import (
	"github.com/vovakirdan/worldsim/internal/config"
	"github.com/vovakirdan/worldsim/internal/rules/agent"
	"github.com/vovakirdan/worldsim/internal/rules/biology"
	"github.com/vovakirdan/worldsim/internal/rules/society"
	"github.com/vovakirdan/worldsim/internal/rules/thermal"
)

// FromConfig builds the stock stages tuned by cfg. Physics rates live in the
// world state, not here, because the agent may change them.
func FromConfig(cfg config.Config) *Pipeline {
	th := thermal.New()
	th.SolidifyBelow = cfg.Physics.SolidifyBelow
	th.MeltAbove = cfg.Physics.MeltAbove
	th.BoilAt = cfg.Physics.BoilAt
	th.FreezeAt = cfg.Physics.FreezeAt

	bio := biology.New()
	bio.CarryingFactor = cfg.Biology.CarryingFactor
	bio.NutrientRegen = cfg.Biology.NutrientRegen
	bio.EmergenceChance = cfg.Biology.EmergenceChance
	bio.OrganicAt = cfg.Biology.OrganicAt

	spawn := society.NewSpawner()
	spawn.Threshold = cfg.Society.SpawnThreshold

	evolve := society.NewEvolver()
	evolve.CollapseAt = cfg.Society.CollapseAt
	evolve.WarRadius = cfg.Society.WarRadius
	evolve.WarAggression = cfg.Society.WarAggression
	evolve.WarChance = cfg.Society.WarChance

	return &Pipeline{
		Thermal:    th,
		Population: bio,
		Spawn:      spawn,
		Evolve:     evolve,
		Agent:      agent.New(),
	}
}
