// Package worldgen builds initial world states. Each generator registers
// itself as a scenario in init(); import the package for its side effects.
package worldgen

import (
	"fmt"
	"math/rand/v2"

	"github.com/vovakirdan/worldsim/internal/config"
	"github.com/vovakirdan/worldsim/internal/grid"
	"github.com/vovakirdan/worldsim/internal/rules/agent"
	"github.com/vovakirdan/worldsim/internal/world"
)

// newState allocates a grid filled with air and wraps it in a tick-0 state
// carrying cfg's seed and physics. It also returns the generation stream,
// which is independent of the state's own RNG.
func newState(cfg config.Config) (*world.State, *rand.Rand, error) {
	wc := cfg.World
	g, err := grid.New(wc.Width, wc.Height, wc.Depth, grid.AirCell())
	if err != nil {
		return nil, nil, fmt.Errorf("worldgen: %w", err)
	}
	s := world.New(g, wc.Seed)
	s.Physics = world.Physics{
		Gravity:       cfg.Physics.Gravity,
		HeatDiffusion: cfg.Physics.HeatDiffusion,
		Cooling:       cfg.Physics.Cooling,
		Ambient:       cfg.Physics.Ambient,
	}
	r := rand.New(rand.NewPCG(wc.Seed, 0x5eed))
	s.Agent = temperament(cfg.Agent, r)
	return s, r, nil
}

func temperament(ac config.AgentConfig, r *rand.Rand) world.AgentState {
	if ac.Temperament == "fixed" {
		a := world.AgentState{
			Curiosity:   ac.Curiosity,
			Benevolence: ac.Benevolence,
			Cruelty:     ac.Cruelty,
			Boredom:     ac.Boredom,
		}
		a.Clamp()
		return a
	}
	return agent.RandomTemperament(r)
}

// species draws n catalog entries.
func species(n int, r *rand.Rand) []world.Species {
	out := make([]world.Species, n)
	for i := range out {
		out[i] = world.Species{
			ID:            world.SpeciesID(i),
			Metabolism:    0.5 + r.Float64()*1.5,
			Reproduction:  0.01 + r.Float64()*0.09,
			Mobility:      0.1 + r.Float64()*0.9,
			PreferredTemp: 15 + r.Float64()*10,
		}
	}
	return out
}

// ambientJitter returns base plus a uniform draw in [0, spread).
func ambientJitter(r *rand.Rand, base, spread float64) float64 {
	return base + r.Float64()*spread
}

// habitableSurface returns the topmost habitable cell of column (x, y).
func habitableSurface(g *grid.Grid, x, y int) (grid.Coord, bool) {
	for z := g.Depth() - 1; z >= 0; z-- {
		c, _ := g.At(x, y, z)
		if c.Material.Habitable() {
			return grid.C(x, y, z), true
		}
	}
	return grid.Coord{}, false
}
