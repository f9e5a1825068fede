// Package agent implements the autonomous overseer: it summarizes the world,
// updates its temperament, picks at most one intervention and applies it.
package agent

import (
	"math"
	"math/rand/v2"

	"github.com/vovakirdan/worldsim/internal/grid"
	"github.com/vovakirdan/worldsim/internal/rules"
	"github.com/vovakirdan/worldsim/internal/world"
)

// Summary is the aggregate view the agent decides on.
type Summary struct {
	Civilizations    int
	AvgTech          float64
	Biomass          uint64
	Wars             int // close pairs of aggressive civilizations
	ClimateStability float64
	Dims             grid.Coord
}

// Summarize builds the agent's view of s.
func Summarize(s *world.State) Summary {
	w, h, d := s.Grid.Dims()
	sum := Summary{
		Civilizations: len(s.Civilizations),
		Biomass:       s.Biomass(),
		Dims:          grid.C(w, h, d),
	}

	if n := len(s.Civilizations); n > 0 {
		var tech float64
		for _, c := range s.Civilizations {
			tech += c.Tech
		}
		sum.AvgTech = tech / float64(n)
	}

	civs := s.Civilizations
	for i := range civs {
		for j := i + 1; j < len(civs); j++ {
			if civs[i].Pos.Distance(civs[j].Pos) < 10 && civs[i].Aggression > 0.6 && civs[j].Aggression > 0.6 {
				sum.Wars++
			}
		}
	}

	// Welford keeps the variance stable over large grids.
	var mean, m2 float64
	var n int
	s.Grid.Each(func(_ int, c grid.Cell) {
		n++
		delta := c.Temperature - mean
		mean += delta / float64(n)
		m2 += delta * (c.Temperature - mean)
	})
	variance := m2 / float64(n)
	sum.ClimateStability = 1 / (1 + variance/100)
	return sum
}

// ChooseAction updates a's temperament from the summary and picks an action.
func ChooseAction(a *world.AgentState, sum Summary, r *rand.Rand) rules.Action {
	if sum.Civilizations == 0 {
		a.Boredom += 0.1
		a.Benevolence += 0.05
	} else {
		a.Boredom -= 0.02
	}
	if sum.Wars > 2 {
		a.Curiosity += 0.03
	}
	if sum.Biomass < 100 {
		a.Benevolence += 0.02
	}
	a.Clamp()

	roll := r.Float64()
	switch {
	case a.Boredom > 0.7 && sum.Civilizations > 0:
		if r.Float64() < 0.5 {
			return bless(r, sum, 0.5, 2)
		}
		return catastrophe(r, sum, 5, 20)
	case a.Cruelty > 0.6 && sum.Wars > 1 && roll < 0.15:
		return catastrophe(r, sum, 10, 30)
	case a.Benevolence > 0.7 && sum.Civilizations > 0 && roll < 0.1:
		return bless(r, sum, 1, 3)
	case a.Curiosity > 0.8 && roll < 0.05:
		return rules.Action{
			Kind:           rules.ActionChangePhysics,
			DiffusionDelta: between(r, -0.05, 0.05),
			CoolingDelta:   between(r, -0.01, 0.01),
		}
	}
	return rules.Action{}
}

// bless targets a civilization by position in the list; the caller resolves
// it to an ID.
func bless(r *rand.Rand, sum Summary, lo, hi float64) rules.Action {
	return rules.Action{
		Kind:  rules.ActionBless,
		Civ:   world.CivID(r.IntN(sum.Civilizations)),
		Boost: between(r, lo, hi),
	}
}

func catastrophe(r *rand.Rand, sum Summary, lo, hi float64) rules.Action {
	return rules.Action{
		Kind:      rules.ActionCatastrophe,
		Target:    grid.C(r.IntN(sum.Dims.X), r.IntN(sum.Dims.Y), r.IntN(sum.Dims.Z)),
		Intensity: between(r, lo, hi),
	}
}

func between(r *rand.Rand, lo, hi float64) float64 {
	return lo + r.Float64()*(hi-lo)
}

// Catastrophe effect parameters.
const (
	blastSize   = 3 // edge of the heated cube, starting at the target
	blastRadius = 5 // civilizations closer than this lose people
	blastDeaths = 10
)

// ApplyAction carries out an action on s. It returns the civilizations a
// catastrophe wiped out; they are removed from s.
func ApplyAction(s *world.State, act rules.Action) (wiped []world.CivID) {
	switch act.Kind {
	case rules.ActionChangePhysics:
		s.Physics.HeatDiffusion = clamp(s.Physics.HeatDiffusion+act.DiffusionDelta, 0, 1)
		s.Physics.Cooling = clamp(s.Physics.Cooling+act.CoolingDelta, 0, 0.1)

	case rules.ActionCatastrophe:
		for dz := 0; dz < blastSize; dz++ {
			for dy := 0; dy < blastSize; dy++ {
				for dx := 0; dx < blastSize; dx++ {
					c, err := s.Grid.Mut(act.Target.X+dx, act.Target.Y+dy, act.Target.Z+dz)
					if err != nil {
						continue
					}
					c.Temperature = math.Min(c.Temperature+act.Intensity, 10000)
				}
			}
		}
		deaths := uint32(act.Intensity * blastDeaths)
		for i := range s.Civilizations {
			c := &s.Civilizations[i]
			if c.Pos.Distance(act.Target) >= blastRadius {
				continue
			}
			if deaths >= c.Population {
				c.Population = 0
			} else {
				c.Population -= deaths
			}
		}
		kept := s.Civilizations[:0]
		for _, c := range s.Civilizations {
			if c.Population == 0 {
				wiped = append(wiped, c.ID)
				continue
			}
			kept = append(kept, c)
		}
		s.Civilizations = kept

	case rules.ActionBless:
		for i := range s.Civilizations {
			c := &s.Civilizations[i]
			if c.ID != act.Civ {
				continue
			}
			c.Tech += act.Boost
			p := float64(c.Population) * 1.2
			if p >= math.MaxUint32 {
				c.Population = math.MaxUint32
			} else {
				c.Population = uint32(p)
			}
			return nil
		}
	}
	return wiped
}

func clamp(v, lo, hi float64) float64 {
	if !(v > lo) {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Rule composes Summarize, ChooseAction and ApplyAction into the final stage.
type Rule struct{}

// New returns the agent stage.
func New() *Rule { return &Rule{} }

// Apply runs one decision cycle and records the action in the report.
func (Rule) Apply(ctx *rules.Context, s *world.State) {
	sum := Summarize(s)
	act := ChooseAction(&s.Agent, sum, ctx.Rand)
	if act.Kind == rules.ActionBless {
		// Resolve the list position to a stable ID.
		act.Civ = s.Civilizations[int(act.Civ)].ID
	}
	wiped := ApplyAction(s, act)
	ctx.Report.Collapsed = append(ctx.Report.Collapsed, wiped...)
	ctx.Report.Action = act
}

// RandomTemperament draws an initial agent state.
func RandomTemperament(r *rand.Rand) world.AgentState {
	return world.AgentState{
		Curiosity:   between(r, 0.3, 0.8),
		Benevolence: between(r, 0.4, 0.7),
		Cruelty:     between(r, 0.1, 0.4),
	}
}
