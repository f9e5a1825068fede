// Package society founds civilizations from large populations and evolves
// them: technology, temperament, growth, war and collapse.
package society

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/vovakirdan/worldsim/internal/rules"
	"github.com/vovakirdan/worldsim/internal/world"
)

var (
	namePrefixes = []string{"Astra", "Terra", "Zeno", "Kryth", "Luma", "Vexis", "Orin", "Drak"}
	nameSuffixes = []string{"nians", "ites", "oks", "ans", "ari", "oni", "ian", "eth"}
)

// Name draws a civilization name from r.
func Name(r *rand.Rand, id world.CivID) string {
	p := namePrefixes[r.IntN(len(namePrefixes))]
	s := nameSuffixes[r.IntN(len(nameSuffixes))]
	return fmt.Sprintf("%s%s #%d", p, s, id)
}

// Spawner founds a civilization wherever a population reaches Threshold and
// no civilization stands yet.
type Spawner struct {
	Threshold uint32
}

// NewSpawner returns a spawner with the stock threshold.
func NewSpawner() *Spawner {
	return &Spawner{Threshold: 500}
}

// Apply founds civilizations in population order.
func (sp *Spawner) Apply(ctx *rules.Context, s *world.State) {
	for _, p := range s.Populations {
		if p.Size < sp.Threshold || s.CivAt(p.Pos) >= 0 {
			continue
		}
		id := s.NextCivID
		s.NextCivID++
		s.Civilizations = append(s.Civilizations, world.Civilization{
			ID:           id,
			Name:         Name(ctx.Rand, id),
			Pos:          p.Pos,
			Population:   p.Size,
			Tech:         1,
			Aggression:   ctx.Rand.Float64(),
			Spirituality: ctx.Rand.Float64(),
			Founded:      ctx.Tick,
		})
		ctx.Report.Founded = append(ctx.Report.Founded, id)
	}
}

// Evolver advances existing civilizations and resolves conflicts.
type Evolver struct {
	TechRate   float64 // guaranteed tech gain per tick
	TechJitter float64 // extra random tech gain, up to this much
	HarshBelow float64
	HarshAbove float64
	Decline    float64 // population fraction lost per harsh tick
	Growth     float64 // population fraction gained per mild tick
	Drift      float64 // temperament random walk width

	WarRadius     float64
	WarAggression float64 // combined aggression needed for war
	WarChance     float64
	WarTechBonus  float64
	CollapseAt    uint32 // populations at or below this collapse
}

// NewEvolver returns an evolver with stock parameters.
func NewEvolver() *Evolver {
	return &Evolver{
		TechRate:      0.01,
		TechJitter:    0.02,
		HarshBelow:    10,
		HarshAbove:    30,
		Decline:       0.05,
		Growth:        0.02,
		Drift:         0.01,
		WarRadius:     10,
		WarAggression: 1.2,
		WarChance:     0.1,
		WarTechBonus:  0.1,
		CollapseAt:    50,
	}
}

// Apply grows every civilization, fights wars between close aggressive
// neighbours and removes the collapsed.
func (e *Evolver) Apply(ctx *rules.Context, s *world.State) {
	civs := s.Civilizations
	for i := range civs {
		c := &civs[i]
		c.Tech += e.TechRate + ctx.Rand.Float64()*e.TechJitter

		if cell, err := s.Grid.At(c.Pos.X, c.Pos.Y, c.Pos.Z); err == nil {
			if cell.Temperature < e.HarshBelow || cell.Temperature > e.HarshAbove {
				c.Population = sub(c.Population, scale(c.Population, e.Decline))
			} else {
				c.Population = add(c.Population, scale(c.Population, e.Growth))
			}
		}

		c.Spirituality = clamp01(c.Spirituality + (ctx.Rand.Float64()-0.5)*e.Drift)
		c.Aggression = clamp01(c.Aggression + (ctx.Rand.Float64()-0.5)*e.Drift)
	}

	for i := 0; i < len(civs); i++ {
		for j := i + 1; j < len(civs); j++ {
			if civs[i].Pos.Distance(civs[j].Pos) >= e.WarRadius {
				continue
			}
			if civs[i].Aggression+civs[j].Aggression <= e.WarAggression {
				continue
			}
			if ctx.Rand.Float64() >= e.WarChance {
				continue
			}
			ctx.Report.Wars = append(ctx.Report.Wars, e.fight(&civs[i], &civs[j]))
		}
	}

	kept := civs[:0]
	for _, c := range civs {
		if c.Population <= e.CollapseAt {
			ctx.Report.Collapsed = append(ctx.Report.Collapsed, c.ID)
			continue
		}
		kept = append(kept, c)
	}
	s.Civilizations = kept
}

// fight resolves a war. Strength is tech plus a small population term.
func (e *Evolver) fight(a, b *world.Civilization) rules.War {
	winner, loser := a, b
	if strength(b) >= strength(a) {
		winner, loser = b, a
	}
	spoils := loser.Population / 3
	winner.Population = add(winner.Population, spoils)
	loser.Population = sub(loser.Population, spoils*2)
	winner.Tech += e.WarTechBonus
	return rules.War{Winner: winner.ID, Loser: loser.ID, Spoils: spoils}
}

func strength(c *world.Civilization) float64 {
	return c.Tech + float64(c.Population)*0.001
}

func scale(n uint32, f float64) uint32 {
	v := float64(n) * f
	if !(v > 0) {
		return 0
	}
	if v >= math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(v)
}

func add(a, b uint32) uint32 {
	if a > math.MaxUint32-b {
		return math.MaxUint32
	}
	return a + b
}

func sub(a, b uint32) uint32 {
	if b >= a {
		return 0
	}
	return a - b
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
