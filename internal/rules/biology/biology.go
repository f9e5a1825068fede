// Package biology grows, starves, migrates and seeds populations.
// It owns the populations and the nutrient and organic state of the cells
// they live in.
package biology

import (
	"math"
	"slices"

	"github.com/vovakirdan/worldsim/internal/grid"
	"github.com/vovakirdan/worldsim/internal/rules"
	"github.com/vovakirdan/worldsim/internal/world"
)

// Rule is the population stage.
type Rule struct {
	CarryingFactor  float64 // capacity per unit of nutrients
	ConsumeRate     float64 // nutrients eaten per individual
	MigrationFactor float64 // scales species mobility into a per-tick chance
	MinMigrants     uint32  // smallest group that splits off
	OrganicAt       uint32  // size at which a cell turns organic
	HostilePenalty  uint32  // loss per tick in an uninhabitable cell
	NutrientRegen   float64 // regrowth per tick in occupied cells
	NutrientCap     float64
	EmergenceChance float64 // per tick
	EmergenceSize   uint32
}

// New returns the rule with stock parameters.
func New() *Rule {
	return &Rule{
		CarryingFactor:  10,
		ConsumeRate:     0.1,
		MigrationFactor: 0.1,
		MinMigrants:     10,
		OrganicAt:       100,
		HostilePenalty:  5,
		NutrientRegen:   2,
		NutrientCap:     100,
		EmergenceChance: 0.02,
		EmergenceSize:   20,
	}
}

var directions = [6]grid.Coord{
	{X: -1}, {X: 1},
	{Y: -1}, {Y: 1},
	{Z: -1}, {Z: 1},
}

// Apply advances every population by one tick.
func (r *Rule) Apply(ctx *rules.Context, s *world.State) {
	pops := Merge(s.Populations)
	kept := pops[:0]
	var migrants []world.Population

	for _, p := range pops {
		if !s.Grid.InBounds(p.Pos.X, p.Pos.Y, p.Pos.Z) {
			ctx.Report.Extinct++
			continue
		}
		sp, ok := s.SpeciesByID(p.Species)
		if !ok {
			ctx.Report.Extinct++
			continue
		}
		moved, alive := r.step(ctx, s, &p, sp)
		if moved.Size > 0 {
			migrants = append(migrants, moved)
		}
		if !alive {
			ctx.Report.Extinct++
			continue
		}
		kept = append(kept, p)
	}

	kept = append(kept, migrants...)
	if emerged, ok := r.emerge(ctx, s); ok {
		kept = append(kept, emerged)
		ctx.Report.Emerged++
	}
	s.Populations = Merge(kept)
}

// step updates one population in place. It returns a split-off migrant group
// (zero Size when none) and whether p survives.
func (r *Rule) step(ctx *rules.Context, s *world.State, p *world.Population, sp world.Species) (world.Population, bool) {
	i, _ := s.Grid.Index(p.Pos.X, p.Pos.Y, p.Pos.Z)
	cell := s.Grid.CellAt(i)

	if !cell.Material.Habitable() {
		p.Size = subU32(p.Size, r.HostilePenalty)
		return world.Population{}, p.Size > 0
	}

	nutrients := math.Min(cell.Nutrients+r.NutrientRegen, r.NutrientCap)

	capacity := toU32(nutrients * r.CarryingFactor)
	if p.Size > capacity {
		p.Size = subU32(p.Size, (p.Size-capacity)/10)
	}

	growth := float64(p.Size) * sp.Reproduction * tempFactor(cell.Temperature, sp.PreferredTemp)
	p.Size = addU32(p.Size, toU32(growth))
	p.Size = subU32(p.Size, toU32(float64(p.Size)*sp.Metabolism*0.01))

	nutrients = math.Max(nutrients-float64(p.Size)*r.ConsumeRate, 0)

	var migrant world.Population
	if ctx.Rand.Float64() < sp.Mobility*r.MigrationFactor {
		dst := p.Pos.Add(directions[ctx.Rand.IntN(len(directions))])
		if half := p.Size / 2; half > r.MinMigrants && s.Grid.InBounds(dst.X, dst.Y, dst.Z) {
			p.Size -= half
			migrant = world.Population{Species: p.Species, Pos: dst, Size: half}
		}
	}

	m := s.Grid.MutAt(i)
	m.Nutrients = nutrients
	if p.Size > r.OrganicAt {
		m.Material = grid.OrganicLevel(uint8(min(p.Size/100, 255)))
	}
	return migrant, p.Size > 0
}

func (r *Rule) emerge(ctx *rules.Context, s *world.State) (world.Population, bool) {
	if len(s.Species) == 0 || ctx.Rand.Float64() >= r.EmergenceChance {
		return world.Population{}, false
	}
	i := ctx.Rand.IntN(s.Grid.Len())
	sp := s.Species[ctx.Rand.IntN(len(s.Species))]
	c := s.Grid.CellAt(i)
	if !c.Material.Habitable() || c.Nutrients <= 0 {
		return world.Population{}, false
	}
	return world.Population{Species: sp.ID, Pos: s.Grid.CoordOf(i), Size: r.EmergenceSize}, true
}

// tempFactor scales growth by how close the cell is to the preferred
// temperature.
func tempFactor(t, preferred float64) float64 {
	diff := math.Abs(t - preferred)
	switch {
	case diff < 5:
		return 1.2
	case diff < 10:
		return 1.0
	default:
		return 0.8
	}
}

type key struct {
	pos     grid.Coord
	species world.SpeciesID
}

// Merge combines populations of the same species in the same cell and
// returns them ordered by position, then species.
func Merge(pops []world.Population) []world.Population {
	sizes := make(map[key]uint32, len(pops))
	for _, p := range pops {
		k := key{p.Pos, p.Species}
		sizes[k] = addU32(sizes[k], p.Size)
	}
	out := make([]world.Population, 0, len(sizes))
	for k, size := range sizes {
		if size == 0 {
			continue
		}
		out = append(out, world.Population{Species: k.species, Pos: k.pos, Size: size})
	}
	slices.SortFunc(out, func(a, b world.Population) int {
		switch {
		case a.Pos.Less(b.Pos):
			return -1
		case b.Pos.Less(a.Pos):
			return 1
		case a.Species < b.Species:
			return -1
		case a.Species > b.Species:
			return 1
		}
		return 0
	})
	return out
}

func addU32(a, b uint32) uint32 {
	if a > math.MaxUint32-b {
		return math.MaxUint32
	}
	return a + b
}

func subU32(a, b uint32) uint32 {
	if b >= a {
		return 0
	}
	return a - b
}

func toU32(v float64) uint32 {
	if !(v > 0) {
		return 0
	}
	if v >= math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(v)
}
