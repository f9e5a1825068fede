// Package thermal implements heat diffusion, ambient cooling, phase
// transitions and gravity. It owns the grid cells only.
package thermal

import (
	"math"

	"github.com/vovakirdan/worldsim/internal/grid"
	"github.com/vovakirdan/worldsim/internal/rules"
	"github.com/vovakirdan/worldsim/internal/world"
)

// Temperature limits. Anything outside is clamped; NaN becomes ambient.
const (
	MinTemp = -273.15
	MaxTemp = 10000.0
)

// Rule is the thermal and gravity stage.
type Rule struct {
	SolidifyBelow float64 // lava turns to rock
	MeltAbove     float64 // rock turns to lava
	BoilAt        float64 // water evaporates
	FreezeAt      float64 // water turns to ice, ice melts above it
}

// New returns the rule with stock transition points.
func New() *Rule {
	return &Rule{
		SolidifyBelow: 700,
		MeltAbove:     1200,
		BoilAt:        100,
		FreezeAt:      0,
	}
}

// Apply runs diffusion, cooling, phase transitions and then gravity.
func (r *Rule) Apply(ctx *rules.Context, s *world.State) {
	Diffuse(s.Grid, s.Physics)
	ctx.Report.Phase += r.transitions(s.Grid)
	if s.Physics.Gravity {
		ctx.Report.Fell += Settle(s.Grid)
	}
}

// Diffuse moves every cell temperature toward the mean of its axis
// neighbours and then toward the ambient temperature. All reads use the
// temperatures from before the call. Cells whose values do not change are
// not written, so quiet regions keep sharing storage with the previous tick.
func Diffuse(g *grid.Grid, p world.Physics) {
	n := g.Len()
	before := make([]float64, n)
	g.Each(func(i int, c grid.Cell) {
		before[i] = c.Temperature
	})

	rate := sanitizeRate(p.HeatDiffusion, 1)
	cooling := sanitizeRate(p.Cooling, 1)
	ambient := p.Ambient
	if math.IsNaN(ambient) || math.IsInf(ambient, 0) {
		ambient = 20
	}

	var nbuf [6]int
	for i := 0; i < n; i++ {
		t := before[i]
		ns := g.AppendNeighborIndices(nbuf[:0], i)
		if len(ns) > 0 {
			var sum float64
			for _, j := range ns {
				sum += before[j]
			}
			avg := sum / float64(len(ns))
			t += rate * (avg - t)
		}
		t += cooling * (ambient - t)
		t = ClampTemp(t, ambient)

		c := g.CellAt(i)
		d, nu := finiteOr(c.Density, 0), finiteOr(c.Nutrients, 0)
		if t != c.Temperature || d != c.Density || nu != c.Nutrients {
			m := g.MutAt(i)
			m.Temperature = t
			m.Density = d
			m.Nutrients = nu
		}
	}
}

// ClampTemp bounds a temperature to [MinTemp, MaxTemp], replacing NaN with
// fallback.
func ClampTemp(t, fallback float64) float64 {
	if math.IsNaN(t) {
		return fallback
	}
	if t < MinTemp {
		return MinTemp
	}
	if t > MaxTemp {
		return MaxTemp
	}
	return t
}

func finiteOr(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}

func sanitizeRate(v, max float64) float64 {
	if !(v > 0) {
		return 0
	}
	if v > max {
		return max
	}
	return v
}

func (r *Rule) transitions(g *grid.Grid) int {
	changed := 0
	n := g.Len()
	for i := 0; i < n; i++ {
		c := g.CellAt(i)
		next, ok := r.transition(c)
		if !ok {
			continue
		}
		g.SetAt(i, next)
		changed++
	}
	return changed
}

// transition returns the cell after a phase change, keeping its temperature.
func (r *Rule) transition(c grid.Cell) (grid.Cell, bool) {
	t := c.Temperature
	var next grid.Cell
	switch c.Material.Kind {
	case grid.Lava:
		if t >= r.SolidifyBelow {
			return c, false
		}
		next = grid.RockCell()
	case grid.Rock:
		if t <= r.MeltAbove {
			return c, false
		}
		next = grid.LavaCell()
	case grid.Water:
		switch {
		case t >= r.BoilAt:
			next = grid.AirCell()
		case t <= r.FreezeAt:
			next = grid.IceCell()
			next.Nutrients = c.Nutrients
		default:
			return c, false
		}
	case grid.Ice:
		if t <= r.FreezeAt {
			return c, false
		}
		next = grid.WaterCell()
		next.Nutrients = c.Nutrients
	default:
		return c, false
	}
	next.Temperature = t
	return next, true
}

// Settle lets loose materials fall one cell into air directly below them.
// Layers are scanned bottom-up so each cell moves at most once per call.
// It returns the number of cells moved.
func Settle(g *grid.Grid) int {
	w, h, d := g.Dims()
	plane := w * h
	moved := 0
	for z := 1; z < d; z++ {
		for k := 0; k < plane; k++ {
			i := z*plane + k
			c := g.CellAt(i)
			if !c.Material.Loose() {
				continue
			}
			below := i - plane
			if g.CellAt(below).Material.Kind != grid.Air {
				continue
			}
			g.Swap(i, below)
			moved++
		}
	}
	return moved
}
