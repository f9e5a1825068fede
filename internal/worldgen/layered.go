package worldgen

import (
	"github.com/vovakirdan/worldsim/internal/config"
	"github.com/vovakirdan/worldsim/internal/grid"
	"github.com/vovakirdan/worldsim/internal/registry"
	"github.com/vovakirdan/worldsim/internal/world"
)

func init() {
	registry.Register("layered", func() registry.Scenario { return Layered{} })
}

// Layered is bedrock, a thick soil band and air, with two shallow oceans
// along the x edges. Seed populations sit in the upper soil.
type Layered struct{}

// ID returns the scenario identifier.
func (Layered) ID() string { return "layered" }

// Title returns the display name.
func (Layered) Title() string { return "Layered Continent" }

// Generate builds the world.
func (Layered) Generate(cfg config.Config) (*world.State, error) {
	s, r, err := newState(cfg)
	if err != nil {
		return nil, err
	}
	g := s.Grid
	w, h, d := g.Dims()

	// Strata bounds are fractions of depth: rock below 30%, soil below
	// 70%, ocean below 75%.
	for i := 0; i < g.Len(); i++ {
		x, _, z := g.Coord(i)
		var c grid.Cell
		switch {
		case z*10 < d*3:
			c = grid.RockCell()
		case z*10 < d*7:
			c = grid.SoilCell()
			c.Temperature = ambientJitter(r, 15, 10)
		case (x < w/4 || x > w*3/4) && z*100 < d*75:
			c = grid.WaterCell()
		default:
			c = grid.AirCell()
			c.Temperature = ambientJitter(r, 18, 8)
		}
		g.SetAt(i, c)
	}

	s.Species = species(cfg.Biology.Species, r)
	if len(s.Species) > 0 {
		z := d * 6 / 10
		for i := 0; i < cfg.Biology.SeedPopulations; i++ {
			s.Populations = append(s.Populations, world.Population{
				Species: world.SpeciesID(i % len(s.Species)),
				Pos:     grid.C((10+i*10)%w, (10+i*8)%h, z),
				Size:    uint32(50 + i*20),
			})
		}
	}
	return s, nil
}
