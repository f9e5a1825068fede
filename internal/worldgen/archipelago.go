package worldgen

import (
	"github.com/vovakirdan/worldsim/internal/config"
	"github.com/vovakirdan/worldsim/internal/grid"
	"github.com/vovakirdan/worldsim/internal/registry"
	"github.com/vovakirdan/worldsim/internal/world"
)

func init() {
	registry.Register("archipelago", func() registry.Scenario { return Archipelago{} })
}

// Archipelago is a shallow sea dotted with soil islands shaped by value
// noise, over bedrock with scattered lava vents.
type Archipelago struct{}

// ID returns the scenario identifier.
func (Archipelago) ID() string { return "archipelago" }

// Title returns the display name.
func (Archipelago) Title() string { return "Volcanic Archipelago" }

const (
	islandCell   = 8   // noise lattice spacing in cells
	ventOdds     = 61  // one vent per this many bedrock-top cells, on average
	seaLevelFrac = 0.5 // sea surface as a fraction of depth
)

// Generate builds the world.
func (Archipelago) Generate(cfg config.Config) (*world.State, error) {
	s, r, err := newState(cfg)
	if err != nil {
		return nil, err
	}
	g := s.Grid
	w, h, d := g.Dims()
	seed := uint32(cfg.World.Seed) ^ uint32(cfg.World.Seed>>32)

	bedrock := max(d/4, 1)
	sea := max(int(float64(d)*seaLevelFrac), bedrock)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			// Land height ranges from the bedrock top to just under the
			// surface, and crosses sea level on roughly 40% of columns.
			n := valueNoise2(seed, x, y, islandCell)
			land := bedrock + int(n*float64(d-bedrock))
			for z := 0; z < d; z++ {
				var c grid.Cell
				switch {
				case z < bedrock:
					c = grid.RockCell()
					if z == bedrock-1 && hash3(seed, int32(x), int32(y), int32(z))%ventOdds == 0 {
						c = grid.LavaCell()
					}
				case z < land:
					c = grid.SoilCell()
					c.Temperature = ambientJitter(r, 16, 8)
				case z < sea:
					c = grid.WaterCell()
				default:
					c = grid.AirCell()
				}
				_ = g.Set(x, y, z, c)
			}
		}
	}

	s.Species = species(cfg.Biology.Species, r)
	if len(s.Species) == 0 {
		return s, nil
	}
	for i := 0; i < cfg.Biology.SeedPopulations; i++ {
		// A bounded number of draws keeps generation total on all-sea maps.
		for try := 0; try < 32; try++ {
			p, ok := habitableSurface(g, r.IntN(w), r.IntN(h))
			if !ok {
				continue
			}
			s.Populations = append(s.Populations, world.Population{
				Species: world.SpeciesID(i % len(s.Species)),
				Pos:     p,
				Size:    uint32(50 + i*20),
			})
			break
		}
	}
	return s, nil
}
