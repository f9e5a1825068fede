package worldgen

import (
	"github.com/vovakirdan/worldsim/internal/config"
	"github.com/vovakirdan/worldsim/internal/grid"
	"github.com/vovakirdan/worldsim/internal/registry"
	"github.com/vovakirdan/worldsim/internal/world"
)

func init() {
	registry.Register("crucible", func() registry.Scenario { return Crucible{} })
}

// Crucible temperatures.
const (
	CrucibleSoilTemp = 20.0
	CrucibleLavaTemp = 1000.0
)

// Crucible is uniform soil at 20 degrees with a single lava cell at the
// origin corner. It carries no life and is meant for watching heat spread.
type Crucible struct{}

// ID returns the scenario identifier.
func (Crucible) ID() string { return "crucible" }

// Title returns the display name.
func (Crucible) Title() string { return "Lava Crucible" }

// Generate builds the world.
func (Crucible) Generate(cfg config.Config) (*world.State, error) {
	s, _, err := newState(cfg)
	if err != nil {
		return nil, err
	}
	soil := grid.SoilCell()
	soil.Temperature = CrucibleSoilTemp
	for i := 0; i < s.Grid.Len(); i++ {
		s.Grid.SetAt(i, soil)
	}
	lava := grid.LavaCell()
	lava.Temperature = CrucibleLavaTemp
	if err := s.Grid.Set(0, 0, 0, lava); err != nil {
		return nil, err
	}
	return s, nil
}
