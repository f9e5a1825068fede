package biology

import (
	"math"
	"testing"

	"github.com/vovakirdan/worldsim/internal/grid"
	"github.com/vovakirdan/worldsim/internal/rules"
	"github.com/vovakirdan/worldsim/internal/world"
)

func newState(t *testing.T, fill grid.Cell) *world.State {
	t.Helper()
	g, err := grid.New(8, 8, 4, fill)
	if err != nil {
		t.Fatalf("grid.New() error = %v", err)
	}
	s := world.New(g, 3)
	s.Species = []world.Species{{ID: 0, Metabolism: 1, Reproduction: 0.05, Mobility: 0, PreferredTemp: 18}}
	return s
}

func run(r *Rule, s *world.State) rules.Report {
	var rep rules.Report
	r.Apply(&rules.Context{Tick: s.Tick + 1, Rand: s.RNG.Rand(), Report: &rep}, s)
	return rep
}

func TestMerge(t *testing.T) {
	pops := []world.Population{
		{Species: 1, Pos: grid.C(1, 0, 0), Size: 5},
		{Species: 0, Pos: grid.C(1, 0, 0), Size: 7},
		{Species: 1, Pos: grid.C(1, 0, 0), Size: 3},
		{Species: 0, Pos: grid.C(0, 0, 0), Size: 2},
		{Species: 0, Pos: grid.C(2, 0, 0), Size: 0},
	}

	got := Merge(pops)
	expected := []world.Population{
		{Species: 0, Pos: grid.C(0, 0, 0), Size: 2},
		{Species: 0, Pos: grid.C(1, 0, 0), Size: 7},
		{Species: 1, Pos: grid.C(1, 0, 0), Size: 8},
	}
	if len(got) != len(expected) {
		t.Fatalf("Merge() returned %d populations, expected %d", len(got), len(expected))
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("Merge()[%d] = %+v, expected %+v", i, got[i], expected[i])
		}
	}
}

func TestMergeSaturates(t *testing.T) {
	pops := []world.Population{
		{Pos: grid.C(0, 0, 0), Size: math.MaxUint32 - 1},
		{Pos: grid.C(0, 0, 0), Size: 10},
	}
	if got := Merge(pops)[0].Size; got != math.MaxUint32 {
		t.Errorf("Merge() size = %d, expected %d", got, uint32(math.MaxUint32))
	}
}

func TestGrowthInFertileSoil(t *testing.T) {
	s := newState(t, grid.SoilCell())
	s.Populations = []world.Population{{Species: 0, Pos: grid.C(2, 2, 2), Size: 50}}
	r := New()
	r.EmergenceChance = 0

	run(r, s)

	if len(s.Populations) != 1 {
		t.Fatalf("populations = %d, expected 1", len(s.Populations))
	}
	if s.Populations[0].Size <= 50 {
		t.Errorf("size = %d, expected growth above 50", s.Populations[0].Size)
	}
	c, _ := s.Grid.At(2, 2, 2)
	if c.Nutrients >= grid.SoilCell().Nutrients+r.NutrientRegen {
		t.Errorf("nutrients = %v, expected consumption", c.Nutrients)
	}
}

func TestHostileCellShrinks(t *testing.T) {
	s := newState(t, grid.RockCell())
	s.Populations = []world.Population{{Species: 0, Pos: grid.C(0, 0, 0), Size: 7}}
	r := New()
	r.EmergenceChance = 0

	run(r, s)
	if s.Populations[0].Size != 2 {
		t.Fatalf("size = %d, expected 2", s.Populations[0].Size)
	}

	rep := run(r, s)
	if len(s.Populations) != 0 {
		t.Errorf("populations = %d, expected extinction", len(s.Populations))
	}
	if rep.Extinct != 1 {
		t.Errorf("Report.Extinct = %d, expected 1", rep.Extinct)
	}
}

func TestLargePopulationTurnsCellOrganic(t *testing.T) {
	s := newState(t, grid.SoilCell())
	s.Populations = []world.Population{{Species: 0, Pos: grid.C(1, 1, 1), Size: 400}}
	r := New()
	r.EmergenceChance = 0

	run(r, s)

	c, _ := s.Grid.At(1, 1, 1)
	if c.Material.Kind != grid.Organic {
		t.Fatalf("material = %v, expected organic", c.Material)
	}
	if c.Material.Level == 0 {
		t.Error("organic level = 0, expected positive")
	}
}

func TestMigrationSplits(t *testing.T) {
	s := newState(t, grid.SoilCell())
	s.Species[0].Mobility = 1
	s.Populations = []world.Population{{Species: 0, Pos: grid.C(4, 4, 2), Size: 200}}
	r := New()
	r.EmergenceChance = 0
	r.MigrationFactor = 1 // always migrate

	run(r, s)

	if len(s.Populations) != 2 {
		t.Fatalf("populations = %d, expected 2 after split", len(s.Populations))
	}
	for _, p := range s.Populations {
		if p.Pos != grid.C(4, 4, 2) && p.Pos.Distance(grid.C(4, 4, 2)) != 1 {
			t.Errorf("migrant at %v, expected an axis neighbour", p.Pos)
		}
	}
}

func TestEmergence(t *testing.T) {
	s := newState(t, grid.SoilCell())
	r := New()
	r.EmergenceChance = 1

	rep := run(r, s)
	if rep.Emerged != 1 || len(s.Populations) != 1 {
		t.Errorf("Emerged = %d, populations = %d, expected 1 and 1", rep.Emerged, len(s.Populations))
	}
}

func TestTempFactor(t *testing.T) {
	tests := []struct {
		temp, expected float64
	}{
		{20, 1.2},
		{26, 1.0},
		{40, 0.8},
		{-10, 0.8},
	}
	for _, tc := range tests {
		if got := tempFactor(tc.temp, 18); got != tc.expected {
			t.Errorf("tempFactor(%v, 18) = %v, expected %v", tc.temp, got, tc.expected)
		}
	}
}
