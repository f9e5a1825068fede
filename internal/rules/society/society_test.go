package society

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/vovakirdan/worldsim/internal/grid"
	"github.com/vovakirdan/worldsim/internal/rules"
	"github.com/vovakirdan/worldsim/internal/world"
)

func newState(t *testing.T, temp float64) *world.State {
	t.Helper()
	fill := grid.SoilCell()
	fill.Temperature = temp
	g, err := grid.New(16, 16, 4, fill)
	if err != nil {
		t.Fatalf("grid.New() error = %v", err)
	}
	return world.New(g, 11)
}

func ctxFor(s *world.State, rep *rules.Report) *rules.Context {
	return &rules.Context{Tick: s.Tick + 1, Rand: s.RNG.Rand(), Report: rep}
}

func TestSpawnerFoundsOncePerCell(t *testing.T) {
	s := newState(t, 20)
	s.Populations = []world.Population{
		{Species: 0, Pos: grid.C(1, 1, 1), Size: 499},
		{Species: 0, Pos: grid.C(2, 2, 2), Size: 500},
		{Species: 1, Pos: grid.C(2, 2, 2), Size: 900},
	}

	var rep rules.Report
	NewSpawner().Apply(ctxFor(s, &rep), s)

	if len(s.Civilizations) != 1 {
		t.Fatalf("civilizations = %d, expected 1", len(s.Civilizations))
	}
	c := s.Civilizations[0]
	if c.Pos != grid.C(2, 2, 2) || c.Population != 500 || c.Tech != 1 {
		t.Errorf("civilization = %+v, expected pop 500 tech 1 at (2,2,2)", c)
	}
	if c.ID != 1 || s.NextCivID != 2 {
		t.Errorf("ID = %d, NextCivID = %d, expected 1 and 2", c.ID, s.NextCivID)
	}
	if !strings.HasSuffix(c.Name, " #1") {
		t.Errorf("Name = %q, expected suffix \" #1\"", c.Name)
	}
	if len(rep.Founded) != 1 || rep.Founded[0] != 1 {
		t.Errorf("Report.Founded = %v, expected [1]", rep.Founded)
	}
}

func TestNameDeterministic(t *testing.T) {
	a := rand.New(rand.NewPCG(1, 2))
	b := rand.New(rand.NewPCG(1, 2))
	for id := world.CivID(1); id < 10; id++ {
		if x, y := Name(a, id), Name(b, id); x != y {
			t.Errorf("Name(%d) = %q and %q, expected equal", id, x, y)
		}
	}
}

func TestEvolverGrowthAndDecline(t *testing.T) {
	tests := []struct {
		name     string
		temp     float64
		expected uint32
	}{
		{"mild", 20, 1020},
		{"cold", 5, 950},
		{"hot", 35, 950},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := newState(t, tc.temp)
			s.Civilizations = []world.Civilization{{ID: 1, Pos: grid.C(0, 0, 0), Population: 1000, Tech: 1, Aggression: 0.5, Spirituality: 0.5}}

			var rep rules.Report
			NewEvolver().Apply(ctxFor(s, &rep), s)

			c := s.Civilizations[0]
			if c.Population != tc.expected {
				t.Errorf("Population = %d, expected %d", c.Population, tc.expected)
			}
			if c.Tech < 1.01 || c.Tech > 1.03 {
				t.Errorf("Tech = %v, expected within [1.01, 1.03]", c.Tech)
			}
			if c.Aggression < 0 || c.Aggression > 1 || c.Spirituality < 0 || c.Spirituality > 1 {
				t.Errorf("temperament out of range: %+v", c)
			}
		})
	}
}

func TestWarAndCollapse(t *testing.T) {
	s := newState(t, 20)
	s.Civilizations = []world.Civilization{
		{ID: 1, Pos: grid.C(0, 0, 0), Population: 3000, Tech: 5, Aggression: 1},
		{ID: 2, Pos: grid.C(3, 0, 0), Population: 120, Tech: 1, Aggression: 1},
	}
	e := NewEvolver()
	e.WarChance = 1

	var rep rules.Report
	e.Apply(ctxFor(s, &rep), s)

	if len(rep.Wars) != 1 {
		t.Fatalf("wars = %d, expected 1", len(rep.Wars))
	}
	w := rep.Wars[0]
	if w.Winner != 1 || w.Loser != 2 {
		t.Errorf("war = %+v, expected civ 1 to beat civ 2", w)
	}
	if len(s.Civilizations) != 1 || s.Civilizations[0].ID != 1 {
		t.Fatalf("survivors = %+v, expected only civ 1", s.Civilizations)
	}
	if len(rep.Collapsed) != 1 || rep.Collapsed[0] != 2 {
		t.Errorf("Report.Collapsed = %v, expected [2]", rep.Collapsed)
	}
}

func TestNoWarBeyondRadius(t *testing.T) {
	s := newState(t, 20)
	s.Civilizations = []world.Civilization{
		{ID: 1, Pos: grid.C(0, 0, 0), Population: 1000, Tech: 1, Aggression: 1},
		{ID: 2, Pos: grid.C(15, 15, 0), Population: 1000, Tech: 1, Aggression: 1},
	}
	e := NewEvolver()
	e.WarChance = 1

	var rep rules.Report
	e.Apply(ctxFor(s, &rep), s)

	if len(rep.Wars) != 0 {
		t.Errorf("wars = %d, expected 0", len(rep.Wars))
	}
}
