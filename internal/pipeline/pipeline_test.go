package pipeline

import (
	"slices"
	"testing"

	"github.com/vovakirdan/worldsim/internal/config"
	"github.com/vovakirdan/worldsim/internal/grid"
	"github.com/vovakirdan/worldsim/internal/rules"
	"github.com/vovakirdan/worldsim/internal/world"
)

// lively builds a small world with enough life to exercise every stage.
func lively(t *testing.T) *world.State {
	t.Helper()
	g, err := grid.New(12, 12, 6, grid.AirCell())
	if err != nil {
		t.Fatalf("grid.New() error = %v", err)
	}
	for i := 0; i < g.Len(); i++ {
		_, _, z := g.Coord(i)
		switch {
		case z == 0:
			g.SetAt(i, grid.RockCell())
		case z < 3:
			g.SetAt(i, grid.SoilCell())
		}
	}
	lava := grid.LavaCell()
	_ = g.Set(6, 6, 0, lava)

	s := world.New(g, 2024)
	s.Species = []world.Species{
		{ID: 0, Metabolism: 0.8, Reproduction: 0.09, Mobility: 0.9, PreferredTemp: 18},
		{ID: 1, Metabolism: 1.5, Reproduction: 0.05, Mobility: 0.3, PreferredTemp: 22},
	}
	s.Populations = []world.Population{
		{Species: 0, Pos: grid.C(2, 2, 2), Size: 480},
		{Species: 1, Pos: grid.C(5, 5, 2), Size: 700},
		{Species: 0, Pos: grid.C(7, 5, 2), Size: 650},
	}
	s.Agent = world.AgentState{Curiosity: 0.9, Benevolence: 0.8, Cruelty: 0.7, Boredom: 0.6}
	return s
}

func TestAdvanceDeterministic(t *testing.T) {
	base := lively(t)
	a, b := base.Clone(), base.Clone()
	p := Default()

	for tick := 0; tick < 40; tick++ {
		var ra, rb rules.Report
		a, ra = p.Advance(a)
		b, rb = p.Advance(b)
		if a.Digest() != b.Digest() {
			t.Fatalf("tick %d: digests differ", tick+1)
		}
		if ra.Action != rb.Action || len(ra.Founded) != len(rb.Founded) {
			t.Fatalf("tick %d: reports differ: %+v vs %+v", tick+1, ra, rb)
		}
	}
	if a.Tick != 40 {
		t.Errorf("Tick = %d, expected 40", a.Tick)
	}
}

func TestAdvanceLeavesPreviousUntouched(t *testing.T) {
	prev := lively(t)
	prev.Freeze()
	before := prev.Digest()

	next, rep := Default().Advance(prev)

	if prev.Digest() != before {
		t.Error("Advance() mutated the previous state")
	}
	if next.Tick != prev.Tick+1 || rep.Tick != next.Tick {
		t.Errorf("next.Tick = %d, report tick = %d, expected %d", next.Tick, rep.Tick, prev.Tick+1)
	}
	if next.Digest() == before {
		t.Error("next state equals previous state")
	}
}

func TestStageOrder(t *testing.T) {
	var order []string
	stage := func(name string) rules.Rule {
		return rules.RuleFunc(func(ctx *rules.Context, s *world.State) {
			if ctx.Tick != s.Tick {
				t.Errorf("%s: ctx.Tick = %d, state tick %d", name, ctx.Tick, s.Tick)
			}
			order = append(order, name)
		})
	}
	p := &Pipeline{
		Agent:      stage("agent"),
		Evolve:     stage("evolve"),
		Spawn:      stage("spawn"),
		Population: stage("population"),
		Thermal:    stage("thermal"),
	}

	p.Advance(lively(t))

	expected := []string{"thermal", "population", "spawn", "evolve", "agent"}
	if !slices.Equal(order, expected) {
		t.Errorf("stage order = %v, expected %v", order, expected)
	}
}

func TestNilStagesSkipped(t *testing.T) {
	prev := lively(t)
	next, _ := (&Pipeline{}).Advance(prev)

	if !next.Grid.Equal(prev.Grid) {
		t.Error("empty pipeline changed the grid")
	}
	if next.Tick != 1 {
		t.Errorf("Tick = %d, expected 1", next.Tick)
	}
}

func TestLaterStagesSeeEarlierEffects(t *testing.T) {
	var seen int
	p := &Pipeline{
		Spawn: rules.RuleFunc(func(_ *rules.Context, s *world.State) {
			s.Civilizations = append(s.Civilizations, world.Civilization{ID: 99, Population: 1000})
		}),
		Agent: rules.RuleFunc(func(_ *rules.Context, s *world.State) {
			seen = len(s.Civilizations)
		}),
	}
	p.Advance(lively(t))
	if seen != 1 {
		t.Errorf("agent saw %d civilizations, expected 1", seen)
	}
}

func TestFromConfigMatchesDefault(t *testing.T) {
	base := lively(t)
	a, _ := Default().Advance(base)
	b, _ := FromConfig(config.DefaultConfig()).Advance(base)
	if a.Digest() != b.Digest() {
		t.Error("FromConfig(DefaultConfig()) diverges from Default()")
	}
}
