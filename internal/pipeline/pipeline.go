// Package pipeline composes the update rules into one tick transition.
//
// The stage order is fixed: Thermal, Population, Spawn, Evolve, Agent. Later
// stages observe what earlier stages did in the same tick, so the agent sees
// the civilization list after wars were fought.
package pipeline

import (
	"github.com/vovakirdan/worldsim/internal/rules"
	"github.com/vovakirdan/worldsim/internal/rules/agent"
	"github.com/vovakirdan/worldsim/internal/rules/biology"
	"github.com/vovakirdan/worldsim/internal/rules/society"
	"github.com/vovakirdan/worldsim/internal/rules/thermal"
	"github.com/vovakirdan/worldsim/internal/world"
)

// Pipeline holds one rule per stage. A nil stage is skipped.
type Pipeline struct {
	Thermal    rules.Rule // grid cells
	Population rules.Rule // grid and populations
	Spawn      rules.Rule // populations and civilizations
	Evolve     rules.Rule // civilizations
	Agent      rules.Rule // civilizations, grid, physics and agent state
}

// Default returns a pipeline with every stage at stock parameters.
func Default() *Pipeline {
	return &Pipeline{
		Thermal:    thermal.New(),
		Population: biology.New(),
		Spawn:      society.NewSpawner(),
		Evolve:     society.NewEvolver(),
		Agent:      agent.New(),
	}
}

// Advance derives the next state from prev. prev is never modified; the
// returned state has Tick = prev.Tick+1.
func (p *Pipeline) Advance(prev *world.State) (*world.State, rules.Report) {
	next := prev.Clone()
	next.Tick = prev.Tick + 1

	rep := rules.Report{Tick: next.Tick}
	ctx := &rules.Context{
		Tick:   next.Tick,
		Rand:   next.RNG.Rand(),
		Report: &rep,
	}
	for _, r := range p.stages() {
		if r != nil {
			r.Apply(ctx, next)
		}
	}
	return next, rep
}

func (p *Pipeline) stages() [5]rules.Rule {
	return [5]rules.Rule{p.Thermal, p.Population, p.Spawn, p.Evolve, p.Agent}
}
