// Package rules defines the contract shared by every tick update rule and the
// per-tick Report they fill in.
//
// Rules are total: they never fail. Anything a rule cannot handle is clamped
// or ignored so the tick always completes.
package rules

import (
	"fmt"
	"math/rand/v2"

	"github.com/vovakirdan/worldsim/internal/grid"
	"github.com/vovakirdan/worldsim/internal/world"
)

// Context is what a rule receives besides the state it mutates.
type Context struct {
	Tick   uint64     // index of the tick being produced
	Rand   *rand.Rand // advances the state's own RNG; the only randomness allowed
	Report *Report
}

// Rule mutates the fields of a state it owns.
type Rule interface {
	Apply(ctx *Context, s *world.State)
}

// RuleFunc adapts a plain function to Rule.
type RuleFunc func(ctx *Context, s *world.State)

// Apply calls f.
func (f RuleFunc) Apply(ctx *Context, s *world.State) { f(ctx, s) }

// ActionKind enumerates the agent's interventions.
type ActionKind uint8

const (
	ActionNone ActionKind = iota
	ActionChangePhysics
	ActionCatastrophe
	ActionBless
)

func (k ActionKind) String() string {
	switch k {
	case ActionNone:
		return "none"
	case ActionChangePhysics:
		return "change_physics"
	case ActionCatastrophe:
		return "catastrophe"
	case ActionBless:
		return "bless"
	default:
		return fmt.Sprintf("action(%d)", uint8(k))
	}
}

// Action is one agent intervention. Fields unused by a kind are zero.
type Action struct {
	Kind ActionKind

	// ChangePhysics
	DiffusionDelta float64
	CoolingDelta   float64

	// Catastrophe
	Target    grid.Coord
	Intensity float64

	// Bless
	Civ   world.CivID
	Boost float64
}

func (a Action) String() string {
	switch a.Kind {
	case ActionChangePhysics:
		return fmt.Sprintf("change_physics(diffusion%+.3f, cooling%+.3f)", a.DiffusionDelta, a.CoolingDelta)
	case ActionCatastrophe:
		return fmt.Sprintf("catastrophe at %v intensity %.1f", a.Target, a.Intensity)
	case ActionBless:
		return fmt.Sprintf("bless civ #%d boost %.2f", a.Civ, a.Boost)
	default:
		return a.Kind.String()
	}
}

// War records one conflict resolved during a tick.
type War struct {
	Winner world.CivID
	Loser  world.CivID
	Spoils uint32
}

// Report describes what happened during one tick. It is not part of the
// state and is discarded after logging or streaming.
type Report struct {
	Tick      uint64
	Emerged   int // populations that appeared
	Extinct   int // populations that died out
	Founded   []world.CivID
	Collapsed []world.CivID
	Wars      []War
	Action    Action
	Phase     int // cells that changed material through phase transitions
	Fell      int // cells moved by gravity
}

// Eventful reports whether anything beyond routine growth happened.
func (r Report) Eventful() bool {
	return len(r.Founded) > 0 || len(r.Collapsed) > 0 || len(r.Wars) > 0 || r.Action.Kind != ActionNone
}
