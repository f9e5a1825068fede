// Package world defines the simulation state: the voxel grid plus every
// entity collection and parameter needed to compute the next tick.
//
// A State is self-contained. Reproducing a tick from it needs nothing outside
// the value, including randomness, which is drawn from the state's own RNG.
package world

import (
	"slices"

	"github.com/vovakirdan/worldsim/internal/grid"
)

// SpeciesID identifies a catalog entry.
type SpeciesID uint32

// CivID identifies a civilization. IDs are never reused within a history.
type CivID uint32

// Species is an immutable catalog entry.
type Species struct {
	ID            SpeciesID
	Metabolism    float64
	Reproduction  float64
	Mobility      float64
	PreferredTemp float64
}

// Population is a group of one species living in one cell.
type Population struct {
	Species SpeciesID
	Pos     grid.Coord
	Size    uint32
}

// Civilization is a settled society spawned from a large population.
type Civilization struct {
	ID           CivID
	Name         string
	Pos          grid.Coord
	Population   uint32
	Tech         float64
	Aggression   float64 // [0,1]
	Spirituality float64 // [0,1]
	Founded      uint64  // tick of founding
}

// AgentState is the temperament of the autonomous agent overseeing the world.
// Every scalar stays within [0,1].
type AgentState struct {
	Curiosity   float64
	Benevolence float64
	Cruelty     float64
	Boredom     float64
}

// Clamp forces every scalar into [0,1].
func (a *AgentState) Clamp() {
	a.Curiosity = clamp01(a.Curiosity)
	a.Benevolence = clamp01(a.Benevolence)
	a.Cruelty = clamp01(a.Cruelty)
	a.Boredom = clamp01(a.Boredom)
}

func clamp01(v float64) float64 {
	if !(v > 0) { // also catches NaN
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Physics holds the global thermal parameters. The agent may change them.
type Physics struct {
	Gravity       bool
	HeatDiffusion float64 // fraction of the neighbour gradient applied per tick
	Cooling       float64 // fraction of the ambient gradient applied per tick
	Ambient       float64 // degrees Celsius
}

// DefaultPhysics returns the stock thermal parameters.
func DefaultPhysics() Physics {
	return Physics{
		Gravity:       true,
		HeatDiffusion: 0.1,
		Cooling:       0.02,
		Ambient:       20,
	}
}

// State is the complete world at one tick.
type State struct {
	Tick          uint64
	Grid          *grid.Grid
	Physics       Physics
	Species       []Species
	Populations   []Population
	Civilizations []Civilization
	Agent         AgentState
	RNG           RNG
	NextCivID     CivID
}

// New returns a tick-0 state over g with default physics.
func New(g *grid.Grid, seed uint64) *State {
	return &State{
		Grid:      g,
		Physics:   DefaultPhysics(),
		RNG:       NewRNG(seed),
		NextCivID: 1,
	}
}

// Clone returns a fully independent copy. The grid shares storage with s
// until either side writes.
func (s *State) Clone() *State {
	cp := *s
	cp.Grid = s.Grid.Clone()
	cp.Species = slices.Clone(s.Species)
	cp.Populations = slices.Clone(s.Populations)
	cp.Civilizations = slices.Clone(s.Civilizations)
	return &cp
}

// Freeze marks the state as a stored snapshot. Only the grid rejects writes
// from then on. The slices and scalar fields stay writable and are shared
// with every reader of the snapshot, so callers must Clone before changing
// anything.
func (s *State) Freeze() {
	s.Grid.Freeze()
}

// Frozen reports whether the state has been frozen.
func (s *State) Frozen() bool {
	return s.Grid.Frozen()
}

// SpeciesByID looks up a catalog entry.
func (s *State) SpeciesByID(id SpeciesID) (Species, bool) {
	for _, sp := range s.Species {
		if sp.ID == id {
			return sp, true
		}
	}
	return Species{}, false
}

// CivAt returns the index of the civilization at p, or -1.
func (s *State) CivAt(p grid.Coord) int {
	for i, c := range s.Civilizations {
		if c.Pos == p {
			return i
		}
	}
	return -1
}

// Biomass returns the sum of every population size.
func (s *State) Biomass() uint64 {
	var total uint64
	for _, p := range s.Populations {
		total += uint64(p.Size)
	}
	return total
}

// CivPopulation returns the sum of every civilization's population.
func (s *State) CivPopulation() uint64 {
	var total uint64
	for _, c := range s.Civilizations {
		total += uint64(c.Population)
	}
	return total
}
