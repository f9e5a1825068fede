package world

import (
	"encoding/binary"
	"hash"
	"hash/fnv"
	"math"

	"github.com/vovakirdan/worldsim/internal/grid"
)

// Digest returns an FNV-64a hash over every field of the state. Two states
// with equal digests are, for determinism checks, the same state.
func (s *State) Digest() uint64 {
	d := digester{h: fnv.New64a()}
	d.u64(s.Tick)

	w, h, dep := s.Grid.Dims()
	d.u64(uint64(w))
	d.u64(uint64(h))
	d.u64(uint64(dep))
	s.Grid.Each(func(_ int, c grid.Cell) {
		d.u64(uint64(c.Material.Kind)<<8 | uint64(c.Material.Level))
		d.f64(c.Temperature)
		d.f64(c.Density)
		d.f64(c.Nutrients)
	})

	if s.Physics.Gravity {
		d.u64(1)
	} else {
		d.u64(0)
	}
	d.f64(s.Physics.HeatDiffusion)
	d.f64(s.Physics.Cooling)
	d.f64(s.Physics.Ambient)

	d.u64(uint64(len(s.Species)))
	for _, sp := range s.Species {
		d.u64(uint64(sp.ID))
		d.f64(sp.Metabolism)
		d.f64(sp.Reproduction)
		d.f64(sp.Mobility)
		d.f64(sp.PreferredTemp)
	}

	d.u64(uint64(len(s.Populations)))
	for _, p := range s.Populations {
		d.u64(uint64(p.Species))
		d.coord(p.Pos)
		d.u64(uint64(p.Size))
	}

	d.u64(uint64(len(s.Civilizations)))
	for _, c := range s.Civilizations {
		d.u64(uint64(c.ID))
		d.h.Write([]byte(c.Name))
		d.coord(c.Pos)
		d.u64(uint64(c.Population))
		d.f64(c.Tech)
		d.f64(c.Aggression)
		d.f64(c.Spirituality)
		d.u64(c.Founded)
	}

	d.f64(s.Agent.Curiosity)
	d.f64(s.Agent.Benevolence)
	d.f64(s.Agent.Cruelty)
	d.f64(s.Agent.Boredom)

	if rng, err := s.RNG.MarshalBinary(); err == nil {
		d.h.Write(rng)
	}
	d.u64(uint64(s.NextCivID))
	return d.h.Sum64()
}

type digester struct {
	h   hash.Hash64
	buf [8]byte
}

func (d *digester) u64(v uint64) {
	binary.LittleEndian.PutUint64(d.buf[:], v)
	d.h.Write(d.buf[:])
}

func (d *digester) f64(v float64) {
	d.u64(math.Float64bits(v))
}

func (d *digester) coord(c grid.Coord) {
	d.u64(uint64(int64(c.X)))
	d.u64(uint64(int64(c.Y)))
	d.u64(uint64(int64(c.Z)))
}
