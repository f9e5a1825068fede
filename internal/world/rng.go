package world

import "math/rand/v2"

// RNG is the random stream carried inside a State. Copying the value copies
// the stream position, so cloned states replay identical sequences.
type RNG struct {
	pcg rand.PCG
}

// NewRNG creates a stream from a seed.
func NewRNG(seed uint64) RNG {
	var r RNG
	r.pcg.Seed(seed, seed^0x9e3779b97f4a7c15)
	return r
}

// Rand returns a generator that advances this stream in place.
func (r *RNG) Rand() *rand.Rand {
	return rand.New(&r.pcg)
}

// MarshalBinary encodes the stream position.
func (r RNG) MarshalBinary() ([]byte, error) {
	return r.pcg.MarshalBinary()
}

// UnmarshalBinary restores a stream position written by MarshalBinary.
func (r *RNG) UnmarshalBinary(data []byte) error {
	return r.pcg.UnmarshalBinary(data)
}
