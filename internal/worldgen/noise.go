package worldgen

// hash32 mixes a 32-bit input into a well-distributed 32-bit output
// (Murmur finalizer-style avalanching).
func hash32(x uint32) uint32 {
	x ^= x >> 16
	x *= 0x7feb352d
	x ^= x >> 15
	x *= 0x846ca68b
	x ^= x >> 16
	return x
}

// hash2 returns a stable hash for 2D integer coordinates and a seed.
func hash2(seed uint32, x, y int32) uint32 {
	h := seed
	h ^= uint32(x) * 0x9e3779b1
	h ^= uint32(y) * 0x85ebca6b
	return hash32(h)
}

// hash3 returns a stable hash for 3D integer coordinates and a seed.
func hash3(seed uint32, x, y, z int32) uint32 {
	h := seed
	h ^= uint32(x) * 0x9e3779b1
	h ^= uint32(y) * 0x85ebca6b
	h ^= uint32(z) * 0xc2b2ae35
	return hash32(h)
}

// unit maps a hash to [0,1).
func unit(h uint32) float64 {
	return float64(h) / (1 << 32)
}

// valueNoise2 samples smooth 2D value noise in [0,1) with lattice spacing
// cell, interpolating hashed lattice values with a smoothstep.
func valueNoise2(seed uint32, x, y, cell int) float64 {
	x0, y0 := floorDiv(x, cell), floorDiv(y, cell)
	fx := smooth(float64(x-x0*cell) / float64(cell))
	fy := smooth(float64(y-y0*cell) / float64(cell))

	v00 := unit(hash2(seed, int32(x0), int32(y0)))
	v10 := unit(hash2(seed, int32(x0+1), int32(y0)))
	v01 := unit(hash2(seed, int32(x0), int32(y0+1)))
	v11 := unit(hash2(seed, int32(x0+1), int32(y0+1)))

	top := v00 + (v10-v00)*fx
	bottom := v01 + (v11-v01)*fx
	return top + (bottom-top)*fy
}

func smooth(t float64) float64 {
	return t * t * (3 - 2*t)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
