// Package grid implements the dense 3D voxel grid that every world state owns.
//
// Cells are addressed by the fixed bijection index = x + y*W + z*W*H. Storage
// is split into fixed-size chunks that clones share until one side writes, so
// taking a snapshot costs one pointer slice rather than a full copy while each
// clone still behaves as a fully independent grid.
package grid

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfBounds is returned for any coordinate or index outside the grid.
	ErrOutOfBounds = errors.New("grid: coordinate out of bounds")
	// ErrInvalidDimensions is returned by New for non-positive dimensions.
	ErrInvalidDimensions = errors.New("grid: dimensions must be positive")
	// ErrFrozen is returned when writing to a frozen grid.
	ErrFrozen = errors.New("grid: grid is frozen")
)

// chunkSize is the number of cells per storage chunk.
const chunkSize = 1024

// owner is a write token. A chunk may be written in place only by the grid
// whose token matches; it must not be zero-sized so every token is distinct.
type owner struct{ _ byte }

type chunk struct {
	cells []Cell
	owner *owner
}

// Grid is a fixed-size 3D array of cells.
// The zero value is not usable; create grids with New or FromCells.
type Grid struct {
	w, h, d int
	n       int
	chunks  []*chunk
	self    *owner // nil once frozen
}

// New creates a w×h×d grid with every cell set to fill.
func New(w, h, d int, fill Cell) (*Grid, error) {
	g, err := alloc(w, h, d)
	if err != nil {
		return nil, err
	}
	for _, c := range g.chunks {
		for i := range c.cells {
			c.cells[i] = fill
		}
	}
	return g, nil
}

// FromCells builds a grid from cells given in linear index order.
func FromCells(w, h, d int, cells []Cell) (*Grid, error) {
	g, err := alloc(w, h, d)
	if err != nil {
		return nil, err
	}
	if len(cells) != g.n {
		return nil, fmt.Errorf("grid: got %d cells for %dx%dx%d", len(cells), w, h, d)
	}
	for ci, c := range g.chunks {
		copy(c.cells, cells[ci*chunkSize:])
	}
	return g, nil
}

func alloc(w, h, d int) (*Grid, error) {
	if w <= 0 || h <= 0 || d <= 0 {
		return nil, fmt.Errorf("%w: %dx%dx%d", ErrInvalidDimensions, w, h, d)
	}
	n := w * h * d
	g := &Grid{w: w, h: h, d: d, n: n, self: &owner{}}
	nchunks := (n + chunkSize - 1) / chunkSize
	g.chunks = make([]*chunk, nchunks)
	for i := range g.chunks {
		size := chunkSize
		if rest := n - i*chunkSize; rest < size {
			size = rest
		}
		g.chunks[i] = &chunk{cells: make([]Cell, size), owner: g.self}
	}
	return g, nil
}

// Dims returns width, height and depth.
func (g *Grid) Dims() (w, h, d int) {
	return g.w, g.h, g.d
}

// Width returns the x extent.
func (g *Grid) Width() int { return g.w }

// Height returns the y extent.
func (g *Grid) Height() int { return g.h }

// Depth returns the z extent.
func (g *Grid) Depth() int { return g.d }

// Len returns the number of cells.
func (g *Grid) Len() int { return g.n }

// InBounds reports whether (x, y, z) addresses a cell.
func (g *Grid) InBounds(x, y, z int) bool {
	return x >= 0 && x < g.w && y >= 0 && y < g.h && z >= 0 && z < g.d
}

// Index maps a coordinate to its linear index.
func (g *Grid) Index(x, y, z int) (int, error) {
	if !g.InBounds(x, y, z) {
		return 0, g.outOfBounds(x, y, z)
	}
	return x + y*g.w + z*g.w*g.h, nil
}

// Coord maps a linear index back to its coordinate.
// The index must be in [0, Len()).
func (g *Grid) Coord(i int) (x, y, z int) {
	plane := g.w * g.h
	z = i / plane
	rem := i % plane
	return rem % g.w, rem / g.w, z
}

// CoordOf is Coord returning a Coord value.
func (g *Grid) CoordOf(i int) Coord {
	x, y, z := g.Coord(i)
	return Coord{X: x, Y: y, Z: z}
}

// At returns a copy of the cell at (x, y, z).
func (g *Grid) At(x, y, z int) (Cell, error) {
	i, err := g.Index(x, y, z)
	if err != nil {
		return Cell{}, err
	}
	return g.CellAt(i), nil
}

// Mut returns a mutable handle to the cell at (x, y, z). A shared chunk is
// copied first. The handle is invalidated by the next Clone or Freeze.
func (g *Grid) Mut(x, y, z int) (*Cell, error) {
	i, err := g.Index(x, y, z)
	if err != nil {
		return nil, err
	}
	if g.self == nil {
		return nil, ErrFrozen
	}
	return g.MutAt(i), nil
}

// Set overwrites the cell at (x, y, z).
func (g *Grid) Set(x, y, z int, c Cell) error {
	p, err := g.Mut(x, y, z)
	if err != nil {
		return err
	}
	*p = c
	return nil
}

// CellAt returns the cell at linear index i. It panics if i is out of range.
func (g *Grid) CellAt(i int) Cell {
	return g.chunks[i/chunkSize].cells[i%chunkSize]
}

// MutAt returns a mutable handle to the cell at linear index i.
// It panics on a frozen grid or an out-of-range index.
func (g *Grid) MutAt(i int) *Cell {
	c := g.writable(i / chunkSize)
	return &c.cells[i%chunkSize]
}

// SetAt overwrites the cell at linear index i.
func (g *Grid) SetAt(i int, c Cell) {
	*g.MutAt(i) = c
}

// Swap exchanges the cells at linear indices i and j.
func (g *Grid) Swap(i, j int) {
	a, b := g.MutAt(i), g.MutAt(j)
	*a, *b = *b, *a
}

func (g *Grid) writable(ci int) *chunk {
	if g.self == nil {
		panic(ErrFrozen)
	}
	c := g.chunks[ci]
	if c.owner == g.self {
		return c
	}
	cp := &chunk{cells: make([]Cell, len(c.cells)), owner: g.self}
	copy(cp.cells, c.cells)
	g.chunks[ci] = cp
	return cp
}

// Neighbors6 returns the in-bounds axis-aligned neighbours of (x, y, z) in
// the order -x, +x, -y, +y, -z, +z. There is no wraparound.
func (g *Grid) Neighbors6(x, y, z int) ([]Coord, error) {
	if !g.InBounds(x, y, z) {
		return nil, g.outOfBounds(x, y, z)
	}
	out := make([]Coord, 0, 6)
	p := Coord{X: x, Y: y, Z: z}
	for _, off := range axisOffsets {
		q := p.Add(off)
		if g.InBounds(q.X, q.Y, q.Z) {
			out = append(out, q)
		}
	}
	return out, nil
}

// AppendNeighborIndices appends the linear indices of the in-bounds
// neighbours of index i to dst, in the same order as Neighbors6.
func (g *Grid) AppendNeighborIndices(dst []int, i int) []int {
	x, y, z := g.Coord(i)
	plane := g.w * g.h
	if x > 0 {
		dst = append(dst, i-1)
	}
	if x < g.w-1 {
		dst = append(dst, i+1)
	}
	if y > 0 {
		dst = append(dst, i-g.w)
	}
	if y < g.h-1 {
		dst = append(dst, i+g.w)
	}
	if z > 0 {
		dst = append(dst, i-plane)
	}
	if z < g.d-1 {
		dst = append(dst, i+plane)
	}
	return dst
}

// Clone returns an independent grid that shares storage with g until either
// side writes. A clone of a frozen grid is writable.
func (g *Grid) Clone() *Grid {
	cp := &Grid{w: g.w, h: g.h, d: g.d, n: g.n, self: &owner{}}
	cp.chunks = make([]*chunk, len(g.chunks))
	copy(cp.chunks, g.chunks)
	if g.self != nil {
		// g's own chunks are now shared; its next write must copy too.
		g.self = &owner{}
	}
	return cp
}

// Freeze makes the grid read-only. Frozen grids may be read concurrently.
func (g *Grid) Freeze() {
	g.self = nil
}

// Frozen reports whether Freeze has been called.
func (g *Grid) Frozen() bool {
	return g.self == nil
}

// Equal reports whether both grids have the same dimensions and cells.
func (g *Grid) Equal(o *Grid) bool {
	if g == o {
		return true
	}
	if g == nil || o == nil || g.w != o.w || g.h != o.h || g.d != o.d {
		return false
	}
	for ci, c := range g.chunks {
		oc := o.chunks[ci]
		if c == oc {
			continue
		}
		for i := range c.cells {
			if c.cells[i] != oc.cells[i] {
				return false
			}
		}
	}
	return true
}

// Cells returns a copy of every cell in linear index order.
func (g *Grid) Cells() []Cell {
	out := make([]Cell, 0, g.n)
	for _, c := range g.chunks {
		out = append(out, c.cells...)
	}
	return out
}

// Each calls fn for every cell in linear index order.
func (g *Grid) Each(fn func(i int, c Cell)) {
	for ci, c := range g.chunks {
		base := ci * chunkSize
		for i, cell := range c.cells {
			fn(base+i, cell)
		}
	}
}

// SharedChunks returns how many storage chunks g shares with o.
func (g *Grid) SharedChunks(o *Grid) int {
	if len(g.chunks) != len(o.chunks) {
		return 0
	}
	n := 0
	for i := range g.chunks {
		if g.chunks[i] == o.chunks[i] {
			n++
		}
	}
	return n
}

// Chunks returns the number of storage chunks.
func (g *Grid) Chunks() int {
	return len(g.chunks)
}

func (g *Grid) outOfBounds(x, y, z int) error {
	return fmt.Errorf("%w: (%d,%d,%d) outside %dx%dx%d", ErrOutOfBounds, x, y, z, g.w, g.h, g.d)
}
