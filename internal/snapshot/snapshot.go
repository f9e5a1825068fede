// Package snapshot encodes world states into compact byte blobs: a JSON
// header line followed by a gob body, the whole compressed with zstd.
//
// Blobs live in memory only; the timeline uses them for cold history.
package snapshot

import (
	"bufio"
	"bytes"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/vovakirdan/worldsim/internal/grid"
	"github.com/vovakirdan/worldsim/internal/world"
)

// Version is the current body layout.
const Version = 1

// ErrVersion is returned when decoding a blob with an unknown layout.
var ErrVersion = errors.New("snapshot: unsupported version")

// Header is readable without decoding the body.
type Header struct {
	Version int    `json:"version"`
	Tick    uint64 `json:"tick"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Depth   int    `json:"depth"`
}

// SnapshotV1 is the gob body. Cell fields are stored as parallel arrays so
// runs of equal values compress well.
type SnapshotV1 struct {
	Header Header

	Kinds     []uint8
	Levels    []uint8
	Temps     []float64
	Densities []float64
	Nutrients []float64

	Physics       world.Physics
	Species       []world.Species
	Populations   []world.Population
	Civilizations []world.Civilization
	Agent         world.AgentState
	RNG           []byte
	NextCivID     world.CivID
}

// Export copies s into a body value.
func Export(s *world.State) (SnapshotV1, error) {
	w, h, d := s.Grid.Dims()
	n := s.Grid.Len()
	snap := SnapshotV1{
		Header:        Header{Version: Version, Tick: s.Tick, Width: w, Height: h, Depth: d},
		Kinds:         make([]uint8, n),
		Levels:        make([]uint8, n),
		Temps:         make([]float64, n),
		Densities:     make([]float64, n),
		Nutrients:     make([]float64, n),
		Physics:       s.Physics,
		Species:       s.Species,
		Populations:   s.Populations,
		Civilizations: s.Civilizations,
		Agent:         s.Agent,
		NextCivID:     s.NextCivID,
	}
	s.Grid.Each(func(i int, c grid.Cell) {
		snap.Kinds[i] = uint8(c.Material.Kind)
		snap.Levels[i] = c.Material.Level
		snap.Temps[i] = c.Temperature
		snap.Densities[i] = c.Density
		snap.Nutrients[i] = c.Nutrients
	})
	rng, err := s.RNG.MarshalBinary()
	if err != nil {
		return snap, fmt.Errorf("snapshot: rng: %w", err)
	}
	snap.RNG = rng
	return snap, nil
}

// Import rebuilds a state from a body value.
func Import(snap SnapshotV1) (*world.State, error) {
	hd := snap.Header
	if hd.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrVersion, hd.Version)
	}
	n := hd.Width * hd.Height * hd.Depth
	if len(snap.Kinds) != n || len(snap.Levels) != n || len(snap.Temps) != n ||
		len(snap.Densities) != n || len(snap.Nutrients) != n {
		return nil, fmt.Errorf("snapshot: cell arrays do not match %dx%dx%d", hd.Width, hd.Height, hd.Depth)
	}
	cells := make([]grid.Cell, n)
	for i := range cells {
		cells[i] = grid.Cell{
			Material:    grid.Material{Kind: grid.Kind(snap.Kinds[i]), Level: snap.Levels[i]},
			Temperature: snap.Temps[i],
			Density:     snap.Densities[i],
			Nutrients:   snap.Nutrients[i],
		}
	}
	g, err := grid.FromCells(hd.Width, hd.Height, hd.Depth, cells)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}

	s := &world.State{
		Tick:          hd.Tick,
		Grid:          g,
		Physics:       snap.Physics,
		Species:       snap.Species,
		Populations:   snap.Populations,
		Civilizations: snap.Civilizations,
		Agent:         snap.Agent,
		NextCivID:     snap.NextCivID,
	}
	if err := s.RNG.UnmarshalBinary(snap.RNG); err != nil {
		return nil, fmt.Errorf("snapshot: rng: %w", err)
	}
	return s, nil
}

// Codec compresses and decompresses blobs. It is safe for concurrent use.
type Codec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewCodec creates a codec at the default compression level.
func NewCodec() (*Codec, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("snapshot: zstd writer: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("snapshot: zstd reader: %w", err)
	}
	return &Codec{enc: enc, dec: dec}, nil
}

// Close releases the compressor resources.
func (c *Codec) Close() {
	c.enc.Close()
	c.dec.Close()
}

// Encode turns s into a compressed blob.
func (c *Codec) Encode(s *world.State) ([]byte, error) {
	snap, err := Export(s)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	hb, _ := json.Marshal(snap.Header)
	buf.Write(hb)
	buf.WriteByte('\n')
	if err := gob.NewEncoder(&buf).Encode(&snap); err != nil {
		return nil, fmt.Errorf("snapshot: gob encode: %w", err)
	}
	return c.enc.EncodeAll(buf.Bytes(), nil), nil
}

// Decode rebuilds a fresh, writable state from a blob.
func (c *Codec) Decode(blob []byte) (*world.State, error) {
	raw, err := c.dec.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("snapshot: zstd decode: %w", err)
	}
	br := bufio.NewReader(bytes.NewReader(raw))
	// The header is repeated inside the body.
	if _, err := br.ReadBytes('\n'); err != nil {
		return nil, fmt.Errorf("snapshot: header: %w", err)
	}
	var snap SnapshotV1
	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return nil, fmt.Errorf("snapshot: gob decode: %w", err)
	}
	return Import(snap)
}

// ReadHeader decodes only the header line of a blob.
func (c *Codec) ReadHeader(blob []byte) (Header, error) {
	var hd Header
	raw, err := c.dec.DecodeAll(blob, nil)
	if err != nil {
		return hd, fmt.Errorf("snapshot: zstd decode: %w", err)
	}
	line, _, _ := bytes.Cut(raw, []byte{'\n'})
	if err := json.Unmarshal(line, &hd); err != nil {
		return hd, fmt.Errorf("snapshot: header: %w", err)
	}
	return hd, nil
}
