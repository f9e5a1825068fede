package timeline

import (
	"errors"
	"testing"

	"github.com/vovakirdan/worldsim/internal/grid"
	"github.com/vovakirdan/worldsim/internal/pipeline"
	"github.com/vovakirdan/worldsim/internal/rules"
	"github.com/vovakirdan/worldsim/internal/snapshot"
	"github.com/vovakirdan/worldsim/internal/world"
)

// crucible is a 4x4x4 block of soil at 20 degrees with lava in one corner.
func crucible(t *testing.T) *world.State {
	t.Helper()
	soil := grid.SoilCell()
	soil.Temperature = 20
	g, err := grid.New(4, 4, 4, soil)
	if err != nil {
		t.Fatalf("grid.New() error = %v", err)
	}
	lava := grid.LavaCell()
	lava.Temperature = 1000
	if err := g.Set(0, 0, 0, lava); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	return world.New(g, 1)
}

// lively is a small world with life, so every rule stage does work.
func lively(t *testing.T) *world.State {
	t.Helper()
	g, err := grid.New(10, 10, 5, grid.AirCell())
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
	_ = g.Set(5, 5, 0, grid.LavaCell())

	s := world.New(g, 77)
	s.Species = []world.Species{
		{ID: 0, Metabolism: 0.8, Reproduction: 0.09, Mobility: 0.9, PreferredTemp: 18},
		{ID: 1, Metabolism: 1.5, Reproduction: 0.05, Mobility: 0.3, PreferredTemp: 22},
	}
	s.Populations = []world.Population{
		{Species: 0, Pos: grid.C(2, 2, 2), Size: 480},
		{Species: 1, Pos: grid.C(6, 4, 2), Size: 700},
	}
	s.Agent = world.AgentState{Curiosity: 0.9, Benevolence: 0.8, Cruelty: 0.7, Boredom: 0.6}
	return s
}

// countingAdvancer only bumps the tick and heats one cell.
type countingAdvancer struct{ calls int }

func (c *countingAdvancer) Advance(prev *world.State) (*world.State, rules.Report) {
	c.calls++
	next := prev.Clone()
	next.Tick = prev.Tick + 1
	cell, _ := next.Grid.Mut(1, 1, 1)
	cell.Temperature++
	return next, rules.Report{Tick: next.Tick}
}

func stepN(t *testing.T, m *Multiverse, a Advancer, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if _, err := m.Step(a); err != nil {
			t.Fatalf("Step() #%d error = %v", i+1, err)
		}
	}
}

func TestHistoryMonotonicity(t *testing.T) {
	const n = 7
	tl := New(0, crucible(t))
	p := pipeline.Default()

	prev, _ := tl.Get(0)
	for i := 0; i < n; i++ {
		next, _ := p.Advance(prev)
		if err := tl.Append(next); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
		prev = next
	}

	for i := uint64(0); i <= n; i++ {
		s, err := tl.Get(i)
		if err != nil {
			t.Fatalf("Get(%d) error = %v", i, err)
		}
		if s.Tick != i {
			t.Errorf("Get(%d).Tick = %d", i, s.Tick)
		}
	}
	if latest, _ := tl.Get(n); latest != prev {
		t.Error("Get(N) is not the most recent append")
	}
	if _, err := tl.Get(n + 1); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("Get(N+1) error = %v, expected ErrIndexOutOfRange", err)
	}
	if tl.Len() != n+1 || tl.Latest() != n || tl.Oldest() != 0 {
		t.Errorf("Len/Latest/Oldest = %d/%d/%d, expected %d/%d/0", tl.Len(), tl.Latest(), tl.Oldest(), n+1, n)
	}
}

func TestAppendOutOfOrder(t *testing.T) {
	tl := New(0, crucible(t))
	s := crucible(t)
	s.Tick = 5
	if err := tl.Append(s); !errors.Is(err, ErrOutOfOrder) {
		t.Errorf("Append() error = %v, expected ErrOutOfOrder", err)
	}
}

func TestRewindClamp(t *testing.T) {
	m := NewMultiverse(crucible(t))
	stepN(t, m, &countingAdvancer{}, 5)

	if got := m.Rewind(0); got != 5 {
		t.Errorf("Rewind(0) = %d, expected 5", got)
	}
	if got := m.Rewind(100); got != 0 {
		t.Errorf("Rewind(100) = %d, expected 0", got)
	}
	if m.Active().Latest() != 5 {
		t.Errorf("Latest() = %d after rewind, expected 5", m.Active().Latest())
	}
}

func TestRewindNeverRunsPipeline(t *testing.T) {
	a := &countingAdvancer{}
	m := NewMultiverse(crucible(t))
	stepN(t, m, a, 4)

	m.Rewind(2)
	m.FastForward()
	_ = m.Seek(1)
	if a.calls != 4 {
		t.Errorf("advancer calls = %d, expected 4", a.calls)
	}
}

func TestSnapshotIsolation(t *testing.T) {
	m := NewMultiverse(crucible(t))
	stepN(t, m, &countingAdvancer{}, 5)

	tl := m.Active()
	s2, _ := tl.Get(2)
	s4, _ := tl.Get(4)
	d2, d4 := s2.Digest(), s4.Digest()

	s3, _ := tl.Get(3)
	if err := s3.Grid.Set(0, 0, 0, grid.IceCell()); !errors.Is(err, grid.ErrFrozen) {
		t.Errorf("write to stored state error = %v, expected grid.ErrFrozen", err)
	}

	scratch := s3.Clone()
	for i := 0; i < scratch.Grid.Len(); i++ {
		scratch.Grid.SetAt(i, grid.IceCell())
	}

	if s2.Digest() != d2 || s4.Digest() != d4 {
		t.Error("mutating a clone of tick 3 changed tick 2 or 4")
	}
	if again, _ := tl.Get(3); again.Digest() == scratch.Digest() {
		t.Error("stored tick 3 reflects clone mutation")
	}
}

func TestAppendTruncateMode(t *testing.T) {
	m := NewMultiverse(crucible(t))
	a := &countingAdvancer{}
	stepN(t, m, a, 5)

	m.Rewind(3)
	if m.AtLatest() {
		t.Fatal("AtLatest() = true after rewind")
	}
	stepN(t, m, a, 1)

	if got := m.Active().Latest(); got != 3 {
		t.Errorf("Latest() = %d, expected 3 after truncating append", got)
	}
	if c := m.Cursor(); c.Tick != 3 {
		t.Errorf("Cursor().Tick = %d, expected 3", c.Tick)
	}
}

func TestAppendRejectMode(t *testing.T) {
	m := NewMultiverse(crucible(t), WithAppendMode(AppendReject))
	a := &countingAdvancer{}
	stepN(t, m, a, 5)

	m.Rewind(2)
	if _, err := m.Step(a); !errors.Is(err, ErrFutureExists) {
		t.Fatalf("Step() error = %v, expected ErrFutureExists", err)
	}
	if m.Active().Latest() != 5 {
		t.Errorf("Latest() = %d, expected 5 after rejected step", m.Active().Latest())
	}

	// Seeking forward through the recorded future is allowed.
	if err := m.Seek(5); err != nil {
		t.Fatalf("Seek(5) error = %v", err)
	}
	stepN(t, m, a, 1)

	// Explicit truncation also unblocks stepping.
	m.Rewind(1)
	if err := m.Truncate(); err != nil {
		t.Fatalf("Truncate() error = %v", err)
	}
	stepN(t, m, a, 1)
	if m.Active().Latest() != 6 {
		t.Errorf("Latest() = %d, expected 6", m.Active().Latest())
	}
}

func TestSeekBounds(t *testing.T) {
	m := NewMultiverse(crucible(t))
	stepN(t, m, &countingAdvancer{}, 3)

	if err := m.Seek(4); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("Seek(4) error = %v, expected ErrIndexOutOfRange", err)
	}
	if err := m.Seek(1); err != nil {
		t.Fatalf("Seek(1) error = %v", err)
	}
	s, _ := m.Current()
	if s.Tick != 1 {
		t.Errorf("Current().Tick = %d, expected 1", s.Tick)
	}
	if got := m.FastForward(); got != 3 {
		t.Errorf("FastForward() = %d, expected 3", got)
	}
}

func TestMaxHistoryEviction(t *testing.T) {
	m := NewMultiverse(crucible(t), WithMaxHistory(4))
	stepN(t, m, &countingAdvancer{}, 10)

	tl := m.Active()
	if tl.Len() != 4 || tl.Oldest() != 7 || tl.Latest() != 10 {
		t.Fatalf("Len/Oldest/Latest = %d/%d/%d, expected 4/7/10", tl.Len(), tl.Oldest(), tl.Latest())
	}

	_, err := tl.Get(2)
	if !errors.Is(err, ErrEvicted) || !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("Get(2) error = %v, expected ErrEvicted wrapping ErrIndexOutOfRange", err)
	}
	if got := m.Rewind(100); got != 7 {
		t.Errorf("Rewind(100) = %d, expected oldest tick 7", got)
	}
	if err := m.Seek(6); !errors.Is(err, ErrEvicted) {
		t.Errorf("Seek(6) error = %v, expected ErrEvicted", err)
	}
}

func TestCompression(t *testing.T) {
	codec, err := snapshot.NewCodec()
	if err != nil {
		t.Fatalf("NewCodec() error = %v", err)
	}
	defer codec.Close()

	plain := NewMultiverse(crucible(t))
	packed := NewMultiverse(crucible(t), WithCompression(codec, 2))
	p := pipeline.Default()
	stepN(t, plain, p, 8)
	stepN(t, packed, p, 8)

	if n := packed.Active().Packed(); n != 7 {
		t.Errorf("Packed() = %d, expected 7", n)
	}
	for i := uint64(0); i <= 8; i++ {
		a, err := plain.Active().Get(i)
		if err != nil {
			t.Fatalf("plain Get(%d) error = %v", i, err)
		}
		b, err := packed.Active().Get(i)
		if err != nil {
			t.Fatalf("packed Get(%d) error = %v", i, err)
		}
		if a.Digest() != b.Digest() {
			t.Errorf("tick %d: packed state differs", i)
		}
		if !b.Frozen() {
			t.Errorf("tick %d: decoded state not frozen", i)
		}
	}

	// Resuming from a packed tick appends after it.
	packed.Rewind(6)
	stepN(t, packed, p, 1)
	if packed.Active().Latest() != 3 {
		t.Errorf("Latest() = %d, expected 3", packed.Active().Latest())
	}
}

func TestMultipleTimelines(t *testing.T) {
	m := NewMultiverse(crucible(t))
	a := &countingAdvancer{}
	stepN(t, m, a, 3)

	id := m.AddTimeline(crucible(t))
	if m.Cursor().Timeline == id {
		t.Fatal("AddTimeline() activated the new timeline")
	}
	if err := m.Activate(id); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	if c := m.Cursor(); c.Tick != 0 {
		t.Errorf("new timeline cursor = %d, expected 0", c.Tick)
	}
	stepN(t, m, a, 1)

	if err := m.Activate(0); err != nil {
		t.Fatalf("Activate(0) error = %v", err)
	}
	if c := m.Cursor(); c.Tick != 3 {
		t.Errorf("restored cursor = %d, expected 3", c.Tick)
	}
	if err := m.Activate(42); !errors.Is(err, ErrUnknownTimeline) {
		t.Errorf("Activate(42) error = %v, expected ErrUnknownTimeline", err)
	}
	if ids := m.Timelines(); len(ids) != 2 {
		t.Errorf("Timelines() = %v, expected two", ids)
	}
}

func TestCrucibleRewindRestoresExactly(t *testing.T) {
	m := NewMultiverse(crucible(t))
	initial, _ := m.Current()
	before := initial.Grid.Cells()

	if _, err := m.Step(pipeline.Default()); err != nil {
		t.Fatalf("Step() error = %v", err)
	}
	s1, _ := m.Current()
	for _, p := range []grid.Coord{grid.C(1, 0, 0), grid.C(0, 1, 0), grid.C(0, 0, 1)} {
		c, _ := s1.Grid.At(p.X, p.Y, p.Z)
		if c.Temperature <= 20 || c.Temperature >= 1000 {
			t.Errorf("neighbour %v = %.3f, expected within (20, 1000)", p, c.Temperature)
		}
	}

	m.Rewind(1)
	s0, err := m.Current()
	if err != nil {
		t.Fatalf("Current() error = %v", err)
	}
	after := s0.Grid.Cells()
	for i := range before {
		if after[i].Temperature != before[i].Temperature {
			t.Fatalf("cell %d temperature = %v after rewind, expected %v", i, after[i].Temperature, before[i].Temperature)
		}
	}
}

func TestStoredStateSlicesSurviveCloneEdits(t *testing.T) {
	m := NewMultiverse(lively(t))
	stepN(t, m, pipeline.Default(), 3)

	stored, _ := m.Current()
	want := stored.Digest()
	pops := len(stored.Populations)
	if pops == 0 {
		t.Fatal("no populations after 3 ticks")
	}

	scratch := stored.Clone()
	scratch.Populations[0].Size = 1
	scratch.Populations = scratch.Populations[:0]
	scratch.Species[0].Metabolism = 99
	scratch.Civilizations = append(scratch.Civilizations, world.Civilization{ID: 500})
	scratch.Agent.Boredom = 0

	again, _ := m.Current()
	if again.Digest() != want {
		t.Error("editing a clone changed the stored state")
	}
	if len(again.Populations) != pops || again.Species[0].Metabolism == 99 {
		t.Errorf("stored slices = %d populations, metabolism %v, expected %d and unchanged",
			len(again.Populations), again.Species[0].Metabolism, pops)
	}
}

func TestRewindThenResimulateReproduces(t *testing.T) {
	const n, k = 20, 8
	m := NewMultiverse(lively(t), WithAppendMode(AppendTruncate))
	p := pipeline.Default()

	digests := make([]uint64, n+1)
	s0, _ := m.Current()
	digests[0] = s0.Digest()
	for i := 1; i <= n; i++ {
		if _, err := m.Step(p); err != nil {
			t.Fatalf("Step() #%d error = %v", i, err)
		}
		s, _ := m.Current()
		digests[i] = s.Digest()
	}

	if got := m.Rewind(k); got != n-k {
		t.Fatalf("Rewind(%d) = %d, expected %d", k, got, n-k)
	}
	for i := n - k + 1; i <= n; i++ {
		if _, err := m.Step(p); err != nil {
			t.Fatalf("Step() after rewind error = %v", err)
		}
		s, _ := m.Current()
		if s.Tick != uint64(i) {
			t.Fatalf("tick = %d, expected %d", s.Tick, i)
		}
		if d := s.Digest(); d != digests[i] {
			t.Errorf("tick %d digest = %x after re-simulation, expected %x", i, d, digests[i])
		}
	}
	if got := m.Active().Latest(); got != n {
		t.Errorf("Latest() = %d, expected %d", got, n)
	}
}

func TestParseAppendMode(t *testing.T) {
	tests := []struct {
		in       string
		expected AppendMode
		wantErr  bool
	}{
		{"", AppendTruncate, false},
		{"truncate", AppendTruncate, false},
		{"reject", AppendReject, false},
		{"branch", 0, true},
	}
	for _, tc := range tests {
		got, err := ParseAppendMode(tc.in)
		if (err != nil) != tc.wantErr || got != tc.expected {
			t.Errorf("ParseAppendMode(%q) = %v, %v", tc.in, got, err)
		}
	}
}
