package timeline

import (
	"fmt"
	"slices"

	"github.com/vovakirdan/worldsim/internal/rules"
	"github.com/vovakirdan/worldsim/internal/world"
)

// Advancer produces the successor of a state. pipeline.Pipeline implements it.
type Advancer interface {
	Advance(prev *world.State) (*world.State, rules.Report)
}

// Cursor is the position the multiverse reads from.
type Cursor struct {
	Timeline ID
	Tick     uint64
}

// Multiverse holds independent timelines and a cursor into the active one.
// Timelines never branch from one another. It is not safe for concurrent use.
type Multiverse struct {
	timelines map[ID]*Timeline
	cursors   map[ID]uint64 // remembered cursor per inactive timeline
	active    ID
	tick      uint64
	nextID    ID
	opts      []Option
	cfg       options
}

// NewMultiverse creates a multiverse with one timeline starting at initial.
// Options apply to every timeline it creates.
func NewMultiverse(initial *world.State, opts ...Option) *Multiverse {
	m := &Multiverse{
		timelines: make(map[ID]*Timeline),
		cursors:   make(map[ID]uint64),
		opts:      opts,
		cfg:       buildOptions(opts),
	}
	m.active = m.add(initial)
	return m
}

func (m *Multiverse) add(initial *world.State) ID {
	id := m.nextID
	m.nextID++
	m.timelines[id] = New(id, initial, m.opts...)
	m.cursors[id] = 0
	return id
}

// AddTimeline starts a new, independent timeline at initial without
// activating it.
func (m *Multiverse) AddTimeline(initial *world.State) ID {
	id := m.add(initial)
	m.cfg.logger.Debug("timeline added", "id", id)
	return id
}

// Activate switches the cursor to timeline id, restoring where it was left.
func (m *Multiverse) Activate(id ID) error {
	if _, ok := m.timelines[id]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownTimeline, id)
	}
	m.cursors[m.active] = m.tick
	m.active = id
	m.tick = m.cursors[id]
	m.cfg.logger.Debug("timeline activated", "id", id, "tick", m.tick)
	return nil
}

// Timelines returns the IDs of every timeline in creation order.
func (m *Multiverse) Timelines() []ID {
	ids := make([]ID, 0, len(m.timelines))
	for id := range m.timelines {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Active returns the active timeline.
func (m *Multiverse) Active() *Timeline {
	return m.timelines[m.active]
}

// Cursor returns the current position.
func (m *Multiverse) Cursor() Cursor {
	return Cursor{Timeline: m.active, Tick: m.tick}
}

// Mode returns the append-after-rewind mode.
func (m *Multiverse) Mode() AppendMode {
	return m.cfg.mode
}

// Current returns the stored state under the cursor. See Timeline.Get for
// what callers may touch.
func (m *Multiverse) Current() (*world.State, error) {
	return m.Active().Get(m.tick)
}

// AtLatest reports whether the cursor sits on the newest tick.
func (m *Multiverse) AtLatest() bool {
	return m.tick == m.Active().Latest()
}

// Step advances the world by one tick from the cursor and moves the cursor
// onto the new state. When the cursor is behind the latest tick the stale
// future is discarded first, or ErrFutureExists is returned in
// AppendReject mode.
func (m *Multiverse) Step(a Advancer) (rules.Report, error) {
	tl := m.Active()
	if !m.AtLatest() {
		if m.cfg.mode == AppendReject {
			return rules.Report{}, fmt.Errorf("%w: cursor %d, latest %d", ErrFutureExists, m.tick, tl.Latest())
		}
		m.cfg.logger.Debug("discarding future", "timeline", m.active, "from", m.tick+1, "to", tl.Latest())
		if err := tl.TruncateAfter(m.tick); err != nil {
			return rules.Report{}, err
		}
	}

	cur, err := tl.Get(m.tick)
	if err != nil {
		return rules.Report{}, err
	}
	next, rep := a.Advance(cur)
	if err := tl.Append(next); err != nil {
		return rules.Report{}, err
	}
	m.tick = tl.Latest()
	return rep, nil
}

// Rewind moves the cursor back by n ticks, stopping at the oldest retained
// tick. It never runs the pipeline or discards history, and returns the new
// cursor tick.
func (m *Multiverse) Rewind(n uint64) uint64 {
	if n == 0 {
		return m.tick
	}
	oldest := m.Active().Oldest()
	back := min(n, m.tick-oldest)
	m.tick -= back
	m.cfg.logger.Debug("rewind", "timeline", m.active, "by", back, "tick", m.tick)
	return m.tick
}

// Seek moves the cursor to tick index i, forward or backward.
func (m *Multiverse) Seek(i uint64) error {
	tl := m.Active()
	if i > tl.Latest() {
		return fmt.Errorf("%w: %d > latest %d", ErrIndexOutOfRange, i, tl.Latest())
	}
	if i < tl.Oldest() {
		return fmt.Errorf("%w: %d < oldest %d", ErrEvicted, i, tl.Oldest())
	}
	m.tick = i
	return nil
}

// FastForward moves the cursor to the latest tick.
func (m *Multiverse) FastForward() uint64 {
	m.tick = m.Active().Latest()
	return m.tick
}

// Truncate discards every tick after the cursor.
func (m *Multiverse) Truncate() error {
	tl := m.Active()
	if m.AtLatest() {
		return nil
	}
	m.cfg.logger.Debug("truncate", "timeline", m.active, "after", m.tick, "dropped", tl.Latest()-m.tick)
	return tl.TruncateAfter(m.tick)
}
