// Package timeline stores the per-tick history of a world and moves a cursor
// through it.
//
// A Timeline is an append-only sequence of frozen states where entry i is
// the result of exactly i ticks applied to entry 0. Stored states are never
// mutated; every write happens on a clone. An uncompressed entry costs only
// the grid chunks its tick touched, because clones share untouched chunks
// with their predecessor; the worst case is a full grid per tick. Retention
// options bound that cost: WithMaxHistory keeps a sliding window of recent
// ticks, and WithCompression packs older entries with the snapshot codec.
package timeline

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/worldsim/internal/snapshot"
	"github.com/vovakirdan/worldsim/internal/world"
)

var (
	// ErrIndexOutOfRange is returned for tick indices past the latest entry.
	ErrIndexOutOfRange = errors.New("timeline: tick index out of range")
	// ErrEvicted is returned for tick indices dropped by WithMaxHistory.
	ErrEvicted = fmt.Errorf("%w: evicted", ErrIndexOutOfRange)
	// ErrOutOfOrder is returned when appending a state that does not follow
	// the latest entry.
	ErrOutOfOrder = errors.New("timeline: state does not follow latest tick")
	// ErrFutureExists is returned by Step in AppendReject mode when the
	// cursor is behind the latest tick.
	ErrFutureExists = errors.New("timeline: future already recorded")
	// ErrUnknownTimeline is returned for timeline IDs the multiverse does
	// not hold.
	ErrUnknownTimeline = errors.New("timeline: unknown timeline")
)

// ID identifies a timeline within a multiverse.
type ID uint32

// AppendMode decides what Step does when the cursor has been rewound.
type AppendMode uint8

const (
	// AppendTruncate discards the stale future and appends.
	AppendTruncate AppendMode = iota
	// AppendReject refuses to step until the future is truncated or the
	// cursor returns to the latest tick.
	AppendReject
)

func (m AppendMode) String() string {
	switch m {
	case AppendTruncate:
		return "truncate"
	case AppendReject:
		return "reject"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

// ParseAppendMode converts a config string.
func ParseAppendMode(s string) (AppendMode, error) {
	switch s {
	case "", "truncate":
		return AppendTruncate, nil
	case "reject":
		return AppendReject, nil
	}
	return 0, fmt.Errorf("timeline: unknown append mode %q", s)
}

type options struct {
	maxHistory int
	hot        int
	codec      *snapshot.Codec
	mode       AppendMode
	logger     *log.Logger
}

// Option configures a Timeline or Multiverse.
type Option func(*options)

// WithMaxHistory keeps only the newest k entries. Older ticks fail with
// ErrEvicted and rewinds clamp to the oldest kept tick. k <= 0 keeps all.
func WithMaxHistory(k int) Option {
	return func(o *options) { o.maxHistory = k }
}

// WithCompression keeps the newest hot entries as live states and packs the
// rest with codec. Reading a packed entry decodes a fresh copy.
func WithCompression(codec *snapshot.Codec, hot int) Option {
	return func(o *options) {
		o.codec = codec
		o.hot = hot
	}
}

// WithAppendMode sets the Multiverse append-after-rewind behaviour.
func WithAppendMode(m AppendMode) Option {
	return func(o *options) { o.mode = m }
}

// WithLogger sets the Multiverse logger.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

func buildOptions(opts []Option) options {
	o := options{logger: log.New(io.Discard)}
	for _, fn := range opts {
		fn(&o)
	}
	if o.hot < 1 {
		o.hot = 1
	}
	return o
}

type entry struct {
	state *world.State // nil when packed
	blob  []byte
}

// Timeline is one linear history.
type Timeline struct {
	id      ID
	base    uint64 // tick index of entries[0]
	entries []entry
	opts    options
}

// New creates a timeline whose index 0 is initial. initial is frozen.
func New(id ID, initial *world.State, opts ...Option) *Timeline {
	initial.Freeze()
	return &Timeline{
		id:      id,
		entries: []entry{{state: initial}},
		opts:    buildOptions(opts),
	}
}

// ID returns the timeline identifier.
func (t *Timeline) ID() ID { return t.id }

// Len returns the number of retained entries.
func (t *Timeline) Len() int { return len(t.entries) }

// Oldest returns the smallest retained tick index.
func (t *Timeline) Oldest() uint64 { return t.base }

// Latest returns the newest tick index.
func (t *Timeline) Latest() uint64 { return t.base + uint64(len(t.entries)) - 1 }

// Packed returns how many entries are stored compressed.
func (t *Timeline) Packed() int {
	n := 0
	for _, e := range t.entries {
		if e.state == nil {
			n++
		}
	}
	return n
}

// Append stores s as the new latest entry and freezes it. s must be the
// successor of the latest entry.
func (t *Timeline) Append(s *world.State) error {
	head := t.entries[len(t.entries)-1]
	headTick, err := t.tickOf(head)
	if err != nil {
		return err
	}
	if s.Tick != headTick+1 {
		return fmt.Errorf("%w: got tick %d after %d", ErrOutOfOrder, s.Tick, headTick)
	}

	s.Freeze()
	t.entries = append(t.entries, entry{state: s})

	if k := t.opts.maxHistory; k > 0 && len(t.entries) > k {
		drop := len(t.entries) - k
		clear(t.entries[:drop])
		t.entries = t.entries[drop:]
		t.base += uint64(drop)
	}

	if t.opts.codec != nil && len(t.entries) > t.opts.hot {
		t.pack(len(t.entries) - 1 - t.opts.hot)
	}
	return nil
}

// pack compresses entry i. Encoding failures leave the entry live.
func (t *Timeline) pack(i int) {
	e := &t.entries[i]
	if e.state == nil {
		return
	}
	blob, err := t.opts.codec.Encode(e.state)
	if err != nil {
		t.opts.logger.Warn("snapshot pack failed", "tick", e.state.Tick, "err", err)
		return
	}
	e.blob = blob
	e.state = nil
}

// Get returns the stored state at tick index i. Only its grid is frozen:
// species, populations, civilizations and scalars are the stored values
// themselves. Clone it before making any change.
func (t *Timeline) Get(i uint64) (*world.State, error) {
	if i > t.Latest() {
		return nil, fmt.Errorf("%w: %d > latest %d", ErrIndexOutOfRange, i, t.Latest())
	}
	if i < t.base {
		return nil, fmt.Errorf("%w: %d < oldest %d", ErrEvicted, i, t.base)
	}
	e := t.entries[i-t.base]
	if e.state != nil {
		return e.state, nil
	}
	s, err := t.opts.codec.Decode(e.blob)
	if err != nil {
		return nil, fmt.Errorf("timeline: tick %d: %w", i, err)
	}
	s.Freeze()
	return s, nil
}

// TruncateAfter discards every entry after tick index i.
func (t *Timeline) TruncateAfter(i uint64) error {
	if i > t.Latest() {
		return fmt.Errorf("%w: %d > latest %d", ErrIndexOutOfRange, i, t.Latest())
	}
	if i < t.base {
		return fmt.Errorf("%w: %d < oldest %d", ErrEvicted, i, t.base)
	}
	keep := int(i-t.base) + 1
	clear(t.entries[keep:])
	t.entries = t.entries[:keep]
	return nil
}

func (t *Timeline) tickOf(e entry) (uint64, error) {
	if e.state != nil {
		return e.state.Tick, nil
	}
	hd, err := t.opts.codec.ReadHeader(e.blob)
	if err != nil {
		return 0, fmt.Errorf("timeline: %w", err)
	}
	return hd.Tick, nil
}
