// Package session drives one simulation: it generates the initial world,
// owns the multiverse and the pipeline, and mirrors every tick into the
// optional run chronicle and observer stream.
package session

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/worldsim/internal/config"
	"github.com/vovakirdan/worldsim/internal/pipeline"
	"github.com/vovakirdan/worldsim/internal/registry"
	"github.com/vovakirdan/worldsim/internal/rules"
	"github.com/vovakirdan/worldsim/internal/snapshot"
	"github.com/vovakirdan/worldsim/internal/storage"
	"github.com/vovakirdan/worldsim/internal/timeline"
	"github.com/vovakirdan/worldsim/internal/transport/observer"
	"github.com/vovakirdan/worldsim/internal/world"

	_ "github.com/vovakirdan/worldsim/internal/worldgen" // registers scenarios
)

// Options wires optional collaborators into a Session.
type Options struct {
	Store  *storage.Store // run chronicle; nil disables recording
	Hub    *observer.Hub  // observer stream; nil disables streaming
	Logger *log.Logger    // nil discards output
}

// Session is one simulation run. It is not safe for concurrent use.
type Session struct {
	cfg   config.Config
	mv    *timeline.Multiverse
	adv   timeline.Advancer
	codec *snapshot.Codec
	store *storage.Store
	hub   *observer.Hub
	log   *log.Logger
	runID int64
	last  rules.Report
}

// New generates the scenario named by cfg and starts a run at tick 0.
// A zero seed is replaced by one derived from the clock; Config reports it.
func New(cfg config.Config, opts Options) (*Session, error) {
	if cfg.World.Seed == 0 {
		cfg.World.Seed = uint64(time.Now().UnixNano())
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	mode, err := timeline.ParseAppendMode(cfg.History.AppendMode)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	initial, err := registry.Generate(cfg)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	s := &Session{
		cfg:   cfg,
		adv:   pipeline.FromConfig(cfg),
		store: opts.Store,
		hub:   opts.Hub,
		log:   logger,
	}

	tlOpts := []timeline.Option{
		timeline.WithAppendMode(mode),
		timeline.WithMaxHistory(cfg.History.MaxHistory),
		timeline.WithLogger(logger),
	}
	if cfg.History.HotSnapshots > 0 {
		codec, err := snapshot.NewCodec()
		if err != nil {
			return nil, fmt.Errorf("session: %w", err)
		}
		s.codec = codec
		tlOpts = append(tlOpts, timeline.WithCompression(codec, cfg.History.HotSnapshots))
	}
	s.mv = timeline.NewMultiverse(initial, tlOpts...)

	if s.store != nil {
		w, h, d := initial.Grid.Dims()
		id, err := s.store.BeginRun(cfg.World.Scenario, cfg.World.Seed, w, h, d)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("session: %w", err)
		}
		s.runID = id
	}
	s.mirror(initial, rules.Report{}, false)

	logger.Info("world generated",
		"scenario", cfg.World.Scenario,
		"seed", cfg.World.Seed,
		"dims", fmt.Sprintf("%dx%dx%d", cfg.World.Width, cfg.World.Height, cfg.World.Depth),
		"digest", fmt.Sprintf("%016x", initial.Digest()),
	)
	return s, nil
}

// Step advances one tick from the cursor.
func (s *Session) Step() (rules.Report, error) {
	from := s.mv.Cursor()
	branched := !s.mv.AtLatest()

	rep, err := s.mv.Step(s.adv)
	if err != nil {
		return rules.Report{}, err
	}
	cur, err := s.mv.Current()
	if err != nil {
		return rules.Report{}, err
	}

	if branched && s.store != nil {
		if err := s.store.TruncateRun(s.runID, uint32(from.Timeline), from.Tick); err != nil {
			s.log.Warn("chronicle truncate failed", "error", err)
		}
	}
	s.mirror(cur, rep, true)
	s.last = rep

	if rep.Eventful() {
		s.log.Info("tick",
			"tick", cur.Tick,
			"founded", len(rep.Founded),
			"collapsed", len(rep.Collapsed),
			"wars", len(rep.Wars),
			"action", rep.Action,
		)
	} else {
		s.log.Debug("tick", "tick", cur.Tick, "populations", len(cur.Populations), "civs", len(cur.Civilizations))
	}
	return rep, nil
}

// mirror records st into the chronicle and publishes it to observers.
// Chronicle failures are logged; the simulation continues regardless.
func (s *Session) mirror(st *world.State, rep rules.Report, withEvents bool) {
	if s.store == nil && s.hub == nil {
		return
	}
	rec := storage.NewTickRecord(uint32(s.mv.Cursor().Timeline), st, rep)
	var events []storage.Event
	if withEvents {
		events = storage.Events(rep)
	}
	if s.store != nil {
		if err := s.store.RecordTick(s.runID, rec, events); err != nil {
			s.log.Warn("chronicle write failed", "tick", st.Tick, "error", err)
		}
	}
	if s.hub != nil {
		s.hub.Publish(observer.NewFrame(rec, events))
	}
}

// Rewind moves the cursor back by up to n ticks and returns the new tick.
func (s *Session) Rewind(n uint64) uint64 {
	return s.mv.Rewind(n)
}

// Seek moves the cursor to tick i.
func (s *Session) Seek(i uint64) error {
	return s.mv.Seek(i)
}

// Forward moves the cursor one tick toward the latest. It reports whether
// the cursor moved.
func (s *Session) Forward() bool {
	if s.mv.AtLatest() {
		return false
	}
	return s.mv.Seek(s.mv.Cursor().Tick+1) == nil
}

// FastForward moves the cursor to the latest tick.
func (s *Session) FastForward() uint64 {
	return s.mv.FastForward()
}

// Truncate discards history after the cursor, in memory and in the
// chronicle.
func (s *Session) Truncate() error {
	c := s.mv.Cursor()
	if err := s.mv.Truncate(); err != nil {
		return err
	}
	if s.store != nil {
		if err := s.store.TruncateRun(s.runID, uint32(c.Timeline), c.Tick); err != nil {
			s.log.Warn("chronicle truncate failed", "error", err)
		}
	}
	return nil
}

// Current returns the frozen state under the cursor.
func (s *Session) Current() (*world.State, error) {
	return s.mv.Current()
}

// Cursor returns the cursor position.
func (s *Session) Cursor() timeline.Cursor {
	return s.mv.Cursor()
}

// AtLatest reports whether the cursor is on the newest tick.
func (s *Session) AtLatest() bool {
	return s.mv.AtLatest()
}

// Latest returns the newest tick of the active timeline.
func (s *Session) Latest() uint64 {
	return s.mv.Active().Latest()
}

// Oldest returns the oldest retained tick of the active timeline.
func (s *Session) Oldest() uint64 {
	return s.mv.Active().Oldest()
}

// Stored returns how many states the active timeline holds.
func (s *Session) Stored() int {
	return s.mv.Active().Len()
}

// LastReport returns the report of the most recent Step.
func (s *Session) LastReport() rules.Report {
	return s.last
}

// Config returns the effective configuration, seed included.
func (s *Session) Config() config.Config {
	return s.cfg
}

// RunID returns the chronicle run ID, or 0 without a chronicle.
func (s *Session) RunID() int64 {
	return s.runID
}

// Multiverse exposes the underlying multiverse.
func (s *Session) Multiverse() *timeline.Multiverse {
	return s.mv
}

// Close finishes the chronicle run and releases the snapshot codec.
// The store and hub are owned by the caller and stay open.
func (s *Session) Close() {
	if s.store != nil && s.runID != 0 {
		if err := s.store.FinishRun(s.runID); err != nil {
			s.log.Warn("chronicle finish failed", "error", err)
		}
	}
	if s.codec != nil {
		s.codec.Close()
		s.codec = nil
	}
}
