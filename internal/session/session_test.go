package session

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/vovakirdan/worldsim/internal/config"
	"github.com/vovakirdan/worldsim/internal/storage"
	"github.com/vovakirdan/worldsim/internal/timeline"
	"github.com/vovakirdan/worldsim/internal/transport/observer"
)

func testConfig(scenario string) config.Config {
	cfg := config.DefaultConfig()
	cfg.World.Width = 12
	cfg.World.Height = 12
	cfg.World.Depth = 6
	cfg.World.Seed = 31
	cfg.World.Scenario = scenario
	return cfg
}

func newSession(t *testing.T, cfg config.Config, opts Options) *Session {
	t.Helper()
	s, err := New(cfg, opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestStepAdvancesCursor(t *testing.T) {
	s := newSession(t, testConfig("layered"), Options{})

	for i := 1; i <= 5; i++ {
		if _, err := s.Step(); err != nil {
			t.Fatalf("Step() error = %v", err)
		}
		cur, err := s.Current()
		if err != nil {
			t.Fatalf("Current() error = %v", err)
		}
		if cur.Tick != uint64(i) {
			t.Errorf("Current().Tick = %d, expected %d", cur.Tick, i)
		}
	}
	if s.Latest() != 5 || !s.AtLatest() {
		t.Errorf("Latest() = %d AtLatest() = %v, expected 5/true", s.Latest(), s.AtLatest())
	}
}

func TestSameSeedSameHistory(t *testing.T) {
	a := newSession(t, testConfig("archipelago"), Options{})
	b := newSession(t, testConfig("archipelago"), Options{})
	for i := 0; i < 20; i++ {
		_, _ = a.Step()
		_, _ = b.Step()
	}
	sa, _ := a.Current()
	sb, _ := b.Current()
	if sa.Digest() != sb.Digest() {
		t.Errorf("Digest() diverged: %x vs %x", sa.Digest(), sb.Digest())
	}
}

func TestZeroSeedIsReplaced(t *testing.T) {
	cfg := testConfig("crucible")
	cfg.World.Seed = 0
	s := newSession(t, cfg, Options{})
	if s.Config().World.Seed == 0 {
		t.Error("Config().World.Seed = 0, expected a chosen seed")
	}
}

func TestUnknownScenario(t *testing.T) {
	if _, err := New(testConfig("nope"), Options{}); err == nil {
		t.Error("New() with unknown scenario: expected error")
	}
}

func TestRewindAndForward(t *testing.T) {
	s := newSession(t, testConfig("crucible"), Options{})
	for i := 0; i < 6; i++ {
		_, _ = s.Step()
	}

	if got := s.Rewind(4); got != 2 {
		t.Errorf("Rewind(4) = %d, expected 2", got)
	}
	if !s.Forward() {
		t.Error("Forward() = false, expected true")
	}
	if s.Cursor().Tick != 3 {
		t.Errorf("Cursor().Tick = %d, expected 3", s.Cursor().Tick)
	}
	if got := s.FastForward(); got != 6 {
		t.Errorf("FastForward() = %d, expected 6", got)
	}
	if s.Forward() {
		t.Error("Forward() at latest = true, expected false")
	}
}

func TestRejectMode(t *testing.T) {
	cfg := testConfig("crucible")
	cfg.History.AppendMode = "reject"
	s := newSession(t, cfg, Options{})
	_, _ = s.Step()
	_, _ = s.Step()
	s.Rewind(1)

	if _, err := s.Step(); !errors.Is(err, timeline.ErrFutureExists) {
		t.Errorf("Step() after rewind = %v, expected ErrFutureExists", err)
	}
	if err := s.Truncate(); err != nil {
		t.Fatalf("Truncate() error = %v", err)
	}
	if _, err := s.Step(); err != nil {
		t.Errorf("Step() after Truncate() error = %v", err)
	}
}

func TestBadAppendMode(t *testing.T) {
	cfg := testConfig("crucible")
	cfg.History.AppendMode = "sideways"
	if _, err := New(cfg, Options{}); err == nil {
		t.Error("New() with bad append mode: expected error")
	}
}

func TestChronicleFollowsRewind(t *testing.T) {
	store, err := storage.Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("storage.Open() error = %v", err)
	}
	defer store.Close()

	s := newSession(t, testConfig("layered"), Options{Store: store})
	for i := 0; i < 5; i++ {
		_, _ = s.Step()
	}
	s.Rewind(3)
	if _, err := s.Step(); err != nil {
		t.Fatalf("Step() error = %v", err)
	}

	ticks, err := store.RunTicks(s.RunID(), 0)
	if err != nil {
		t.Fatalf("RunTicks() error = %v", err)
	}
	// Ticks 0..3: the stale 4 and 5 were dropped, 3 was rewritten.
	if len(ticks) != 4 {
		t.Fatalf("len(RunTicks()) = %d, expected 4", len(ticks))
	}
	cur, _ := s.Current()
	if ticks[3].Digest != cur.Digest() {
		t.Errorf("tick 3 Digest = %x, expected %x", ticks[3].Digest, cur.Digest())
	}

	s.Close()
	run, err := store.RunByID(s.RunID())
	if err != nil {
		t.Fatalf("RunByID() error = %v", err)
	}
	if run.FinishedAt.IsZero() {
		t.Error("FinishedAt is zero after Close()")
	}
}

func TestHubReceivesTicks(t *testing.T) {
	hub := observer.NewHub(nil)
	defer hub.Close()
	srv := httptest.NewServer(hub.Mux())
	defer srv.Close()

	s := newSession(t, testConfig("crucible"), Options{Hub: hub})
	for i := 0; i < 3; i++ {
		_, _ = s.Step()
	}

	resp, err := http.Get(srv.URL + "/latest")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	defer resp.Body.Close()
	var f observer.Frame
	if err := json.NewDecoder(resp.Body).Decode(&f); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if f.Tick != 3 {
		t.Errorf("latest frame Tick = %d, expected 3", f.Tick)
	}
}

func TestCompressedHistoryRewind(t *testing.T) {
	cfg := testConfig("crucible")
	cfg.History.HotSnapshots = 2
	s := newSession(t, cfg, Options{})
	for i := 0; i < 8; i++ {
		_, _ = s.Step()
	}
	if err := s.Seek(1); err != nil {
		t.Fatalf("Seek(1) error = %v", err)
	}
	cur, err := s.Current()
	if err != nil {
		t.Fatalf("Current() error = %v", err)
	}
	if cur.Tick != 1 {
		t.Errorf("Current().Tick = %d, expected 1", cur.Tick)
	}
}
