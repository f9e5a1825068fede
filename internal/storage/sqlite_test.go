package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/vovakirdan/worldsim/internal/grid"
	"github.com/vovakirdan/worldsim/internal/rules"
	"github.com/vovakirdan/worldsim/internal/world"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "chronicle.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreOpenClose(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "nested", "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestBeginRunAndList(t *testing.T) {
	store := openStore(t)

	first, err := store.BeginRun("layered", 42, 64, 64, 32)
	if err != nil {
		t.Fatalf("BeginRun() failed: %v", err)
	}
	second, err := store.BeginRun("crucible", ^uint64(0), 4, 4, 4)
	if err != nil {
		t.Fatalf("BeginRun() failed: %v", err)
	}

	runs, err := store.Runs(10)
	if err != nil {
		t.Fatalf("Runs() failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("len(Runs()) = %d, expected 2", len(runs))
	}
	if runs[0].ID != second || runs[1].ID != first {
		t.Errorf("Runs() order = %d,%d, expected %d,%d", runs[0].ID, runs[1].ID, second, first)
	}
	if runs[0].Seed != ^uint64(0) {
		t.Errorf("Seed = %d, expected max uint64", runs[0].Seed)
	}
	if runs[1].Scenario != "layered" || runs[1].Width != 64 || runs[1].Depth != 32 {
		t.Errorf("Runs()[1] = %+v, expected layered 64x64x32", runs[1])
	}
	if !runs[0].FinishedAt.IsZero() {
		t.Errorf("FinishedAt = %v, expected zero for a live run", runs[0].FinishedAt)
	}
}

func TestRecordTickReplacesAfterRewind(t *testing.T) {
	store := openStore(t)
	id, _ := store.BeginRun("layered", 1, 8, 8, 8)

	for tick := uint64(1); tick <= 5; tick++ {
		rec := TickRecord{Tick: tick, Populations: int(tick), Digest: tick << 60, Action: "none"}
		if err := store.RecordTick(id, rec, nil); err != nil {
			t.Fatalf("RecordTick(%d) failed: %v", tick, err)
		}
	}

	// Rewind to 2 and take a different path.
	if err := store.TruncateRun(id, 0, 2); err != nil {
		t.Fatalf("TruncateRun() failed: %v", err)
	}
	if err := store.RecordTick(id, TickRecord{Tick: 3, Populations: 99, Action: "none"}, nil); err != nil {
		t.Fatalf("RecordTick() failed: %v", err)
	}

	ticks, err := store.RunTicks(id, 0)
	if err != nil {
		t.Fatalf("RunTicks() failed: %v", err)
	}
	if len(ticks) != 3 {
		t.Fatalf("len(RunTicks()) = %d, expected 3", len(ticks))
	}
	if ticks[2].Populations != 99 {
		t.Errorf("tick 3 Populations = %d, expected 99", ticks[2].Populations)
	}
	if ticks[1].Digest != 2<<60 {
		t.Errorf("tick 2 Digest = %x, expected %x", ticks[1].Digest, uint64(2<<60))
	}
}

func TestTimelinesAreSeparate(t *testing.T) {
	store := openStore(t)
	id, _ := store.BeginRun("layered", 1, 8, 8, 8)

	_ = store.RecordTick(id, TickRecord{Timeline: 0, Tick: 1, Action: "none"}, nil)
	_ = store.RecordTick(id, TickRecord{Timeline: 1, Tick: 1, Action: "none"}, nil)
	_ = store.RecordTick(id, TickRecord{Timeline: 1, Tick: 2, Action: "none"}, nil)

	tests := []struct {
		timeline uint32
		expected int
	}{
		{0, 1},
		{1, 2},
		{2, 0},
	}
	for _, tt := range tests {
		ticks, err := store.RunTicks(id, tt.timeline)
		if err != nil {
			t.Fatalf("RunTicks(%d) failed: %v", tt.timeline, err)
		}
		if len(ticks) != tt.expected {
			t.Errorf("len(RunTicks(%d)) = %d, expected %d", tt.timeline, len(ticks), tt.expected)
		}
	}
}

func TestEvents(t *testing.T) {
	store := openStore(t)
	id, _ := store.BeginRun("layered", 1, 8, 8, 8)

	rep := rules.Report{
		Tick:    7,
		Founded: []world.CivID{3},
		Wars:    []rules.War{{Winner: 3, Loser: 1, Spoils: 40}},
		Action:  rules.Action{Kind: rules.ActionBless, Civ: 3, Boost: 0.2},
	}
	events := Events(rep)
	if len(events) != 3 {
		t.Fatalf("len(Events()) = %d, expected 3", len(events))
	}
	if err := store.RecordTick(id, TickRecord{Tick: 7, Action: rep.Action.String()}, events); err != nil {
		t.Fatalf("RecordTick() failed: %v", err)
	}
	// Recording the same tick again replaces its events.
	if err := store.RecordTick(id, TickRecord{Tick: 7, Action: "none"}, events[:1]); err != nil {
		t.Fatalf("RecordTick() failed: %v", err)
	}

	got, err := store.RunEvents(id, 0)
	if err != nil {
		t.Fatalf("RunEvents() failed: %v", err)
	}
	if len(got) != 1 || got[0].Kind != "founded" || got[0].Tick != 7 {
		t.Errorf("RunEvents() = %+v, expected one founded event at tick 7", got)
	}

	run, err := store.RunByID(id)
	if err != nil {
		t.Fatalf("RunByID() failed: %v", err)
	}
	if run.Ticks != 7 {
		t.Errorf("Ticks = %d, expected 7", run.Ticks)
	}
}

func TestFinishRun(t *testing.T) {
	store := openStore(t)
	id, _ := store.BeginRun("layered", 1, 8, 8, 8)

	if err := store.FinishRun(id); err != nil {
		t.Fatalf("FinishRun() failed: %v", err)
	}
	run, err := store.RunByID(id)
	if err != nil {
		t.Fatalf("RunByID() failed: %v", err)
	}
	if run.FinishedAt.IsZero() {
		t.Error("FinishedAt is zero after FinishRun()")
	}

	if err := store.FinishRun(id + 100); !errors.Is(err, ErrUnknownRun) {
		t.Errorf("FinishRun(unknown) = %v, expected ErrUnknownRun", err)
	}
	if _, err := store.RunByID(id + 100); !errors.Is(err, ErrUnknownRun) {
		t.Errorf("RunByID(unknown) = %v, expected ErrUnknownRun", err)
	}
}

func TestNewTickRecord(t *testing.T) {
	g, err := grid.New(2, 2, 2, grid.SoilCell())
	if err != nil {
		t.Fatalf("grid.New() error = %v", err)
	}
	s := world.New(g, 9)
	s.Tick = 12
	s.Populations = []world.Population{{Pos: grid.C(0, 0, 0), Size: 30}, {Pos: grid.C(1, 0, 0), Size: 20}}
	s.Civilizations = []world.Civilization{{ID: 1, Population: 600, Tech: 1}, {ID: 2, Population: 900, Tech: 3}}

	rec := NewTickRecord(2, s, rules.Report{Tick: 12, Wars: []rules.War{{Winner: 1, Loser: 2}}})
	if rec.Timeline != 2 || rec.Tick != 12 {
		t.Errorf("Timeline/Tick = %d/%d, expected 2/12", rec.Timeline, rec.Tick)
	}
	if rec.Biomass != 50 {
		t.Errorf("Biomass = %d, expected 50", rec.Biomass)
	}
	if rec.CivPopulation != 1500 {
		t.Errorf("CivPopulation = %d, expected 1500", rec.CivPopulation)
	}
	if rec.AvgTech != 2 {
		t.Errorf("AvgTech = %v, expected 2", rec.AvgTech)
	}
	if rec.Wars != 1 {
		t.Errorf("Wars = %d, expected 1", rec.Wars)
	}
	if rec.Digest != s.Digest() {
		t.Errorf("Digest = %x, expected %x", rec.Digest, s.Digest())
	}
}
