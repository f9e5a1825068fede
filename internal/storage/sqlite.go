// Package storage provides the SQLite run chronicle: per-run metadata,
// per-tick summaries and notable events. The chronicle is write-mostly
// analytics; world states are never restored from it.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/vovakirdan/worldsim/internal/rules"
	"github.com/vovakirdan/worldsim/internal/world"
)

// ErrUnknownRun is returned when a run ID has no row.
var ErrUnknownRun = errors.New("storage: unknown run")

// Store manages the SQLite database connection for the chronicle.
type Store struct {
	db *sql.DB
}

// Run describes one simulation run.
type Run struct {
	ID         int64
	Scenario   string
	Seed       uint64
	Width      int
	Height     int
	Depth      int
	Ticks      uint64 // last recorded tick
	StartedAt  time.Time
	FinishedAt time.Time // zero while the run is live
}

// TickRecord is the chronicle row for one tick of one timeline.
type TickRecord struct {
	Timeline      uint32
	Tick          uint64
	Populations   int
	Biomass       uint64
	Civilizations int
	CivPopulation uint64
	AvgTech       float64
	Wars          int
	Action        string
	Digest        uint64
}

// Event is a notable occurrence within a tick.
type Event struct {
	Tick   uint64
	Kind   string // "founded", "collapsed", "war", "action"
	Detail string
}

// NewTickRecord summarizes s and the report of the tick that produced it.
func NewTickRecord(timeline uint32, s *world.State, rep rules.Report) TickRecord {
	r := TickRecord{
		Timeline:      timeline,
		Tick:          s.Tick,
		Populations:   len(s.Populations),
		Biomass:       s.Biomass(),
		Civilizations: len(s.Civilizations),
		CivPopulation: s.CivPopulation(),
		Wars:          len(rep.Wars),
		Action:        rep.Action.String(),
		Digest:        s.Digest(),
	}
	if n := len(s.Civilizations); n > 0 {
		var sum float64
		for _, c := range s.Civilizations {
			sum += c.Tech
		}
		r.AvgTech = sum / float64(n)
	}
	return r
}

// Events flattens the notable parts of rep.
func Events(rep rules.Report) []Event {
	var out []Event
	for _, id := range rep.Founded {
		out = append(out, Event{Tick: rep.Tick, Kind: "founded", Detail: fmt.Sprintf("civ #%d", id)})
	}
	for _, id := range rep.Collapsed {
		out = append(out, Event{Tick: rep.Tick, Kind: "collapsed", Detail: fmt.Sprintf("civ #%d", id)})
	}
	for _, w := range rep.Wars {
		out = append(out, Event{
			Tick:   rep.Tick,
			Kind:   "war",
			Detail: fmt.Sprintf("civ #%d defeated civ #%d, spoils %d", w.Winner, w.Loser, w.Spoils),
		})
	}
	if rep.Action.Kind != rules.ActionNone {
		out = append(out, Event{Tick: rep.Tick, Kind: "action", Detail: rep.Action.String()})
	}
	return out
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			scenario TEXT NOT NULL,
			seed TEXT NOT NULL,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			depth INTEGER NOT NULL,
			ticks INTEGER NOT NULL DEFAULT 0,
			started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			finished_at DATETIME
		);

		CREATE TABLE IF NOT EXISTS tick_summaries (
			run_id INTEGER NOT NULL REFERENCES runs(id),
			timeline INTEGER NOT NULL,
			tick INTEGER NOT NULL,
			populations INTEGER NOT NULL,
			biomass INTEGER NOT NULL,
			civilizations INTEGER NOT NULL,
			civ_population INTEGER NOT NULL,
			avg_tech REAL NOT NULL,
			wars INTEGER NOT NULL,
			action TEXT NOT NULL,
			digest TEXT NOT NULL,
			PRIMARY KEY (run_id, timeline, tick)
		);

		CREATE TABLE IF NOT EXISTS events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id INTEGER NOT NULL REFERENCES runs(id),
			timeline INTEGER NOT NULL,
			tick INTEGER NOT NULL,
			kind TEXT NOT NULL,
			detail TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_events_run ON events(run_id, timeline, tick);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// BeginRun records a new run and returns its ID.
func (s *Store) BeginRun(scenario string, seed uint64, w, h, d int) (int64, error) {
	result, err := s.db.Exec(
		"INSERT INTO runs (scenario, seed, width, height, depth) VALUES (?, ?, ?, ?, ?)",
		scenario, strconv.FormatUint(seed, 10), w, h, d,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot begin run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	return id, nil
}

// RecordTick stores rec and its events. A tick recorded twice on the same
// timeline, as happens after a rewind, replaces the earlier row.
func (s *Store) RecordTick(runID int64, rec TickRecord, events []Event) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("storage: cannot begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT OR REPLACE INTO tick_summaries
		 (run_id, timeline, tick, populations, biomass, civilizations, civ_population, avg_tech, wars, action, digest)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, rec.Timeline, int64(rec.Tick), rec.Populations, int64(rec.Biomass),
		rec.Civilizations, int64(rec.CivPopulation), rec.AvgTech, rec.Wars, rec.Action,
		strconv.FormatUint(rec.Digest, 16),
	); err != nil {
		return fmt.Errorf("storage: cannot record tick %d: %w", rec.Tick, err)
	}

	if _, err := tx.Exec(
		"DELETE FROM events WHERE run_id = ? AND timeline = ? AND tick = ?",
		runID, rec.Timeline, int64(rec.Tick),
	); err != nil {
		return fmt.Errorf("storage: cannot clear events: %w", err)
	}
	for _, e := range events {
		if _, err := tx.Exec(
			"INSERT INTO events (run_id, timeline, tick, kind, detail) VALUES (?, ?, ?, ?, ?)",
			runID, rec.Timeline, int64(e.Tick), e.Kind, e.Detail,
		); err != nil {
			return fmt.Errorf("storage: cannot record event: %w", err)
		}
	}

	if _, err := tx.Exec(
		"UPDATE runs SET ticks = MAX(ticks, ?) WHERE id = ?",
		int64(rec.Tick), runID,
	); err != nil {
		return fmt.Errorf("storage: cannot update run: %w", err)
	}

	return tx.Commit()
}

// TruncateRun discards rows of timeline after tick, mirroring a timeline
// truncation.
func (s *Store) TruncateRun(runID int64, timeline uint32, tick uint64) error {
	if _, err := s.db.Exec(
		"DELETE FROM tick_summaries WHERE run_id = ? AND timeline = ? AND tick > ?",
		runID, timeline, int64(tick),
	); err != nil {
		return fmt.Errorf("storage: cannot truncate ticks: %w", err)
	}
	if _, err := s.db.Exec(
		"DELETE FROM events WHERE run_id = ? AND timeline = ? AND tick > ?",
		runID, timeline, int64(tick),
	); err != nil {
		return fmt.Errorf("storage: cannot truncate events: %w", err)
	}
	return nil
}

// FinishRun stamps the run's finish time.
func (s *Store) FinishRun(runID int64) error {
	res, err := s.db.Exec("UPDATE runs SET finished_at = CURRENT_TIMESTAMP WHERE id = ?", runID)
	if err != nil {
		return fmt.Errorf("storage: cannot finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %d", ErrUnknownRun, runID)
	}
	return nil
}

// Runs returns the most recent runs, newest first.
func (s *Store) Runs(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT id, scenario, seed, width, height, depth, ticks, started_at, finished_at
		 FROM runs
		 ORDER BY id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return runs, nil
}

// RunByID returns a single run.
func (s *Store) RunByID(id int64) (Run, error) {
	row := s.db.QueryRow(
		`SELECT id, scenario, seed, width, height, depth, ticks, started_at, finished_at
		 FROM runs WHERE id = ?`,
		id,
	)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %d", ErrUnknownRun, id)
	}
	return r, err
}

// RunTicks returns the tick rows of a run's timeline in tick order.
func (s *Store) RunTicks(runID int64, timeline uint32) ([]TickRecord, error) {
	rows, err := s.db.Query(
		`SELECT timeline, tick, populations, biomass, civilizations, civ_population, avg_tech, wars, action, digest
		 FROM tick_summaries
		 WHERE run_id = ? AND timeline = ?
		 ORDER BY tick`,
		runID, timeline,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query ticks: %w", err)
	}
	defer rows.Close()

	var out []TickRecord
	for rows.Next() {
		var (
			r                     TickRecord
			tick, biomass, civPop int64
			digest                string
		)
		if err := rows.Scan(&r.Timeline, &tick, &r.Populations, &biomass, &r.Civilizations,
			&civPop, &r.AvgTech, &r.Wars, &r.Action, &digest); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		r.Tick, r.Biomass, r.CivPopulation = uint64(tick), uint64(biomass), uint64(civPop)
		if r.Digest, err = strconv.ParseUint(digest, 16, 64); err != nil {
			return nil, fmt.Errorf("storage: bad digest %q: %w", digest, err)
		}
		out = append(out, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return out, nil
}

// RunEvents returns the events of a run's timeline in tick order.
func (s *Store) RunEvents(runID int64, timeline uint32) ([]Event, error) {
	rows, err := s.db.Query(
		`SELECT tick, kind, detail FROM events
		 WHERE run_id = ? AND timeline = ?
		 ORDER BY tick, id`,
		runID, timeline,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		var tick int64
		if err := rows.Scan(&tick, &e.Kind, &e.Detail); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		e.Tick = uint64(tick)
		out = append(out, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		r                 Run
		seed              string
		ticks             int64
		started, finished any
	)
	if err := sc.Scan(&r.ID, &r.Scenario, &seed, &r.Width, &r.Height, &r.Depth, &ticks, &started, &finished); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("storage: cannot scan run: %w", err)
	}
	var err error
	if r.Seed, err = strconv.ParseUint(seed, 10, 64); err != nil {
		return Run{}, fmt.Errorf("storage: bad seed %q: %w", seed, err)
	}
	r.Ticks = uint64(ticks)
	r.StartedAt = parseTime(started)
	r.FinishedAt = parseTime(finished)
	return r, nil
}

// parseTime handles both time.Time and string datetimes from the driver.
func parseTime(v any) time.Time {
	switch v := v.(type) {
	case time.Time:
		return v
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", v); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
