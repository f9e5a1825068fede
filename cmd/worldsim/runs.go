package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/worldsim/internal/platform/tui"
	"github.com/vovakirdan/worldsim/internal/storage"
)

var (
	flagRunsLimit    int
	flagRunsTimeline uint32
	flagRunsBrowse   bool
)

var runsCmd = &cobra.Command{
	Use:   "runs [id]",
	Short: "Show recorded runs from the chronicle",
	Long: `List the most recent runs recorded in the chronicle database, or, given
a run ID, its per-tick summaries and events.

Examples:
  worldsim runs
  worldsim runs 3
  worldsim runs 3 --timeline 1
  worldsim runs --browse
  worldsim runs --db ./chronicle.db`,
	Args: cobra.MaximumNArgs(1),
	Run:  runRuns,
}

func init() {
	runsCmd.Flags().IntVar(&flagRunsLimit, "limit", 20, "Maximum runs to list")
	runsCmd.Flags().Uint32Var(&flagRunsTimeline, "timeline", 0, "Timeline whose ticks to show")
	runsCmd.Flags().BoolVar(&flagRunsBrowse, "browse", false, "Browse runs interactively")
}

func runRuns(_ *cobra.Command, args []string) {
	dbPath := flagDBPath
	if dbPath == "" {
		dbPath = "~/.worldsim/chronicle.db"
	}

	store, err := storage.Open(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening chronicle database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if flagRunsBrowse {
		width, height := 80, 24
		if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
			width, height = w, h
		}
		if _, err := tui.RunChronicle(store, width, height); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return
	}

	if len(args) == 0 {
		if err := printRuns(os.Stdout, store, flagRunsLimit); err != nil {
			fmt.Fprintf(os.Stderr, "Error retrieving runs: %v\n", err)
		}
		return
	}

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid run ID %q\n", args[0])
		return
	}
	if err := printRun(os.Stdout, store, id, flagRunsTimeline); err != nil {
		if errors.Is(err, storage.ErrUnknownRun) {
			fmt.Fprintf(os.Stderr, "Error: no run %d\n", id)
			fmt.Fprintln(os.Stderr, "Run 'worldsim runs' to see recorded runs.")
			return
		}
		fmt.Fprintf(os.Stderr, "Error retrieving run: %v\n", err)
	}
}

// printRuns writes the most recent runs as a table.
func printRuns(w io.Writer, store *storage.Store, limit int) error {
	runs, err := store.Runs(limit)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "Recorded runs")
	fmt.Fprintln(w)

	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded yet.")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Run 'worldsim run --db <path>' to record one.")
		return nil
	}

	fmt.Fprintf(w, "  %-4s  %-12s  %-20s  %-10s  %-6s  %s\n", "ID", "Scenario", "Seed", "Size", "Ticks", "Started")
	fmt.Fprintf(w, "  %-4s  %-12s  %-20s  %-10s  %-6s  %s\n", "--", "--------", "----", "----", "-----", "-------")
	for _, r := range runs {
		fmt.Fprintf(w, "  %-4d  %-12s  %-20d  %-10s  %-6d  %s\n",
			r.ID, r.Scenario, r.Seed, fmt.Sprintf("%dx%dx%d", r.Width, r.Height, r.Depth),
			r.Ticks, r.StartedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

// printRun writes one run's tick summaries and events on timeline tl.
func printRun(w io.Writer, store *storage.Store, id int64, tl uint32) error {
	run, err := store.RunByID(id)
	if err != nil {
		return err
	}
	ticks, err := store.RunTicks(id, tl)
	if err != nil {
		return err
	}
	events, err := store.RunEvents(id, tl)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Run %d - %s, seed %d, %dx%dx%d, timeline %d\n",
		run.ID, run.Scenario, run.Seed, run.Width, run.Height, run.Depth, tl)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  %-6s  %-5s  %-8s  %-5s  %-7s  %-5s  %-4s  %s\n",
		"Tick", "Pops", "Biomass", "Civs", "CivPop", "Tech", "Wars", "Digest")
	for _, t := range ticks {
		fmt.Fprintf(w, "  %-6d  %-5d  %-8d  %-5d  %-7d  %-5.2f  %-4d  %016x\n",
			t.Tick, t.Populations, t.Biomass, t.Civilizations, t.CivPopulation, t.AvgTech, t.Wars, t.Digest)
	}

	if len(events) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Events:")
		for _, e := range events {
			fmt.Fprintf(w, "  tick %-6d  %-10s  %s\n", e.Tick, e.Kind, e.Detail)
		}
	}
	return nil
}
