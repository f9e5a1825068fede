package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/worldsim/internal/core"
	"github.com/vovakirdan/worldsim/internal/session"
	"github.com/vovakirdan/worldsim/internal/storage"
	"github.com/vovakirdan/worldsim/internal/timeline"
	"github.com/vovakirdan/worldsim/internal/transport/observer"
)

var (
	flagTicks         int
	flagReportEvery   int
	flagSliceEvery    int
	flagSliceZ        int
	flagRewindAt      uint64
	flagRewind        uint64
	flagObserve       string
	flagObservePublic bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Simulate headless and print periodic summaries",
	Long: `Run the simulation without a UI, printing a summary every --report-every
ticks and a horizontal slice every --slice-every ticks, followed by a
detailed report at the end.

With --rewind-at, the cursor is moved back --rewind ticks once that tick is
reached; the run then continues from there, branching history.

With --observe, tick summaries are streamed to websocket clients at
ws://<addr>/ws and the latest one is served at http://<addr>/latest.

Examples:
  worldsim run
  worldsim run --ticks 300 --report-every 25 --seed 7
  worldsim run --rewind-at 200 --rewind 50
  worldsim run --db ~/.worldsim/chronicle.db --observe :8088`,
	Run: runRun,
}

func init() {
	runCmd.Flags().IntVar(&flagTicks, "ticks", 0, "Ticks to simulate (0 = config value)")
	runCmd.Flags().IntVar(&flagReportEvery, "report-every", 0, "Print a summary every N ticks (0 = config value)")
	runCmd.Flags().IntVar(&flagSliceEvery, "slice-every", 0, "Print a slice every N ticks (0 = config value, -1 = never)")
	runCmd.Flags().IntVar(&flagSliceZ, "slice-z", -1, "Slice height to print (-1 = middle)")
	runCmd.Flags().Uint64Var(&flagRewindAt, "rewind-at", 0, "Tick at which to rewind once (0 = never)")
	runCmd.Flags().Uint64Var(&flagRewind, "rewind", 10, "Ticks to rewind at --rewind-at")
	runCmd.Flags().StringVar(&flagObserve, "observe", "", "Serve the observer stream on this address (e.g. :8088)")
	runCmd.Flags().BoolVar(&flagObservePublic, "observe-public", false, "Accept observer clients from non-loopback addresses")
}

// runOptions drives one headless run.
type runOptions struct {
	Ticks       int
	ReportEvery int
	SliceEvery  int
	SliceZ      int // -1 means middle
	RewindAt    uint64
	Rewind      uint64
}

func runRun(cmd *cobra.Command, _ []string) {
	if err := runHeadless(cmd.Context(), os.Stdout); err != nil {
		fail("%v", err)
	}
}

// runHeadless builds a session from the flags and simulates it, writing to
// out. Every resource it opens is released before it returns.
func runHeadless(parent context.Context, out io.Writer) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	opts := runOptions{
		Ticks:       cfg.Run.Ticks,
		ReportEvery: cfg.Run.ReportEvery,
		SliceEvery:  cfg.Run.SliceEvery,
		SliceZ:      flagSliceZ,
		RewindAt:    flagRewindAt,
		Rewind:      flagRewind,
	}
	if flagTicks > 0 {
		opts.Ticks = flagTicks
	}
	if flagReportEvery > 0 {
		opts.ReportEvery = flagReportEvery
	}
	if flagSliceEvery != 0 {
		opts.SliceEvery = max(flagSliceEvery, 0)
	}

	sessOpts := session.Options{Logger: logger}

	if flagDBPath != "" {
		store, err := storage.Open(flagDBPath)
		if err != nil {
			logger.Warn("could not open chronicle database", "error", err)
		} else {
			defer store.Close()
			sessOpts.Store = store
		}
	}

	if flagObserve != "" {
		hub := observer.NewHub(logger.WithPrefix("observer"))
		hub.LoopbackOnly = !flagObservePublic
		srv := &http.Server{
			Addr:              flagObserve,
			Handler:           hub.Mux(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("observer server error", "error", err)
			}
		}()
		logger.Info("observer listening", "address", flagObserve)
		defer func() {
			hub.Close()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			//nolint:errcheck // Best-effort shutdown
			srv.Shutdown(ctx)
		}()
		sessOpts.Hub = hub
	}

	sess, err := session.New(cfg, sessOpts)
	if err != nil {
		return err
	}
	defer sess.Close()

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := simulate(ctx, sess, out, opts, logger); err != nil {
		return fmt.Errorf("run failed at tick %d: %w", sess.Cursor().Tick, err)
	}
	return nil
}

// simulate steps sess until opts.Ticks steps have been taken or ctx is
// done, writing summaries and slices to out.
func simulate(ctx context.Context, sess *session.Session, out io.Writer, opts runOptions, logger *log.Logger) error {
	cfg := sess.Config()
	fmt.Fprintf(out, "Initializing world %dx%dx%d (%s, seed %d)...\n",
		cfg.World.Width, cfg.World.Height, cfg.World.Depth, cfg.World.Scenario, cfg.World.Seed)
	fmt.Fprintf(out, "Running %d ticks...\n", opts.Ticks)

	rewound := false
	for steps := 0; steps < opts.Ticks; {
		if err := ctx.Err(); err != nil {
			logger.Warn("interrupted", "tick", sess.Cursor().Tick)
			break
		}

		rep, err := sess.Step()
		if errors.Is(err, timeline.ErrFutureExists) {
			// Reject mode keeps the old future until it is dropped explicitly.
			if err := sess.Truncate(); err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}
		steps++

		st, err := sess.Current()
		if err != nil {
			return err
		}
		tick := st.Tick

		if opts.ReportEvery > 0 && tick%uint64(opts.ReportEvery) == 0 {
			core.WriteSummary(out, st, rep.Action)
		}
		if opts.SliceEvery > 0 && tick%uint64(opts.SliceEvery) == 0 {
			z := opts.SliceZ
			if z < 0 {
				z = st.Grid.Depth() / 2
			}
			if err := core.WriteSlice(out, st.Grid, z); err != nil {
				return err
			}
		}

		if !rewound && opts.RewindAt > 0 && tick == opts.RewindAt {
			rewound = true
			to := sess.Rewind(opts.Rewind)
			fmt.Fprintf(out, "\n<<< Rewound from tick %d to tick %d (%d states stored) >>>\n",
				tick, to, sess.Stored())
		}
	}

	final, err := sess.Current()
	if err != nil {
		return err
	}
	core.WriteDetailedReport(out, final)
	fmt.Fprintf(out, "Final tick: %d  digest: %016x\n", final.Tick, final.Digest())
	return nil
}
