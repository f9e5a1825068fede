package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/worldsim/internal/config"
	"github.com/vovakirdan/worldsim/internal/core"
	"github.com/vovakirdan/worldsim/internal/platform/tui"
	"github.com/vovakirdan/worldsim/internal/registry"
	"github.com/vovakirdan/worldsim/internal/session"
	"github.com/vovakirdan/worldsim/internal/storage"
)

var (
	flagTickRate int
	flagLayer    int
)

var viewCmd = &cobra.Command{
	Use:   "view [scenario]",
	Short: "Watch and steer a world in the terminal",
	Long: `Start the interactive viewer. Without a scenario argument a picker menu
is shown first; leaving the viewer returns to it.

Controls:
  Space/P        - Pause / resume
  N              - Step one tick (branches history when rewound)
  Left/H         - Rewind one tick (Shift+Left/H: ten ticks)
  Right/L        - Forward through stored history
  End/G          - Jump to the latest tick
  Up/Down/K/J    - Change the displayed layer
  Tab            - Cycle overlay (material, heat, life)
  T              - Drop the future after the cursor
  Ctrl+S         - Save a screenshot
  Esc/B          - Back to menu
  Q/Ctrl+C       - Quit

Examples:
  worldsim view
  worldsim view layered --seed 42
  worldsim view archipelago --preset wrathful --fps 20`,
	Args: cobra.MaximumNArgs(1),
	Run:  runView,
}

func init() {
	viewCmd.Flags().IntVar(&flagTickRate, "fps", 0, "Viewer ticks per second (0 = config value)")
	viewCmd.Flags().IntVar(&flagLayer, "layer", -1, "Initial layer (-1 = middle)")
}

func runView(_ *cobra.Command, args []string) {
	logger, err := newLogger()
	if err != nil {
		fail("%v", err)
	}
	// The viewer owns the terminal; only warnings and above reach stderr.
	logger.SetLevel(max(logger.GetLevel(), log.WarnLevel))

	base, err := loadConfig()
	if err != nil {
		fail("%v", err)
	}

	// Get terminal size
	view := core.DefaultViewConfig()
	if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
		view.ScreenW = w
		view.ScreenH = h
	}
	view.TickRate = base.Run.TickRate
	if flagTickRate > 0 {
		view.TickRate = flagTickRate
	}
	view.Layer = flagLayer

	var store *storage.Store
	if flagDBPath != "" {
		store, err = storage.Open(flagDBPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not open chronicle database: %v\n", err)
			store = nil
		} else {
			defer store.Close()
		}
	}

	// Direct mode: scenario given on the command line
	if len(args) == 1 {
		if !registry.Exists(args[0]) {
			fmt.Fprintf(os.Stderr, "Error: unknown scenario %q\n", args[0])
			fmt.Fprintln(os.Stderr, "Run 'worldsim list' to see available scenarios.")
			os.Exit(1)
		}
		base.World.Scenario = args[0]
		if _, err := watch(base, view, store, logger); err != nil {
			fail("%v", err)
		}
		return
	}

	// Menu loop
	preset := config.Preset(flagPreset)
	for {
		menuResult, err := tui.RunMenu(view.ScreenW, view.ScreenH, base.World.Scenario, preset)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			break
		}

		// Update config with any size changes
		if menuResult.Width > 0 {
			view.ScreenW, view.ScreenH = menuResult.Width, menuResult.Height
		}
		preset = menuResult.Preset

		if menuResult.Quit {
			break
		}

		if menuResult.WantsRuns {
			goBack, runsErr := tui.RunChronicle(store, view.ScreenW, view.ScreenH)
			if runsErr != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", runsErr)
			}
			if goBack {
				continue // Back to menu
			}
			break // User quit from chronicle
		}

		cfg := base
		cfg.World.Scenario = menuResult.Scenario
		if err := config.ApplyPreset(&cfg, preset); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}
		if flagSeed == 0 {
			cfg.World.Seed = 0 // fresh world every time
		}

		backToMenu, err := watch(cfg, view, store, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error running viewer: %v\n", err)
		}
		if !backToMenu {
			break
		}
	}
}

// watch runs the viewer over a fresh session built from cfg.
func watch(cfg config.Config, view core.ViewConfig, store *storage.Store, logger *log.Logger) (backToMenu bool, err error) {
	sess, err := session.New(cfg, session.Options{Store: store, Logger: logger})
	if err != nil {
		return false, err
	}
	defer sess.Close()
	return tui.Run(sess, view)
}
