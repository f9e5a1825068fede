// worldsim is a deterministic world simulator: a voxel grid with heat,
// life, civilizations and a capricious overseer, with rewindable history.
//
// Usage:
//
//	worldsim run              - Simulate headless and print periodic summaries
//	worldsim view [scenario]  - Watch and steer a world in the terminal
//	worldsim serve            - Start SSH server hosting the viewer
//	worldsim runs [id]        - Show recorded runs from the chronicle
//	worldsim list             - List available scenarios
//	worldsim inspect          - Generate a world and print its tick-0 report
//
// Global flags:
//
//	--config <path>     - World config YAML (default: search order, then embedded)
//	--preset <name>     - Temperament preset: gentle, balanced, wrathful, frozen
//	--seed <value>      - RNG seed (0 = random based on time)
//	--scenario <id>     - Scenario to generate
//	--db <path>         - Chronicle database path
//	--log-level <lvl>   - debug, info, warn, error
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/worldsim/internal/config"

	// Import scenarios to register them
	_ "github.com/vovakirdan/worldsim/internal/worldgen"
)

var (
	// Global flags
	flagConfig   string
	flagPreset   string
	flagSeed     uint64
	flagScenario string
	flagDBPath   string
	flagLogLevel string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "worldsim",
	Short: "worldsim - Simulate a small world tick by tick",
	Long: `worldsim simulates a 3D voxel world in discrete ticks: heat spreads and
fades, matter changes phase, populations grow and migrate, civilizations rise,
wage war and collapse, and an overseer meddles according to its mood.
Every tick is kept, so history can be rewound and branched.

Available commands:
  run      - Simulate headless and print periodic summaries
  view     - Interactive viewer with pause, step and rewind
  serve    - Start SSH server hosting the viewer
  runs     - Browse the run chronicle
  list     - Show all available scenarios
  inspect  - Print the generated world before the first tick

Examples:
  worldsim run --ticks 1000
  worldsim run --seed 42 --rewind-at 200 --rewind 50
  worldsim view archipelago --preset wrathful
  worldsim serve --ssh :2222
  worldsim runs 3`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to world config YAML")
	rootCmd.PersistentFlags().StringVar(&flagPreset, "preset", "", "Temperament preset (gentle, balanced, wrathful, frozen)")
	rootCmd.PersistentFlags().Uint64Var(&flagSeed, "seed", 0, "RNG seed (0 = random based on time)")
	rootCmd.PersistentFlags().StringVar(&flagScenario, "scenario", "", "Scenario to generate (see 'worldsim list')")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to chronicle database (empty = no chronicle)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(viewCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(inspectCmd)
}

// newLogger builds the CLI logger at the --log-level threshold.
func newLogger() (*log.Logger, error) {
	level, err := log.ParseLevel(flagLogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", flagLogLevel, err)
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "worldsim",
		Level:           level,
	})
	return logger, nil
}

// loadConfig loads the world config and applies the preset and global
// flag overrides. Flags win over file values.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return config.Config{}, err
	}
	if err := config.ApplyPreset(&cfg, config.Preset(flagPreset)); err != nil {
		return config.Config{}, err
	}
	if flagSeed != 0 {
		cfg.World.Seed = flagSeed
	}
	if flagScenario != "" {
		cfg.World.Scenario = flagScenario
	}
	return cfg, nil
}

// fail prints an error and exits, the way every command reports failure.
func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
