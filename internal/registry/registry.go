// Package registry provides a global registry for world scenarios.
// Scenarios register themselves in init() functions, allowing the CLI and
// the viewer to discover and build worlds without hardcoded dependencies.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/vovakirdan/worldsim/internal/config"
	"github.com/vovakirdan/worldsim/internal/world"
)

// Scenario builds the tick-0 state of a world.
type Scenario interface {
	// ID returns a unique identifier (e.g., "layered", "crucible").
	// Used for CLI arguments and the run chronicle.
	ID() string

	// Title returns a human-readable name for display.
	Title() string

	// Generate builds a fresh initial state from cfg.
	// The same cfg, seed included, always yields the same state.
	Generate(cfg config.Config) (*world.State, error)
}

// ScenarioInfo contains metadata about a registered scenario.
type ScenarioInfo struct {
	ID    string
	Title string
}

// Factory is a function that creates a new instance of a scenario.
type Factory func() Scenario

var (
	factories = make(map[string]Factory)
	titles    = make(map[string]string)
	mu        sync.RWMutex
)

// Register adds a scenario factory to the registry.
// Typically called from an init() function.
// Panics if a scenario with the same ID is already registered.
func Register(id string, f Factory) {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := factories[id]; exists {
		panic(fmt.Sprintf("registry: scenario %q already registered", id))
	}

	factories[id] = f
	titles[id] = f().Title()
}

// List returns information about all registered scenarios, sorted by ID.
func List() []ScenarioInfo {
	mu.RLock()
	defer mu.RUnlock()

	result := make([]ScenarioInfo, 0, len(factories))
	for id := range factories {
		result = append(result, ScenarioInfo{
			ID:    id,
			Title: titles[id],
		})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result
}

// Create instantiates a scenario by its ID.
// Returns an error if the ID is not registered.
func Create(id string) (Scenario, error) {
	mu.RLock()
	defer mu.RUnlock()

	f, ok := factories[id]
	if !ok {
		return nil, fmt.Errorf("registry: unknown scenario %q", id)
	}

	return f(), nil
}

// Exists checks if a scenario with the given ID is registered.
func Exists(id string) bool {
	mu.RLock()
	defer mu.RUnlock()

	_, ok := factories[id]
	return ok
}

// Generate builds the initial state of the scenario named in cfg.World.
func Generate(cfg config.Config) (*world.State, error) {
	sc, err := Create(cfg.World.Scenario)
	if err != nil {
		return nil, err
	}
	s, err := sc.Generate(cfg)
	if err != nil {
		return nil, fmt.Errorf("registry: %s: %w", sc.ID(), err)
	}
	return s, nil
}
