package core

// ViewMode selects what a slice shows.
type ViewMode int

const (
	ViewMaterial ViewMode = iota // material glyphs
	ViewHeat                     // temperature ramp
	ViewLife                     // populations and civilizations over dimmed terrain
)

func (m ViewMode) String() string {
	switch m {
	case ViewMaterial:
		return "material"
	case ViewHeat:
		return "heat"
	case ViewLife:
		return "life"
	default:
		return "unknown"
	}
}

// Next cycles to the following mode.
func (m ViewMode) Next() ViewMode {
	return (m + 1) % 3
}

// ViewConfig contains the viewer's runtime settings.
type ViewConfig struct {
	ScreenW  int // Screen width in characters
	ScreenH  int // Screen height in characters
	TickRate int // Ticks per second while running
	Layer    int // z of the displayed slice; -1 means the middle layer
	Mode     ViewMode
}

// DefaultViewConfig returns a ViewConfig with sensible defaults.
func DefaultViewConfig() ViewConfig {
	return ViewConfig{
		ScreenW:  80,
		ScreenH:  24,
		TickRate: 10,
		Layer:    -1,
		Mode:     ViewMaterial,
	}
}
