package core

import "github.com/vovakirdan/worldsim/internal/grid"

// Color represents a foreground color for a screen cell.
// The platform maps each value to an ANSI color.
type Color uint8

// Predefined colors.
const (
	ColorDefault Color = iota
	ColorRed
	ColorGreen
	ColorYellow
	ColorBlue
	ColorMagenta
	ColorCyan
	ColorWhite
	ColorBrightRed
	ColorBrightGreen
	ColorBrightYellow
	ColorBrightBlue
	ColorBrightCyan
	ColorOrange
	ColorGray
)

// MaterialColor returns the display color of a material.
func MaterialColor(m grid.Material) Color {
	switch m.Kind {
	case grid.Air:
		return ColorGray
	case grid.Rock:
		return ColorWhite
	case grid.Soil:
		return ColorYellow
	case grid.Water:
		return ColorBlue
	case grid.Lava:
		return ColorBrightRed
	case grid.Ice:
		return ColorBrightCyan
	case grid.Organic:
		if m.Level > 128 {
			return ColorBrightGreen
		}
		return ColorGreen
	default:
		return ColorDefault
	}
}

// HeatColor buckets a temperature into a cold-to-hot ramp.
func HeatColor(t float64) Color {
	switch {
	case t <= 0:
		return ColorBrightCyan
	case t < 15:
		return ColorBlue
	case t < 30:
		return ColorGreen
	case t < 100:
		return ColorYellow
	case t < 700:
		return ColorOrange
	default:
		return ColorBrightRed
	}
}
