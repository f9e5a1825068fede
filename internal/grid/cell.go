package grid

import "fmt"

// Kind enumerates the closed set of voxel materials.
type Kind uint8

const (
	Air Kind = iota // empty space
	Rock
	Soil
	Water
	Lava
	Ice
	Organic
)

// String returns a lowercase name for the material kind.
func (k Kind) String() string {
	switch k {
	case Air:
		return "air"
	case Rock:
		return "rock"
	case Soil:
		return "soil"
	case Water:
		return "water"
	case Lava:
		return "lava"
	case Ice:
		return "ice"
	case Organic:
		return "organic"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Kinds lists every material kind in declaration order.
func Kinds() []Kind {
	return []Kind{Air, Rock, Soil, Water, Lava, Ice, Organic}
}

// Material is a material tag. Level is only meaningful for Organic, where it
// records the intensity of life in the cell; it is zero for every other kind.
type Material struct {
	Kind  Kind
	Level uint8
}

// M returns the material of kind k with no intensity.
func M(k Kind) Material {
	return Material{Kind: k}
}

// OrganicLevel returns an Organic material with the given intensity.
func OrganicLevel(level uint8) Material {
	return Material{Kind: Organic, Level: level}
}

// Loose reports whether the material falls into air beneath it.
func (m Material) Loose() bool {
	switch m.Kind {
	case Soil, Organic, Water, Lava:
		return true
	}
	return false
}

// Habitable reports whether populations can live in the material.
func (m Material) Habitable() bool {
	switch m.Kind {
	case Soil, Water, Organic:
		return true
	}
	return false
}

// String formats the material, including the level for Organic.
func (m Material) String() string {
	if m.Kind == Organic {
		return fmt.Sprintf("organic(%d)", m.Level)
	}
	return m.Kind.String()
}

// Cell is one addressable voxel.
type Cell struct {
	Material    Material
	Temperature float64 // degrees Celsius
	Density     float64
	Nutrients   float64 // consumed by populations living in the cell
}

// AirCell returns ambient air.
func AirCell() Cell { return Cell{Material: M(Air), Temperature: 20, Density: 0} }

// RockCell returns bedrock.
func RockCell() Cell { return Cell{Material: M(Rock), Temperature: 15, Density: 2.5} }

// SoilCell returns fertile soil.
func SoilCell() Cell { return Cell{Material: M(Soil), Temperature: 18, Density: 1.2, Nutrients: 50} }

// WaterCell returns liquid water.
func WaterCell() Cell { return Cell{Material: M(Water), Temperature: 10, Density: 1.0, Nutrients: 30} }

// LavaCell returns molten rock.
func LavaCell() Cell { return Cell{Material: M(Lava), Temperature: 1200, Density: 3.1} }

// IceCell returns frozen water.
func IceCell() Cell { return Cell{Material: M(Ice), Temperature: -5, Density: 0.92} }
