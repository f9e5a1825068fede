package core

import (
	"fmt"
	"io"
	"strings"

	"github.com/vovakirdan/worldsim/internal/grid"
	"github.com/vovakirdan/worldsim/internal/rules"
	"github.com/vovakirdan/worldsim/internal/world"
)

// MaterialRune returns the slice glyph of a material.
func MaterialRune(m grid.Material) rune {
	switch m.Kind {
	case grid.Air:
		return '.'
	case grid.Rock:
		return '#'
	case grid.Soil:
		return ':'
	case grid.Water:
		return '~'
	case grid.Lava:
		return '*'
	case grid.Ice:
		return 'i'
	case grid.Organic:
		return 'o'
	default:
		return '?'
	}
}

// WriteSummary prints the periodic tick summary: civilizations (the first
// three in detail), biomass, agent temperament, last action and physics.
func WriteSummary(w io.Writer, s *world.State, last rules.Action) {
	fmt.Fprintf(w, "\n========== TICK %d ==========\n", s.Tick)

	civs := s.Civilizations
	fmt.Fprintf(w, "Civilizations: %d\n", len(civs))
	if len(civs) > 0 {
		var tech float64
		for _, c := range civs {
			tech += c.Tech
		}
		fmt.Fprintf(w, "  Avg Tech Level: %.2f\n", tech/float64(len(civs)))
		fmt.Fprintf(w, "  Total Civ Population: %d\n", s.CivPopulation())
		for _, c := range civs[:min(len(civs), 3)] {
			fmt.Fprintf(w, "  - %s at %v pop:%d tech:%.2f agg:%.2f spirit:%.2f\n",
				c.Name, c.Pos, c.Population, c.Tech, c.Aggression, c.Spirituality)
		}
		if len(civs) > 3 {
			fmt.Fprintf(w, "  ... and %d more\n", len(civs)-3)
		}
	}

	fmt.Fprintf(w, "Populations: %d (Total Biomass: %d)\n", len(s.Populations), s.Biomass())

	a := s.Agent
	fmt.Fprintf(w, "Agent: curiosity:%.2f benevolence:%.2f cruelty:%.2f boredom:%.2f\n",
		a.Curiosity, a.Benevolence, a.Cruelty, a.Boredom)
	fmt.Fprintf(w, "Last Action: %v\n", last)
	fmt.Fprintf(w, "Physics: heat_diff:%.3f cooling:%.3f\n", s.Physics.HeatDiffusion, s.Physics.Cooling)
	fmt.Fprintln(w, "==============================")
}

// WriteSlice prints the horizontal slice at z, highest y first.
func WriteSlice(w io.Writer, g *grid.Grid, z int) error {
	if z < 0 || z >= g.Depth() {
		return fmt.Errorf("%w: slice z=%d, depth %d", grid.ErrOutOfBounds, z, g.Depth())
	}

	fmt.Fprintf(w, "\n--- World Slice at Z=%d ---\n", z)
	var sb strings.Builder
	for y := g.Height() - 1; y >= 0; y-- {
		sb.Reset()
		for x := 0; x < g.Width(); x++ {
			i, _ := g.Index(x, y, z)
			sb.WriteRune(MaterialRune(g.CellAt(i).Material))
		}
		fmt.Fprintln(w, sb.String())
	}
	fmt.Fprintln(w, "----------------------------")
	return nil
}

// WriteDetailedReport prints world statistics, the species catalog and
// every civilization.
func WriteDetailedReport(w io.Writer, s *world.State) {
	fmt.Fprintln(w, "\n========== DETAILED REPORT ==========")

	counts := make(map[grid.Kind]int)
	var temp float64
	s.Grid.Each(func(_ int, c grid.Cell) {
		counts[c.Material.Kind]++
		temp += c.Temperature
	})

	width, height, depth := s.Grid.Dims()
	fmt.Fprintf(w, "World: %dx%dx%d\n", width, height, depth)
	fmt.Fprintf(w, "Average Temperature: %.2f°C\n", temp/float64(s.Grid.Len()))
	fmt.Fprintln(w, "Material Distribution:")
	for _, k := range grid.Kinds() {
		if n := counts[k]; n > 0 {
			fmt.Fprintf(w, "  %v: %d\n", k, n)
		}
	}

	fmt.Fprintf(w, "\nSpecies: %d\n", len(s.Species))
	for _, sp := range s.Species {
		fmt.Fprintf(w, "  Species #%d: metabolism:%.2f repro:%.2f mobility:%.2f pref_temp:%.2f\n",
			sp.ID, sp.Metabolism, sp.Reproduction, sp.Mobility, sp.PreferredTemp)
	}

	fmt.Fprintf(w, "\nCivilizations: %d\n", len(s.Civilizations))
	for _, c := range s.Civilizations {
		fmt.Fprintf(w, "  %s: pop:%d tech:%.2f aggression:%.2f spirituality:%.2f at %v\n",
			c.Name, c.Population, c.Tech, c.Aggression, c.Spirituality, c.Pos)
	}

	fmt.Fprintln(w, "=====================================")
}

// DrawSlice draws the slice at z into area, highest y on top. (ox, oy) is
// the grid column and row shown at the area's left and bottom edge.
func DrawSlice(scr *Screen, area Rect, s *world.State, z int, mode ViewMode, ox, oy int) {
	g := s.Grid
	if z < 0 || z >= g.Depth() {
		return
	}

	var life map[grid.Coord]rune
	if mode == ViewLife {
		life = make(map[grid.Coord]rune)
		for _, p := range s.Populations {
			if p.Pos.Z == z {
				life[p.Pos] = 'p'
			}
		}
		for _, c := range s.Civilizations {
			if c.Pos.Z == z {
				life[c.Pos] = '@'
			}
		}
	}

	for row := 0; row < area.H; row++ {
		y := oy + area.H - 1 - row
		for col := 0; col < area.W; col++ {
			x := ox + col
			if !g.InBounds(x, y, z) {
				continue
			}
			i, _ := g.Index(x, y, z)
			c := g.CellAt(i)
			r, color := MaterialRune(c.Material), MaterialColor(c.Material)
			switch mode {
			case ViewHeat:
				color = HeatColor(c.Temperature)
			case ViewLife:
				color = ColorGray
				if l, ok := life[grid.C(x, y, z)]; ok {
					r = l
					color = ColorBrightGreen
					if l == '@' {
						color = ColorBrightYellow
					}
				}
			}
			scr.SetColored(area.X+col, area.Y+row, r, color)
		}
	}
}
