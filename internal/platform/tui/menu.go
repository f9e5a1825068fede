package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/worldsim/internal/config"
	"github.com/vovakirdan/worldsim/internal/registry"
)

// MenuItem represents a selectable scenario in the menu.
type MenuItem struct {
	Scenario string
	Title    string
}

// MenuModel is the Bubble Tea model for the scenario picker. Up/down picks
// the scenario, left/right the preset.
type MenuModel struct {
	items    []MenuItem
	presets  []config.Preset
	cursor   int
	preset   int
	width    int
	height   int
	quitting bool
	runs     bool      // True if user pressed Tab for the chronicle
	selected *MenuItem // Set when user selects a scenario
}

// NewMenuModel creates a new menu model. initial preselects a scenario
// and preset when they exist.
func NewMenuModel(width, height int, initialScenario string, initialPreset config.Preset) MenuModel {
	scenarios := registry.List()
	items := make([]MenuItem, 0, len(scenarios))
	m := MenuModel{
		presets: config.Presets(),
		width:   width,
		height:  height,
	}
	for i, sc := range scenarios {
		items = append(items, MenuItem{Scenario: sc.ID, Title: sc.Title})
		if sc.ID == initialScenario {
			m.cursor = i
		}
	}
	m.items = items
	for i, p := range m.presets {
		if p == initialPreset {
			m.preset = i
		}
	}
	if initialPreset == "" {
		for i, p := range m.presets {
			if p == config.PresetBalanced {
				m.preset = i
			}
		}
	}
	return m
}

// Init initializes the menu model.
func (m MenuModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the menu.
func (m MenuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	}

	return m, nil
}

// handleKey processes keyboard input for menu navigation.
func (m MenuModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch MapKeyToMenuAction(msg) {
	case MenuActionQuit, MenuActionBack:
		m.quitting = true
		return m, tea.Quit

	case MenuActionUp:
		if m.cursor > 0 {
			m.cursor--
		}

	case MenuActionDown:
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}

	case MenuActionLeft:
		m.preset = (m.preset + len(m.presets) - 1) % len(m.presets)

	case MenuActionRight:
		m.preset = (m.preset + 1) % len(m.presets)

	case MenuActionSelect:
		if len(m.items) > 0 {
			selected := m.items[m.cursor]
			m.selected = &selected
			return m, tea.Quit
		}

	case MenuActionRuns:
		m.runs = true
		return m, tea.Quit
	}

	return m, nil
}

// View renders the menu.
func (m MenuModel) View() string {
	if m.quitting {
		return ""
	}

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))
	activeStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(centerText(titleStyle.Render("  W O R L D S I M  "), m.width))
	b.WriteString("\n\n")
	b.WriteString(centerText("Select a scenario", m.width))
	b.WriteString("\n\n")

	for i, item := range m.items {
		line := "  " + item.Title
		if i == m.cursor {
			line = activeStyle.Render("> " + item.Title)
		}
		b.WriteString(centerText(line, m.width))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(centerText(fmt.Sprintf("Preset: < %s >", m.Preset()), m.width))
	b.WriteString("\n\n")

	controls := "Up/Down: Scenario  |  Left/Right: Preset  |  Enter: Start  |  Tab: Runs  |  Q: Quit"
	b.WriteString(centerText(dimStyle.Render(controls), m.width))
	b.WriteString("\n")

	return b.String()
}

// Selected returns the selected menu item, or nil if none selected.
func (m MenuModel) Selected() *MenuItem {
	return m.selected
}

// Preset returns the highlighted preset.
func (m MenuModel) Preset() config.Preset {
	if len(m.presets) == 0 {
		return config.PresetBalanced
	}
	return m.presets[m.preset]
}

// IsQuitting returns true if user requested to quit.
func (m MenuModel) IsQuitting() bool {
	return m.quitting
}

// WantsRuns returns true if user requested the chronicle browser.
func (m MenuModel) WantsRuns() bool {
	return m.runs
}

// MenuResult holds the result of running the menu.
type MenuResult struct {
	Scenario  string
	Preset    config.Preset
	Width     int
	Height    int
	WantsRuns bool
	Quit      bool
}

// result summarizes the finished menu.
func (m MenuModel) result() MenuResult {
	r := MenuResult{Preset: m.Preset(), Width: m.width, Height: m.height}
	switch {
	case m.WantsRuns():
		r.WantsRuns = true
	case m.Selected() != nil:
		r.Scenario = m.Selected().Scenario
	default:
		r.Quit = true
	}
	return r
}

// RunMenu runs the menu and returns the selection result.
func RunMenu(width, height int, scenario string, preset config.Preset) (MenuResult, error) {
	p := tea.NewProgram(
		NewMenuModel(width, height, scenario, preset),
		tea.WithAltScreen(),
	)

	finalModel, err := p.Run()
	if err != nil {
		return MenuResult{Quit: true}, err
	}

	m, ok := finalModel.(MenuModel)
	if !ok {
		return MenuResult{Quit: true}, nil
	}
	return m.result(), nil
}
