package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/worldsim/internal/storage"
)

// Chronicle browser layout constants
const (
	maxRuns = 100 // Max runs to load
)

// ChronicleKeyMap defines the key bindings for the chronicle browser.
type ChronicleKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Back   key.Binding
	Quit   key.Binding
}

// ShortHelp returns bindings for the short help view.
func (k ChronicleKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Select, k.Back, k.Quit}
}

// FullHelp returns bindings for the full help view.
func (k ChronicleKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down, k.Select}, {k.Back, k.Quit}}
}

// DefaultChronicleKeyMap returns the default chronicle bindings.
func DefaultChronicleKeyMap() ChronicleKeyMap {
	return ChronicleKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "scroll down"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open run"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "b"),
			key.WithHelp("esc/b", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ChronicleModel browses recorded runs and their per-tick summaries.
type ChronicleModel struct {
	store     *storage.Store
	runs      []storage.Run
	open      *storage.Run // run whose ticks are shown, nil on the run list
	ticks     []storage.TickRecord
	table     table.Model
	help      help.Model
	keys      ChronicleKeyMap
	width     int
	height    int
	err       error
	quitting  bool
	goingBack bool
}

// NewChronicleModel creates a chronicle browser over store.
func NewChronicleModel(store *storage.Store, width, height int) ChronicleModel {
	m := ChronicleModel{
		store:  store,
		keys:   DefaultChronicleKeyMap(),
		help:   help.New(),
		width:  width,
		height: height,
	}
	m.loadRuns()
	return m
}

func (m *ChronicleModel) loadRuns() {
	m.open = nil
	m.ticks = nil
	if m.store != nil {
		m.runs, m.err = m.store.Runs(maxRuns)
	}
	m.table = m.createTable(runColumns(m.width))
	rows := make([]table.Row, len(m.runs))
	for i, r := range m.runs {
		finished := "live"
		if !r.FinishedAt.IsZero() {
			finished = r.FinishedAt.Format("Jan 02 15:04")
		}
		rows[i] = table.Row{
			fmt.Sprintf("%d", r.ID),
			r.Scenario,
			fmt.Sprintf("%d", r.Seed),
			fmt.Sprintf("%dx%dx%d", r.Width, r.Height, r.Depth),
			fmt.Sprintf("%d", r.Ticks),
			r.StartedAt.Format("Jan 02 15:04"),
			finished,
		}
	}
	m.table.SetRows(rows)
	m.table.GotoTop()
}

func (m *ChronicleModel) loadTicks(r storage.Run) {
	m.ticks, m.err = m.store.RunTicks(r.ID, 0)
	m.open = &r
	m.table = m.createTable(tickColumns(m.width))
	rows := make([]table.Row, len(m.ticks))
	for i, t := range m.ticks {
		rows[i] = table.Row{
			fmt.Sprintf("%d", t.Tick),
			fmt.Sprintf("%d", t.Populations),
			fmt.Sprintf("%d", t.Biomass),
			fmt.Sprintf("%d", t.Civilizations),
			fmt.Sprintf("%d", t.CivPopulation),
			fmt.Sprintf("%.2f", t.AvgTech),
			fmt.Sprintf("%d", t.Wars),
			t.Action,
		}
	}
	m.table.SetRows(rows)
	m.table.GotoTop()
}

func runColumns(width int) []table.Column {
	return []table.Column{
		{Title: "Run", Width: 5},
		{Title: "Scenario", Width: 12},
		{Title: "Seed", Width: 20},
		{Title: "Size", Width: 10},
		{Title: "Ticks", Width: 7},
		{Title: "Started", Width: 13},
		{Title: "Finished", Width: max(width-85, 13)},
	}
}

func tickColumns(width int) []table.Column {
	return []table.Column{
		{Title: "Tick", Width: 6},
		{Title: "Pops", Width: 6},
		{Title: "Biomass", Width: 9},
		{Title: "Civs", Width: 5},
		{Title: "CivPop", Width: 8},
		{Title: "Tech", Width: 6},
		{Title: "Wars", Width: 5},
		{Title: "Action", Width: max(width-61, 20)},
	}
}

// createTable creates a new table with the given columns.
func (m *ChronicleModel) createTable(columns []table.Column) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(max(m.height-8, 3)), // Leave room for header, help, and margins
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return t
}

// Init initializes the chronicle model.
func (m ChronicleModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the chronicle browser.
func (m ChronicleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Back):
			if m.open != nil {
				m.loadRuns()
				return m, nil
			}
			m.goingBack = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Select):
			if m.open == nil && len(m.runs) > 0 {
				m.loadTicks(m.runs[m.table.Cursor()])
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		if m.open != nil {
			m.loadTicks(*m.open)
		} else {
			m.loadRuns()
		}
		return m, nil
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the chronicle browser.
func (m ChronicleModel) View() string {
	if m.quitting || m.goingBack {
		return ""
	}

	var b strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("229"))
	title := "RUN CHRONICLE"
	if m.open != nil {
		title = fmt.Sprintf("RUN %d - %s (seed %d)", m.open.ID, m.open.Scenario, m.open.Seed)
	}
	b.WriteString(centerText(titleStyle.Render(title), m.width))
	b.WriteString("\n\n")

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)
	b.WriteString(boxStyle.Render(m.renderTableContent()))

	b.WriteString("\n")
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	b.WriteString(helpStyle.Render(m.help.View(m.keys)))

	return b.String()
}

// renderTableContent renders the table or an explanatory message.
func (m ChronicleModel) renderTableContent() string {
	emptyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		Italic(true).
		Padding(2, 4)

	switch {
	case m.store == nil:
		return emptyStyle.Render("No chronicle database.\nStart with --db to record runs.")
	case m.err != nil:
		return emptyStyle.Render("Chronicle error:\n" + m.err.Error())
	case m.open == nil && len(m.runs) == 0:
		return emptyStyle.Render("No runs recorded yet.")
	case m.open != nil && len(m.ticks) == 0:
		return emptyStyle.Render("No ticks recorded for this run.")
	}
	return m.table.View()
}

// IsGoingBack returns true if user wants to go back to menu.
func (m ChronicleModel) IsGoingBack() bool {
	return m.goingBack
}

// IsQuitting returns true if user wants to quit entirely.
func (m ChronicleModel) IsQuitting() bool {
	return m.quitting
}

// RunChronicle runs the chronicle browser.
// Returns true if user wants to go back to menu, false if quitting.
func RunChronicle(store *storage.Store, width, height int) (goBack bool, err error) {
	p := tea.NewProgram(
		NewChronicleModel(store, width, height),
		tea.WithAltScreen(),
	)

	finalModel, err := p.Run()
	if err != nil {
		return false, err
	}

	m, ok := finalModel.(ChronicleModel)
	if !ok {
		return false, nil
	}
	return m.IsGoingBack(), nil
}
