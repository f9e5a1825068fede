package tui

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/worldsim/internal/core"
	"github.com/vovakirdan/worldsim/internal/session"
	"github.com/vovakirdan/worldsim/internal/timeline"
)

// rewindFar is how many ticks a far rewind moves.
const rewindFar = 10

// Model is the Bubble Tea model for viewing and steering one simulation.
type Model struct {
	sess       *session.Session
	screen     *core.Screen
	config     core.ViewConfig
	keys       ViewerKeyMap
	help       help.Model
	paused     bool
	status     string
	quitting   bool
	backToMenu bool
}

// NewModel creates a viewer over sess. The session stays owned by the
// caller.
func NewModel(sess *session.Session, cfg core.ViewConfig) Model {
	if cfg.Layer < 0 || cfg.Layer >= sess.Config().World.Depth {
		cfg.Layer = sess.Config().World.Depth / 2
	}
	m := Model{
		sess:   sess,
		config: cfg,
		keys:   DefaultViewerKeyMap(),
		help:   help.New(),
	}
	m.help.Width = cfg.ScreenW
	m.screen = core.NewScreen(cfg.ScreenW, m.screenHeight())
	return m
}

// Init starts the tick loop.
func (m Model) Init() tea.Cmd {
	return tickCmd(m.config.TickRate)
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.config.ScreenW = msg.Width
		m.config.ScreenH = msg.Height
		m.help.Width = msg.Width
		m.screen.Resize(msg.Width, m.screenHeight())
		return m, nil

	case TickMsg:
		if !m.paused {
			m.advance()
		}
		return m, tickCmd(m.config.TickRate)
	}

	return m, nil
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+s" {
		m.saveScreenshot()
		return m, nil
	}
	if msg.String() == "?" {
		m.help.ShowAll = !m.help.ShowAll
		m.screen.Resize(m.config.ScreenW, m.screenHeight())
		return m, nil
	}

	action, far := m.keys.MapKey(msg)
	depth := m.sess.Config().World.Depth

	switch action {
	case core.ActionQuit:
		m.quitting = true
		return m, tea.Quit
	case core.ActionBack:
		m.backToMenu = true
		return m, tea.Quit
	case core.ActionPause:
		m.paused = !m.paused
		m.status = ""
	case core.ActionStep:
		m.paused = true
		m.step()
	case core.ActionRewind:
		m.paused = true
		n := uint64(1)
		if far {
			n = rewindFar
		}
		before := m.sess.Cursor().Tick
		after := m.sess.Rewind(n)
		m.status = fmt.Sprintf("rewound %d", before-after)
	case core.ActionForward:
		m.paused = true
		if !m.sess.Forward() {
			m.status = "at latest"
		}
	case core.ActionLatest:
		m.sess.FastForward()
		m.status = ""
	case core.ActionLayerUp:
		m.config.Layer = core.Clamp(m.config.Layer+1, 0, depth-1)
	case core.ActionLayerDown:
		m.config.Layer = core.Clamp(m.config.Layer-1, 0, depth-1)
	case core.ActionMode:
		m.config.Mode = m.config.Mode.Next()
	case core.ActionTruncate:
		dropped := m.sess.Latest() - m.sess.Cursor().Tick
		if err := m.sess.Truncate(); err != nil {
			m.status = err.Error()
		} else {
			m.status = fmt.Sprintf("dropped %d ticks", dropped)
		}
	}
	return m, nil
}

// advance plays forward: through stored history while behind the latest
// tick, by simulating once at it.
func (m *Model) advance() {
	if m.sess.Forward() {
		return
	}
	m.step()
}

// step simulates one tick from the cursor.
func (m *Model) step() {
	if _, err := m.sess.Step(); err != nil {
		m.paused = true
		if errors.Is(err, timeline.ErrFutureExists) {
			m.status = "future exists: press t to drop it"
			return
		}
		m.status = err.Error()
		return
	}
	m.status = ""
}

// screenHeight leaves room for the help footer.
func (m Model) screenHeight() int {
	lines := 1
	if m.help.ShowAll {
		lines = 4
	}
	return max(m.config.ScreenH-lines, 0)
}

// draw renders the header and the current slice into the screen buffer.
func (m Model) draw() {
	scr := m.screen
	scr.Clear()

	st, err := m.sess.Current()
	if err != nil {
		scr.DrawText(0, 0, err.Error(), core.ColorRed)
		return
	}
	cfg := m.sess.Config()
	cur := m.sess.Cursor()

	state := "running"
	if m.paused {
		state = "paused"
	}
	header := fmt.Sprintf("%s seed %d | timeline %d tick %d/%d (oldest %d) | %s | z=%d/%d | %v",
		cfg.World.Scenario, cfg.World.Seed, cur.Timeline, cur.Tick, m.sess.Latest(), m.sess.Oldest(),
		state, m.config.Layer, cfg.World.Depth-1, m.config.Mode)
	scr.DrawText(0, 0, header, core.ColorBrightYellow)

	info := fmt.Sprintf("civs %d (pop %d) | populations %d (biomass %d) | last: %v",
		len(st.Civilizations), st.CivPopulation(), len(st.Populations), st.Biomass(), m.sess.LastReport().Action)
	if m.status != "" {
		info += " | " + m.status
	}
	scr.DrawText(0, 1, info, core.ColorDefault)

	frame := core.NewRect(0, 2, scr.Width(), scr.Height()-2)
	scr.DrawBox(frame, core.ColorGray)
	area := frame.Inset(1)

	w, h := st.Grid.Width(), st.Grid.Height()
	ox := core.Scroll(w, area.W, w/2)
	oy := core.Scroll(h, area.H, h/2)
	core.DrawSlice(scr, area, st, m.config.Layer, m.config.Mode, ox, oy)
}

// saveScreenshot saves the current screen to a file.
func (m *Model) saveScreenshot() {
	m.draw()

	dir := filepath.Join(os.Getenv("HOME"), ".worldsim", "screenshots")
	//nolint:errcheck // Best-effort directory creation
	os.MkdirAll(dir, 0o755)

	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("%s_t%d_%s.txt", m.sess.Config().World.Scenario, m.sess.Cursor().Tick, timestamp)
	path := filepath.Join(dir, filename)

	//nolint:errcheck // Best-effort save
	os.WriteFile(path, []byte(m.screen.String()), 0o600)
	m.status = "saved " + filename
}

// View renders the current state to a string for display.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	m.draw()
	return RenderScreen(m.screen) + "\n" + m.help.View(m.keys)
}

// Paused reports whether automatic stepping is off.
func (m Model) Paused() bool {
	return m.paused
}

// Layer returns the displayed z.
func (m Model) Layer() int {
	return m.config.Layer
}

// IsQuitting returns true if user requested to quit entirely.
func (m Model) IsQuitting() bool {
	return m.quitting
}

// BackToMenu returns true if user requested to go back to menu.
func (m Model) BackToMenu() bool {
	return m.backToMenu
}

// Run starts the Bubble Tea program for sess.
// Returns true if user wants to go back to menu.
func Run(sess *session.Session, cfg core.ViewConfig) (backToMenu bool, err error) {
	p := tea.NewProgram(
		NewModel(sess, cfg),
		tea.WithAltScreen(),
	)
	finalModel, err := p.Run()
	if err != nil {
		return false, err
	}
	m, ok := finalModel.(Model)
	if !ok {
		return false, nil
	}
	return m.BackToMenu(), nil
}
