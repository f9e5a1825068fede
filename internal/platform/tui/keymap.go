package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/worldsim/internal/core"
)

// ViewerKeyMap defines key bindings for the world viewer.
type ViewerKeyMap struct {
	Pause     key.Binding
	Step      key.Binding
	Rewind    key.Binding
	RewindFar key.Binding
	Forward   key.Binding
	Latest    key.Binding
	LayerUp   key.Binding
	LayerDown key.Binding
	Mode      key.Binding
	Truncate  key.Binding
	Back      key.Binding
	Quit      key.Binding
	Help      key.Binding
}

// ShortHelp returns bindings for the short help view.
func (k ViewerKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Pause, k.Step, k.Rewind, k.Forward, k.LayerUp, k.Mode, k.Help, k.Quit}
}

// FullHelp returns bindings for the full help view.
func (k ViewerKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Pause, k.Step, k.Truncate},
		{k.Rewind, k.RewindFar, k.Forward, k.Latest},
		{k.LayerUp, k.LayerDown, k.Mode},
		{k.Help, k.Back, k.Quit},
	}
}

// DefaultViewerKeyMap returns the default viewer bindings.
func DefaultViewerKeyMap() ViewerKeyMap {
	return ViewerKeyMap{
		Pause: key.NewBinding(
			key.WithKeys(" ", "p"),
			key.WithHelp("space", "pause"),
		),
		Step: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "step"),
		),
		Rewind: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "rewind"),
		),
		RewindFar: key.NewBinding(
			key.WithKeys("shift+left", "H"),
			key.WithHelp("S-←/H", "rewind 10"),
		),
		Forward: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "forward"),
		),
		Latest: key.NewBinding(
			key.WithKeys("end", "G"),
			key.WithHelp("end/G", "latest"),
		),
		LayerUp: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "layer up"),
		),
		LayerDown: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "layer down"),
		),
		Mode: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "overlay"),
		),
		Truncate: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "drop future"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "b"),
			key.WithHelp("esc/b", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
	}
}

// MapKey translates a key message to a viewer action. Far rewinds are
// reported as ActionRewind with far set.
func (k ViewerKeyMap) MapKey(msg tea.KeyMsg) (action core.Action, far bool) {
	switch {
	case key.Matches(msg, k.Quit):
		return core.ActionQuit, false
	case key.Matches(msg, k.Back):
		return core.ActionBack, false
	case key.Matches(msg, k.Pause):
		return core.ActionPause, false
	case key.Matches(msg, k.Step):
		return core.ActionStep, false
	case key.Matches(msg, k.RewindFar):
		return core.ActionRewind, true
	case key.Matches(msg, k.Rewind):
		return core.ActionRewind, false
	case key.Matches(msg, k.Forward):
		return core.ActionForward, false
	case key.Matches(msg, k.Latest):
		return core.ActionLatest, false
	case key.Matches(msg, k.LayerUp):
		return core.ActionLayerUp, false
	case key.Matches(msg, k.LayerDown):
		return core.ActionLayerDown, false
	case key.Matches(msg, k.Mode):
		return core.ActionMode, false
	case key.Matches(msg, k.Truncate):
		return core.ActionTruncate, false
	}
	return core.ActionNone, false
}

// MenuAction represents a menu-specific action derived from input.
type MenuAction int

const (
	MenuActionNone MenuAction = iota
	MenuActionUp
	MenuActionDown
	MenuActionLeft
	MenuActionRight
	MenuActionSelect
	MenuActionRuns
	MenuActionBack
	MenuActionQuit
)

// MapKeyToMenuAction translates a key to a menu action.
func MapKeyToMenuAction(msg tea.KeyMsg) MenuAction {
	switch msg.String() {
	case "ctrl+c", "q":
		return MenuActionQuit
	case "w", "up", "k": // vim-style k for up
		return MenuActionUp
	case "s", "down", "j": // vim-style j for down
		return MenuActionDown
	case "a", "left", "h":
		return MenuActionLeft
	case "d", "right", "l":
		return MenuActionRight
	case "enter", " ":
		return MenuActionSelect
	case "tab":
		return MenuActionRuns
	case "b", "esc":
		return MenuActionBack
	}
	return MenuActionNone
}
