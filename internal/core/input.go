package core

// Action represents a semantic viewer action, abstracted from physical key
// presses.
type Action int

const (
	ActionNone      Action = iota
	ActionStep             // N - advance one tick while paused
	ActionPause            // Space - pause/resume automatic stepping
	ActionRewind           // Left, H - move the cursor back
	ActionForward          // Right, L - move forward through existing history
	ActionLatest           // End - jump to the newest tick
	ActionLayerUp          // Up, K - show the slice above
	ActionLayerDown        // Down, J - show the slice below
	ActionMode             // Tab - cycle material/heat/life overlay
	ActionTruncate         // T - discard history after the cursor
	ActionBack             // Escape, B - back to menu
	ActionQuit             // Q, Ctrl+C - exit
)

// String returns a human-readable name for the action.
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "None"
	case ActionStep:
		return "Step"
	case ActionPause:
		return "Pause"
	case ActionRewind:
		return "Rewind"
	case ActionForward:
		return "Forward"
	case ActionLatest:
		return "Latest"
	case ActionLayerUp:
		return "LayerUp"
	case ActionLayerDown:
		return "LayerDown"
	case ActionMode:
		return "Mode"
	case ActionTruncate:
		return "Truncate"
	case ActionBack:
		return "Back"
	case ActionQuit:
		return "Quit"
	default:
		return "Unknown"
	}
}
