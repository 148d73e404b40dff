// Package pointer defines the abstract pointer event contract consumed
// by the selection engine and the application. Events carry a grid
// position and modifier flags; translating host/terminal events into
// this contract is the renderer's job.
package pointer

import "time"

// Button represents a pointer button.
type Button uint8

const (
	// ButtonNone indicates no button.
	ButtonNone Button = iota
	// ButtonLeft is the primary button.
	ButtonLeft
	// ButtonMiddle is the middle button.
	ButtonMiddle
	// ButtonRight is the secondary button.
	ButtonRight
)

// String returns a string representation of the button.
func (b Button) String() string {
	switch b {
	case ButtonLeft:
		return "left"
	case ButtonMiddle:
		return "middle"
	case ButtonRight:
		return "right"
	default:
		return "none"
	}
}

// Action represents the type of pointer action.
type Action uint8

const (
	// ActionNone indicates no action.
	ActionNone Action = iota
	// ActionPress indicates a button press.
	ActionPress
	// ActionRelease indicates a button release.
	ActionRelease
	// ActionEnter indicates the pointer entered a cell while held.
	ActionEnter
)

// String returns a string representation of the action.
func (a Action) String() string {
	switch a {
	case ActionPress:
		return "press"
	case ActionRelease:
		return "release"
	case ActionEnter:
		return "enter"
	default:
		return "none"
	}
}

// Position is a 1-based grid coordinate.
type Position struct {
	Row int
	Col int
}

// Equal returns true if two positions are equal.
func (p Position) Equal(other Position) bool {
	return p.Row == other.Row && p.Col == other.Col
}

// Event represents a pointer input event over the grid.
type Event struct {
	// Position is the grid cell under the pointer.
	Position Position

	// Button is the pointer button involved.
	Button Button

	// Modifiers are the keyboard modifiers held during the event.
	Modifiers Modifier

	// Action is the type of pointer action.
	Action Action

	// Timestamp is when the event occurred.
	Timestamp time.Time
}
