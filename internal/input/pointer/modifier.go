package pointer

import "strings"

// Modifier represents keyboard modifier keys held during a pointer event.
type Modifier uint8

// ModNone indicates no modifiers.
const ModNone Modifier = 0

const (
	// ModShift is the Shift key.
	ModShift Modifier = 1 << iota

	// ModCtrl is the Control key.
	ModCtrl

	// ModAlt is the Alt/Option key.
	ModAlt

	// ModMeta is the Meta/Command/Windows key.
	ModMeta
)

// HasShift returns true if Shift is held.
func (m Modifier) HasShift() bool { return m&ModShift != 0 }

// HasCtrl returns true if Ctrl is held.
func (m Modifier) HasCtrl() bool { return m&ModCtrl != 0 }

// HasAlt returns true if Alt is held.
func (m Modifier) HasAlt() bool { return m&ModAlt != 0 }

// HasMeta returns true if Meta is held.
func (m Modifier) HasMeta() bool { return m&ModMeta != 0 }

// String returns a "+"-joined modifier list, or "none".
func (m Modifier) String() string {
	if m == ModNone {
		return "none"
	}

	var parts []string
	if m.HasCtrl() {
		parts = append(parts, "ctrl")
	}
	if m.HasAlt() {
		parts = append(parts, "alt")
	}
	if m.HasShift() {
		parts = append(parts, "shift")
	}
	if m.HasMeta() {
		parts = append(parts, "meta")
	}
	return strings.Join(parts, "+")
}
