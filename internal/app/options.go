package app

import (
	"time"

	"github.com/dshills/gridstorm/internal/bridge"
	"github.com/dshills/gridstorm/internal/notify"
)

// Default table dimensions used when no external data exists.
const (
	DefaultRows = 10
	DefaultCols = 10
)

// DefaultGraceWindow is how long after construction the app marks the
// initial load complete.
const DefaultGraceWindow = 100 * time.Millisecond

// NoticeFunc receives user-visible notices for rejected operations.
type NoticeFunc func(msg string)

// Option configures an App.
type Option func(*App)

// WithDimensions sets the default table size used when no valid
// external data exists.
func WithDimensions(rows, cols int) Option {
	return func(a *App) {
		a.rows = rows
		a.cols = cols
	}
}

// WithBridge sets a preconfigured persistence bridge.
func WithBridge(b *bridge.Bridge) Option {
	return func(a *App) { a.bridge = b }
}

// WithNotifier sets the change notifier. The app creates and owns one
// when unset.
func WithNotifier(n *notify.Notifier) Option {
	return func(a *App) { a.notifier = n }
}

// WithNotice sets the callback for user-visible notices.
func WithNotice(f NoticeFunc) Option {
	return func(a *App) { a.notice = f }
}

// WithInitialData provides external payload text to load synchronously
// at construction. The default table is generated only when this is
// absent or invalid, which removes the load-versus-initialize race.
func WithInitialData(raw string) Option {
	return func(a *App) { a.initialData = raw }
}

// WithGraceWindow overrides the initial-load-complete window.
func WithGraceWindow(d time.Duration) Option {
	return func(a *App) {
		if d > 0 {
			a.graceWindow = d
		}
	}
}
