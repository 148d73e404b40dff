// Package app wires the grid model, merge manager, selection engine
// and persistence bridge into a single editor.
//
// The app assumes single-threaded dispatch: the host delivers one event
// at a time and every operation runs to completion before the next, so
// no operation is ever observed partially applied. Content mutations
// publish the table outward; inbound external updates replace the table
// wholesale and never flow through the merge manager or the selection
// engine.
package app

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dshills/gridstorm/internal/bridge"
	"github.com/dshills/gridstorm/internal/grid"
	"github.com/dshills/gridstorm/internal/grid/merge"
	"github.com/dshills/gridstorm/internal/input/pointer"
	"github.com/dshills/gridstorm/internal/notify"
	"github.com/dshills/gridstorm/internal/selection"
)

// App is the grid editor.
type App struct {
	mu sync.Mutex

	table    *grid.Table
	merger   *merge.Manager
	sel      *selection.Engine
	bridge   *bridge.Bridge
	notifier *notify.Notifier

	notice      NoticeFunc
	rows        int
	cols        int
	initialData string
	graceWindow time.Duration

	ownNotifier bool

	// press tracks the pointer between press and release so a plain
	// click and a drag can be told apart.
	press pressTracker

	// ready flips once the initial-load grace window elapses.
	ready      bool
	graceTimer *time.Timer

	closed bool
}

// pressTracker tracks pointer-press state between events.
type pressTracker struct {
	active   bool
	dragging bool
	cell     grid.CellID
	mods     pointer.Modifier
}

func (p *pressTracker) reset() {
	*p = pressTracker{}
}

// New creates an editor.
//
// When initial data is provided it is loaded synchronously; a default
// table is generated only if no valid payload exists. The initial state
// is published so external mirrors start in sync.
func New(opts ...Option) (*App, error) {
	a := &App{
		rows:        DefaultRows,
		cols:        DefaultCols,
		graceWindow: DefaultGraceWindow,
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.notifier == nil {
		a.notifier = notify.New()
		a.ownNotifier = true
	}
	if a.bridge == nil {
		a.bridge = bridge.New(
			bridge.WithPrimary(bridge.NewMemorySink("primary")),
			bridge.WithNotifier(a.notifier),
		)
	}

	tbl, err := a.initialTable()
	if err != nil {
		return nil, err
	}
	a.table = tbl
	a.merger = merge.NewManager(tbl)
	a.sel = selection.NewEngine(tbl)

	if err := a.bridge.Publish(a.table); err != nil {
		a.noticef("publish failed: %v", err)
	}

	a.graceTimer = time.AfterFunc(a.graceWindow, a.markReady)
	return a, nil
}

// initialTable loads the provided external data, falling back to a
// default table when the data is absent or invalid.
func (a *App) initialTable() (*grid.Table, error) {
	if a.initialData != "" {
		tbl, err := a.bridge.Load(a.initialData)
		if err == nil {
			return tbl, nil
		}
		if !errors.Is(err, bridge.ErrEcho) {
			a.noticef("ignoring invalid external data: %v", err)
		}
	}
	tbl, err := grid.New(a.rows, a.cols)
	if err != nil {
		return nil, fmt.Errorf("default table: %w", err)
	}
	return tbl, nil
}

// Table returns the current table.
func (a *App) Table() *grid.Table {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.table
}

// Selection returns the selection engine.
func (a *App) Selection() *selection.Engine { return a.sel }

// Notifier returns the change notifier.
func (a *App) Notifier() *notify.Notifier { return a.notifier }

// Statistics returns the table's derived counters.
func (a *App) Statistics() grid.Statistics {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.table.Statistics()
}

// Ready reports whether the initial-load grace window has elapsed.
func (a *App) Ready() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ready
}

// SetValue edits a cell's value and publishes.
func (a *App) SetValue(row, col int, text string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.table.SetValue(row, col, text); err != nil {
		a.noticef("edit rejected: %v", err)
		return err
	}
	a.notifier.NotifyCell(notify.KindCellChanged, row, col, "app")
	a.publishLocked()
	return nil
}

// ToggleChecked flips a cell's checkbox and publishes.
func (a *App) ToggleChecked(row, col int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.table.ToggleChecked(row, col); err != nil {
		a.noticef("edit rejected: %v", err)
		return err
	}
	a.notifier.NotifyCell(notify.KindCellChanged, row, col, "app")
	a.publishLocked()
	return nil
}

// MergeSelection merges the currently selected cells into one group.
// On success the group's anchor becomes the sole selection.
func (a *App) MergeSelection() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	anchor, err := a.merger.Merge(a.sel.Selected())
	if err != nil {
		a.noticef("merge rejected: %v", err)
		return err
	}

	a.sel.Clear()
	a.sel.Click(anchor, pointer.ModNone)
	a.notifier.NotifyCell(notify.KindMergeChanged, anchor.Row, anchor.Col, "app")
	a.publishLocked()
	return nil
}

// UnmergeAt dissolves the group containing the cell. A cell without a
// group is a silent no-op and nothing is published.
func (a *App) UnmergeAt(id grid.CellID) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	cell, err := a.table.Cell(id.Row, id.Col)
	if err != nil {
		a.noticef("unmerge rejected: %v", err)
		return err
	}
	if !cell.IsMerged() {
		return nil
	}

	if err := a.merger.Unmerge(id); err != nil {
		a.noticef("unmerge rejected: %v", err)
		return err
	}
	a.notifier.NotifyCell(notify.KindMergeChanged, id.Row, id.Col, "app")
	a.publishLocked()
	return nil
}

// AddRow appends one row and publishes.
func (a *App) AddRow() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.table.AddRow(); err != nil {
		a.noticef("add row rejected: %v", err)
		return err
	}
	a.notifier.NotifyTable(notify.KindTableResized, "app")
	a.publishLocked()
	return nil
}

// AddColumn appends one column and publishes.
func (a *App) AddColumn() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.table.AddColumn(); err != nil {
		a.noticef("add column rejected: %v", err)
		return err
	}
	a.notifier.NotifyTable(notify.KindTableResized, "app")
	a.publishLocked()
	return nil
}

// Regenerate discards the table and creates a fresh default one of the
// given size, clearing the selection.
func (a *App) Regenerate(rows, cols int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	tbl, err := grid.New(rows, cols)
	if err != nil {
		a.noticef("regenerate rejected: %v", err)
		return err
	}
	a.swapTableLocked(tbl)
	a.notifier.NotifyTable(notify.KindTableReplaced, "app")
	a.publishLocked()
	return nil
}

// SetRowCount applies an inbound row-count update. Values are clamped
// to the legal range and write echoes are suppressed by the bridge.
// The model only grows; a count at or below the current one is a no-op.
func (a *App) SetRowCount(n int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	n, apply := a.bridge.AcceptRows(n)
	if !apply || n <= a.table.Rows() {
		return nil
	}
	for a.table.Rows() < n {
		if err := a.table.AddRow(); err != nil {
			a.noticef("resize rejected: %v", err)
			return err
		}
	}
	a.notifier.NotifyTable(notify.KindTableResized, "external")
	a.publishLocked()
	return nil
}

// SetColCount applies an inbound column-count update, like SetRowCount.
func (a *App) SetColCount(n int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	n, apply := a.bridge.AcceptCols(n)
	if !apply || n <= a.table.Cols() {
		return nil
	}
	for a.table.Cols() < n {
		if err := a.table.AddColumn(); err != nil {
			a.noticef("resize rejected: %v", err)
			return err
		}
	}
	a.notifier.NotifyTable(notify.KindTableResized, "external")
	a.publishLocked()
	return nil
}

// LoadExternal applies an inbound payload. Echoes of the app's own
// writes are ignored; malformed payloads surface as a notice and leave
// the model untouched. On success the table is replaced atomically and
// the selection cleared.
func (a *App) LoadExternal(raw string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	tbl, err := a.bridge.Load(raw)
	if err != nil {
		if !errors.Is(err, bridge.ErrEcho) {
			a.noticef("ignoring invalid external data: %v", err)
		}
		return
	}
	a.swapTableLocked(tbl)
	a.notifier.NotifyTable(notify.KindTableReplaced, "external")
}

// SelectAll selects every visible cell.
func (a *App) SelectAll() {
	a.sel.SelectAll()
	a.notifier.NotifyTable(notify.KindSelectionChanged, "app")
}

// ClearSelection empties the selection.
func (a *App) ClearSelection() {
	a.sel.Clear()
	a.notifier.NotifyTable(notify.KindSelectionChanged, "app")
}

// HandlePointer routes an abstract pointer event. A press followed by a
// release on the same cell is a click; moving onto another cell while
// pressed starts a drag. Positions over hidden cells resolve to their
// group's anchor.
func (a *App) HandlePointer(ev pointer.Event) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch ev.Action {
	case pointer.ActionPress:
		if ev.Button != pointer.ButtonLeft {
			return
		}
		id, ok := a.resolveLocked(ev.Position)
		if !ok {
			return
		}
		a.press = pressTracker{active: true, cell: id, mods: ev.Modifiers}

	case pointer.ActionEnter:
		if !a.press.active {
			return
		}
		id, ok := a.resolveLocked(ev.Position)
		if !ok {
			return
		}
		if !a.press.dragging {
			if id == a.press.cell {
				return
			}
			a.press.dragging = true
			a.sel.PointerDown(a.press.cell, a.press.mods)
		}
		a.sel.PointerEnter(id)

	case pointer.ActionRelease:
		if !a.press.active {
			return
		}
		if a.press.dragging {
			a.sel.PointerUp()
		} else {
			a.sel.Click(a.press.cell, a.press.mods)
		}
		a.press.reset()
		a.notifier.NotifyTable(notify.KindSelectionChanged, "app")
	}
}

// Close tears the editor down, canceling the grace and echo-release
// timers. Safe to call more than once.
func (a *App) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return
	}
	a.closed = true
	if a.graceTimer != nil {
		a.graceTimer.Stop()
		a.graceTimer = nil
	}
	a.bridge.Close()
	if a.ownNotifier {
		a.notifier.Close()
	}
}

// swapTableLocked replaces the table and rebinds every component.
func (a *App) swapTableLocked(tbl *grid.Table) {
	a.table = tbl
	a.merger.SetTable(tbl)
	a.sel.SetView(tbl)
}

// resolveLocked maps a grid position to the visible identity covering
// it.
func (a *App) resolveLocked(pos pointer.Position) (grid.CellID, bool) {
	cell, err := a.table.AnchorFor(pos.Row, pos.Col)
	if err != nil {
		return grid.CellID{}, false
	}
	return cell.ID(), true
}

func (a *App) publishLocked() {
	if err := a.bridge.Publish(a.table); err != nil {
		a.noticef("publish failed: %v", err)
	}
}

func (a *App) markReady() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.closed {
		a.ready = true
	}
}

func (a *App) noticef(format string, args ...any) {
	if a.notice != nil {
		a.notice(fmt.Sprintf(format, args...))
	}
}
