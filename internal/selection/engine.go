// Package selection implements the selection state machine for the
// grid editor.
//
// The engine tracks the active selection set and any drag-in-progress
// rectangle as explicit named state: current state, selected set, drag
// anchor and pre-drag selection. It is independent of persistence and
// content mutation; it only consults the grid for bounds and cell
// visibility. Selection membership only ever contains visible cell
// identities - merge anchors stand in for their whole group.
package selection

import (
	"sort"
	"sync"

	"github.com/dshills/gridstorm/internal/grid"
	"github.com/dshills/gridstorm/internal/input/pointer"
)

// State identifies the engine's position in the selection lifecycle.
type State uint8

const (
	// StateIdle means no selection and no drag.
	StateIdle State = iota
	// StateActive means a non-empty selection with no drag in progress.
	StateActive
	// StateDragging means the pointer is held and a live rectangle is
	// being selected.
	StateDragging
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateDragging:
		return "dragging"
	default:
		return "idle"
	}
}

// Visibility is the view of the grid the engine needs: bounds plus
// per-cell visibility.
type Visibility interface {
	Rows() int
	Cols() int
	IsVisible(row, col int) bool
}

// Engine is the selection state machine.
type Engine struct {
	mu sync.RWMutex

	view Visibility

	// state is the current machine state.
	state State

	// selected is the committed (or live, while dragging) selection set.
	selected map[grid.CellID]struct{}

	// dragAnchor is the cell where the current drag started.
	dragAnchor grid.CellID

	// preSelection is the selection snapshotted at drag start; the live
	// selection is preSelection union the drag rectangle.
	preSelection map[grid.CellID]struct{}
}

// NewEngine creates an idle engine over the given view.
func NewEngine(view Visibility) *Engine {
	return &Engine{
		view:     view,
		selected: make(map[grid.CellID]struct{}),
	}
}

// SetView rebinds the engine after a table replacement and clears the
// selection.
func (e *Engine) SetView(view Visibility) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.view = view
	e.reset()
}

// State returns the current machine state.
func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Count returns the number of selected cells.
func (e *Engine) Count() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.selected)
}

// Contains reports whether the cell is in the selection.
func (e *Engine) Contains(id grid.CellID) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.selected[id]
	return ok
}

// Selected returns the selection in row-major order.
func (e *Engine) Selected() []grid.CellID {
	e.mu.RLock()
	defer e.mu.RUnlock()

	ids := make([]grid.CellID, 0, len(e.selected))
	for id := range e.selected {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })
	return ids
}

// Click handles a click on a cell.
//
// From idle the cell becomes the sole selection. From active, a plain
// click accumulates (clicking an already-selected cell is a no-op), and
// a ctrl-click toggles membership except that removing the last
// selected cell is refused. Clicks on hidden or out-of-range cells are
// ignored.
func (e *Engine) Click(id grid.CellID, mods pointer.Modifier) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.visible(id) || e.state == StateDragging {
		return
	}

	if e.state == StateIdle {
		e.selected = map[grid.CellID]struct{}{id: {}}
		e.state = StateActive
		return
	}

	if mods.HasCtrl() {
		if _, ok := e.selected[id]; ok {
			// Floor of one: never empty the selection via toggle.
			if len(e.selected) > 1 {
				delete(e.selected, id)
			}
		} else {
			e.selected[id] = struct{}{}
		}
		return
	}

	e.selected[id] = struct{}{}
}

// PointerDown starts a drag at the given cell. With shift held the
// current selection is kept and the drag rectangle unions with it;
// otherwise the drag replaces the selection. Ignored for hidden or
// out-of-range cells.
func (e *Engine) PointerDown(id grid.CellID, mods pointer.Modifier) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.visible(id) || e.state == StateDragging {
		return
	}

	e.preSelection = make(map[grid.CellID]struct{})
	if mods.HasShift() {
		for sel := range e.selected {
			e.preSelection[sel] = struct{}{}
		}
	}
	e.dragAnchor = id
	e.state = StateDragging
	e.recomputeDrag(id)
}

// PointerEnter updates the live rectangle while dragging. The rectangle
// spans the drag anchor and the entered cell and is recomputed in full
// on every call, so direction reversals shrink it correctly. The cost
// is bounded by the rectangle's area.
func (e *Engine) PointerEnter(id grid.CellID) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateDragging {
		return
	}
	if id.Row < 1 || id.Row > e.view.Rows() || id.Col < 1 || id.Col > e.view.Cols() {
		return
	}
	e.recomputeDrag(id)
}

// PointerUp commits the live selection and ends the drag. Safe to call
// regardless of where the pointer was released.
func (e *Engine) PointerUp() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateDragging {
		return
	}

	e.preSelection = nil
	e.dragAnchor = grid.CellID{}
	if len(e.selected) > 0 {
		e.state = StateActive
	} else {
		e.state = StateIdle
	}
}

// SelectAll selects every visible cell, from any state.
func (e *Engine) SelectAll() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.selected = make(map[grid.CellID]struct{})
	for r := 1; r <= e.view.Rows(); r++ {
		for c := 1; c <= e.view.Cols(); c++ {
			if e.view.IsVisible(r, c) {
				e.selected[grid.CellID{Row: r, Col: c}] = struct{}{}
			}
		}
	}
	e.preSelection = nil
	e.dragAnchor = grid.CellID{}
	if len(e.selected) > 0 {
		e.state = StateActive
	} else {
		e.state = StateIdle
	}
}

// Clear empties the selection and returns to idle.
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reset()
}

// recomputeDrag rebuilds the live selection as preSelection union the
// visible cells of rectangle(dragAnchor, target).
func (e *Engine) recomputeDrag(target grid.CellID) {
	live := make(map[grid.CellID]struct{}, len(e.preSelection))
	for id := range e.preSelection {
		live[id] = struct{}{}
	}

	r1, r2 := ordered(e.dragAnchor.Row, target.Row)
	c1, c2 := ordered(e.dragAnchor.Col, target.Col)
	for r := r1; r <= r2; r++ {
		for c := c1; c <= c2; c++ {
			if e.view.IsVisible(r, c) {
				live[grid.CellID{Row: r, Col: c}] = struct{}{}
			}
		}
	}
	e.selected = live
}

func (e *Engine) visible(id grid.CellID) bool {
	return e.view.IsVisible(id.Row, id.Col)
}

func (e *Engine) reset() {
	e.selected = make(map[grid.CellID]struct{})
	e.preSelection = nil
	e.dragAnchor = grid.CellID{}
	e.state = StateIdle
}

func ordered(a, b int) (int, int) {
	if a > b {
		return b, a
	}
	return a, b
}
