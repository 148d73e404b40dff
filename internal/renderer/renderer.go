// Package renderer draws the grid editor in a terminal using tcell and
// translates terminal input into the editor's abstract pointer events.
//
// The renderer owns the event loop: it polls the screen, routes mouse
// and key events to the app, and redraws after every event. It runs on
// a single goroutine.
package renderer

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/gridstorm/internal/app"
	"github.com/dshills/gridstorm/internal/grid"
	"github.com/dshills/gridstorm/internal/input/pointer"
)

// Renderer draws the editor and feeds it input.
type Renderer struct {
	screen tcell.Screen
	app    *app.App
	layout Layout

	// Mouse button state from the previous event, for press/drag
	// detection.
	buttons  tcell.ButtonMask
	lastCell pointer.Position

	editing bool
	input   []rune

	notice    string
	noticedAt time.Time

	quit bool
}

// New creates a renderer on a real terminal screen.
func New(a *app.App) (*Renderer, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("create screen: %w", err)
	}
	return NewWithScreen(a, screen), nil
}

// NewWithScreen creates a renderer on the given screen. Used with
// tcell's simulation screen in tests.
func NewWithScreen(a *app.App, screen tcell.Screen) *Renderer {
	return &Renderer{
		screen: screen,
		app:    a,
		layout: DefaultLayout(),
	}
}

// Notice displays a transient message in the status line.
func (r *Renderer) Notice(msg string) {
	r.notice = msg
	r.noticedAt = time.Now()
}

// Run initializes the screen and processes events until quit.
func (r *Renderer) Run() error {
	if err := r.screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	defer r.screen.Fini()

	r.screen.EnableMouse()
	r.draw()

	for !r.quit {
		ev := r.screen.PollEvent()
		if ev == nil {
			return nil
		}
		r.handle(ev)
		r.draw()
	}
	return nil
}

// Stop requests the event loop to exit. Safe from another goroutine;
// the posted event wakes a blocked PollEvent.
func (r *Renderer) Stop() {
	_ = r.screen.PostEvent(tcell.NewEventInterrupt(nil))
}

func (r *Renderer) handle(ev tcell.Event) {
	switch e := ev.(type) {
	case *tcell.EventKey:
		r.handleKey(e)
	case *tcell.EventMouse:
		r.handleMouse(e)
	case *tcell.EventResize:
		r.screen.Sync()
	case *tcell.EventInterrupt:
		r.quit = true
	}
}

func (r *Renderer) handleKey(ev *tcell.EventKey) {
	if r.editing {
		r.handleEditKey(ev)
		return
	}

	switch ev.Key() {
	case tcell.KeyCtrlC, tcell.KeyEscape:
		if ev.Key() == tcell.KeyEscape {
			r.app.ClearSelection()
			return
		}
		r.quit = true
		return
	case tcell.KeyEnter:
		r.beginEdit()
		return
	case tcell.KeyRune:
	default:
		return
	}

	switch ev.Rune() {
	case 'q':
		r.quit = true
	case 'a':
		r.app.SelectAll()
	case 'x':
		r.app.ClearSelection()
	case 'm':
		if err := r.app.MergeSelection(); err != nil {
			r.Notice(err.Error())
		}
	case 'u':
		if id, ok := r.soleSelection(); ok {
			if err := r.app.UnmergeAt(id); err != nil {
				r.Notice(err.Error())
			}
		}
	case 'r':
		if err := r.app.AddRow(); err != nil {
			r.Notice(err.Error())
		}
	case 'c':
		if err := r.app.AddColumn(); err != nil {
			r.Notice(err.Error())
		}
	case ' ':
		if id, ok := r.soleSelection(); ok {
			if err := r.app.ToggleChecked(id.Row, id.Col); err != nil {
				r.Notice(err.Error())
			}
		}
	}
}

func (r *Renderer) handleEditKey(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyEscape:
		r.editing = false
		r.input = nil
	case tcell.KeyEnter:
		r.commitEdit()
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if len(r.input) > 0 {
			r.input = r.input[:len(r.input)-1]
		}
	case tcell.KeyRune:
		r.input = append(r.input, ev.Rune())
	}
}

func (r *Renderer) beginEdit() {
	id, ok := r.soleSelection()
	if !ok {
		r.Notice("select a single cell to edit")
		return
	}
	cell, err := r.app.Table().Cell(id.Row, id.Col)
	if err != nil {
		return
	}
	r.editing = true
	r.input = nil
	if cell.Value != grid.EmptyValue {
		r.input = []rune(cell.Value)
	}
}

func (r *Renderer) commitEdit() {
	defer func() {
		r.editing = false
		r.input = nil
	}()

	id, ok := r.soleSelection()
	if !ok {
		return
	}
	value := string(r.input)
	if value == "" {
		value = grid.EmptyValue
	}
	if err := r.app.SetValue(id.Row, id.Col, value); err != nil {
		r.Notice(err.Error())
	}
}

// handleMouse turns tcell mouse state transitions into pointer events:
// left button newly down is a press, movement to a different cell while
// held is an enter, and letting go is a release.
func (r *Renderer) handleMouse(ev *tcell.EventMouse) {
	x, y := ev.Position()
	pos, onGrid := r.layout.CellAt(x, y)
	mods := translateMods(ev.Modifiers())

	pressed := ev.Buttons()&tcell.Button1 != 0
	wasPressed := r.buttons&tcell.Button1 != 0
	r.buttons = ev.Buttons()

	switch {
	case pressed && !wasPressed:
		if !onGrid {
			return
		}
		r.lastCell = pos
		r.app.HandlePointer(pointer.Event{
			Position:  pos,
			Button:    pointer.ButtonLeft,
			Modifiers: mods,
			Action:    pointer.ActionPress,
			Timestamp: ev.When(),
		})

	case pressed && wasPressed:
		if !onGrid || pos == r.lastCell {
			return
		}
		r.lastCell = pos
		r.app.HandlePointer(pointer.Event{
			Position:  pos,
			Modifiers: mods,
			Action:    pointer.ActionEnter,
			Timestamp: ev.When(),
		})

	case !pressed && wasPressed:
		r.app.HandlePointer(pointer.Event{
			Position:  r.lastCell,
			Button:    pointer.ButtonLeft,
			Modifiers: mods,
			Action:    pointer.ActionRelease,
			Timestamp: ev.When(),
		})
	}
}

// draw renders the full grid and status line.
func (r *Renderer) draw() {
	r.screen.Clear()

	tbl := r.app.Table()
	sel := r.app.Selection()

	for row := 1; row <= tbl.Rows(); row++ {
		for col := 1; col <= tbl.Cols(); col++ {
			cell, err := tbl.Cell(row, col)
			if err != nil || cell.Hidden {
				continue
			}
			r.drawCell(cell, sel.Contains(cell.ID()))
		}
	}

	r.drawStatus(tbl)
	r.screen.Show()
}

func (r *Renderer) drawCell(cell *grid.Cell, selected bool) {
	x, y, w, h := r.layout.CellRect(cell.RowIndex(), cell.ColIndex(), cell.RowSpan, cell.ColSpan)

	style := tcell.StyleDefault
	if cell.Blocked {
		style = style.Foreground(tcell.ColorYellow)
	}
	if cell.Anchor {
		style = style.Bold(true)
	}
	if selected {
		style = style.Reverse(true)
	}

	for dy := 0; dy < h; dy++ {
		for dx := 0; dx < w; dx++ {
			r.screen.SetContent(x+dx, y+dy, ' ', nil, style)
		}
	}

	text := cell.Value
	if r.editing && selected {
		text = string(r.input) + "_"
	}
	if cell.Checked {
		text = "✓" + text
	}
	runes := []rune(text)
	if len(runes) > w-1 {
		runes = runes[:w-1]
	}
	for i, ch := range runes {
		r.screen.SetContent(x+i, y, ch, nil, style)
	}
}

func (r *Renderer) drawStatus(tbl *grid.Table) {
	_, height := r.screen.Size()
	stats := tbl.Statistics()

	line := fmt.Sprintf(" %dx%d  cells:%d blocked:%d merged:%d  sel:%d",
		tbl.Rows(), tbl.Cols(),
		stats.TotalCells, stats.BlockedCells, stats.MergedVisible,
		r.app.Selection().Count())
	if r.editing {
		line += "  editing: " + string(r.input)
	}
	if r.notice != "" && time.Since(r.noticedAt) < 5*time.Second {
		line += "  | " + r.notice
	}

	style := tcell.StyleDefault.Reverse(true)
	width, _ := r.screen.Size()
	runes := []rune(line)
	for x := 0; x < width; x++ {
		ch := ' '
		if x < len(runes) {
			ch = runes[x]
		}
		r.screen.SetContent(x, height-1, ch, nil, style)
	}
}

func (r *Renderer) soleSelection() (grid.CellID, bool) {
	sel := r.app.Selection().Selected()
	if len(sel) != 1 {
		return grid.CellID{}, false
	}
	return sel[0], true
}

// translateMods converts tcell's modifier mask to pointer modifiers.
func translateMods(m tcell.ModMask) pointer.Modifier {
	var mods pointer.Modifier
	if m&tcell.ModShift != 0 {
		mods |= pointer.ModShift
	}
	if m&tcell.ModCtrl != 0 {
		mods |= pointer.ModCtrl
	}
	if m&tcell.ModAlt != 0 {
		mods |= pointer.ModAlt
	}
	if m&tcell.ModMeta != 0 {
		mods |= pointer.ModMeta
	}
	return mods
}
