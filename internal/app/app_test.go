package app

import (
	"errors"
	"testing"
	"time"

	"github.com/dshills/gridstorm/internal/bridge"
	"github.com/dshills/gridstorm/internal/grid"
	"github.com/dshills/gridstorm/internal/input/pointer"
	"github.com/dshills/gridstorm/internal/notify"
)

// newApp builds an editor wired to a memory sink so tests can inspect
// what was published.
func newApp(t *testing.T, opts ...Option) (*App, *bridge.MemorySink) {
	t.Helper()

	primary := bridge.NewMemorySink("primary")
	b := bridge.New(bridge.WithPrimary(primary))
	opts = append([]Option{WithBridge(b)}, opts...)

	a, err := New(opts...)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(a.Close)
	return a, primary
}

func press(row, col int, mods pointer.Modifier) pointer.Event {
	return pointer.Event{
		Position:  pointer.Position{Row: row, Col: col},
		Button:    pointer.ButtonLeft,
		Modifiers: mods,
		Action:    pointer.ActionPress,
	}
}

func enter(row, col int) pointer.Event {
	return pointer.Event{
		Position: pointer.Position{Row: row, Col: col},
		Action:   pointer.ActionEnter,
	}
}

func release(row, col int) pointer.Event {
	return pointer.Event{
		Position: pointer.Position{Row: row, Col: col},
		Button:   pointer.ButtonLeft,
		Action:   pointer.ActionRelease,
	}
}

// click delivers a press/release pair on the same cell.
func click(a *App, row, col int, mods pointer.Modifier) {
	a.HandlePointer(press(row, col, mods))
	a.HandlePointer(release(row, col))
}

// drag delivers press at (r1,c1), movement through the given cells and
// release at the last one.
func drag(a *App, r1, c1 int, mods pointer.Modifier, path ...pointer.Position) {
	a.HandlePointer(press(r1, c1, mods))
	last := pointer.Position{Row: r1, Col: c1}
	for _, p := range path {
		a.HandlePointer(enter(p.Row, p.Col))
		last = p
	}
	a.HandlePointer(release(last.Row, last.Col))
}

func TestNewDefaultTable(t *testing.T) {
	a, primary := newApp(t)

	tbl := a.Table()
	if tbl.Rows() != DefaultRows || tbl.Cols() != DefaultCols {
		t.Errorf("size = %dx%d, want %dx%d", tbl.Rows(), tbl.Cols(), DefaultRows, DefaultCols)
	}
	if primary.Writes() != 1 {
		t.Errorf("publishes at construction = %d, want 1", primary.Writes())
	}
}

func TestNewLoadsInitialDataSynchronously(t *testing.T) {
	seed, err := grid.New(3, 5)
	if err != nil {
		t.Fatal(err)
	}
	if err := seed.SetValue(2, 4, "42"); err != nil {
		t.Fatal(err)
	}
	text, err := bridge.Serialize(seed)
	if err != nil {
		t.Fatal(err)
	}

	a, _ := newApp(t, WithInitialData(text))

	tbl := a.Table()
	if tbl.Rows() != 3 || tbl.Cols() != 5 {
		t.Fatalf("size = %dx%d, want 3x5", tbl.Rows(), tbl.Cols())
	}
	cell, _ := tbl.Cell(2, 4)
	if cell.Value != "42" || !cell.Blocked {
		t.Errorf("cell = %+v", cell)
	}
}

func TestNewFallsBackOnInvalidInitialData(t *testing.T) {
	var notices []string
	a, _ := newApp(t,
		WithInitialData(`{"rows": "garbage"}`),
		WithDimensions(6, 7),
		WithNotice(func(msg string) { notices = append(notices, msg) }),
	)

	tbl := a.Table()
	if tbl.Rows() != 6 || tbl.Cols() != 7 {
		t.Errorf("size = %dx%d, want fallback 6x7", tbl.Rows(), tbl.Cols())
	}
	if len(notices) == 0 {
		t.Error("invalid initial data produced no notice")
	}
}

func TestReadyAfterGraceWindow(t *testing.T) {
	a, _ := newApp(t, WithGraceWindow(20*time.Millisecond))

	if a.Ready() {
		t.Fatal("ready before grace window elapsed")
	}
	time.Sleep(60 * time.Millisecond)
	if !a.Ready() {
		t.Error("not ready after grace window elapsed")
	}
}

func TestSetValuePublishes(t *testing.T) {
	a, primary := newApp(t)
	before := primary.Writes()

	if err := a.SetValue(2, 3, "A1"); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	cell, _ := a.Table().Cell(2, 3)
	if cell.Value != "A1" || !cell.Blocked {
		t.Errorf("cell = %+v", cell)
	}
	if primary.Writes() != before+1 {
		t.Errorf("publishes = %d, want %d", primary.Writes(), before+1)
	}
}

func TestSetValueOutOfRangeIsRejected(t *testing.T) {
	var notices []string
	a, primary := newApp(t, WithNotice(func(msg string) { notices = append(notices, msg) }))
	before := primary.Writes()

	err := a.SetValue(99, 99, "x")
	if !errors.Is(err, grid.ErrCellOutOfRange) {
		t.Fatalf("SetValue error = %v, want ErrCellOutOfRange", err)
	}
	if len(notices) != 1 {
		t.Errorf("notices = %v, want exactly one", notices)
	}
	if primary.Writes() != before {
		t.Error("rejected edit still published")
	}
}

func TestClickThenDragSelection(t *testing.T) {
	a, _ := newApp(t)

	click(a, 1, 1, pointer.ModNone)
	if got := a.Selection().Count(); got != 1 {
		t.Fatalf("after click Count = %d, want 1", got)
	}

	// Dragging without shift replaces the click selection.
	drag(a, 2, 2, pointer.ModNone,
		pointer.Position{Row: 3, Col: 2},
		pointer.Position{Row: 4, Col: 3},
	)
	sel := a.Selection().Selected()
	if len(sel) != 6 {
		t.Fatalf("drag selection size = %d, want 6", len(sel))
	}
	if a.Selection().Contains(grid.CellID{Row: 1, Col: 1}) {
		t.Error("plain drag kept the prior click selection")
	}
}

func TestPressAndReleaseOnSameCellIsClick(t *testing.T) {
	a, _ := newApp(t)

	// Entering the pressed cell again must not start a drag.
	a.HandlePointer(press(3, 3, pointer.ModNone))
	a.HandlePointer(enter(3, 3))
	a.HandlePointer(release(3, 3))

	if got := a.Selection().Count(); got != 1 {
		t.Errorf("Count = %d, want 1", got)
	}
	if !a.Selection().Contains(grid.CellID{Row: 3, Col: 3}) {
		t.Error("clicked cell not selected")
	}
}

func TestCtrlClickToggleKeepsFloorOfOne(t *testing.T) {
	a, _ := newApp(t)

	click(a, 1, 1, pointer.ModNone)
	click(a, 2, 2, pointer.ModCtrl)
	if got := a.Selection().Count(); got != 2 {
		t.Fatalf("Count = %d, want 2", got)
	}

	click(a, 2, 2, pointer.ModCtrl)
	click(a, 1, 1, pointer.ModCtrl) // last cell, refused
	if got := a.Selection().Count(); got != 1 {
		t.Errorf("Count = %d, want floor of 1", got)
	}
}

func TestNonLeftPressIsIgnored(t *testing.T) {
	a, _ := newApp(t)

	ev := press(1, 1, pointer.ModNone)
	ev.Button = pointer.ButtonRight
	a.HandlePointer(ev)
	a.HandlePointer(release(1, 1))

	if got := a.Selection().Count(); got != 0 {
		t.Errorf("Count = %d, want 0", got)
	}
}

func TestMergeSelectionSelectsAnchor(t *testing.T) {
	a, primary := newApp(t)

	drag(a, 2, 2, pointer.ModNone, pointer.Position{Row: 3, Col: 3})
	before := primary.Writes()

	if err := a.MergeSelection(); err != nil {
		t.Fatalf("MergeSelection: %v", err)
	}

	anchor, _ := a.Table().Cell(2, 2)
	if !anchor.Anchor || anchor.RowSpan != 2 || anchor.ColSpan != 2 {
		t.Errorf("anchor = %+v", anchor)
	}
	sel := a.Selection().Selected()
	if len(sel) != 1 || sel[0] != (grid.CellID{Row: 2, Col: 2}) {
		t.Errorf("selection after merge = %v, want sole anchor", sel)
	}
	if primary.Writes() != before+1 {
		t.Error("merge did not publish")
	}
}

func TestMergeNonRectangularSelectionRejected(t *testing.T) {
	var notices []string
	a, primary := newApp(t, WithNotice(func(msg string) { notices = append(notices, msg) }))

	// Two disjoint cells accumulated by plain clicks: not a rectangle.
	click(a, 1, 1, pointer.ModNone)
	click(a, 1, 3, pointer.ModNone)
	before := primary.Writes()

	if err := a.MergeSelection(); err == nil {
		t.Fatal("MergeSelection accepted a non-rectangular selection")
	}
	if len(notices) != 1 {
		t.Errorf("notices = %v, want exactly one", notices)
	}
	if primary.Writes() != before {
		t.Error("rejected merge still published")
	}
	if a.Selection().Count() != 2 {
		t.Error("rejected merge changed the selection")
	}
}

func TestUnmergeAtHiddenMember(t *testing.T) {
	a, _ := newApp(t)

	drag(a, 1, 1, pointer.ModNone, pointer.Position{Row: 2, Col: 2})
	if err := a.MergeSelection(); err != nil {
		t.Fatal(err)
	}

	if err := a.UnmergeAt(grid.CellID{Row: 2, Col: 2}); err != nil {
		t.Fatalf("UnmergeAt: %v", err)
	}
	cell, _ := a.Table().Cell(1, 1)
	if cell.IsMerged() {
		t.Error("group survived unmerge")
	}
}

func TestUnmergeAtPlainCellIsNoOp(t *testing.T) {
	a, primary := newApp(t)
	before := primary.Writes()

	if err := a.UnmergeAt(grid.CellID{Row: 1, Col: 1}); err != nil {
		t.Fatalf("UnmergeAt: %v", err)
	}
	if primary.Writes() != before {
		t.Error("no-op unmerge still published")
	}
}

func TestPointerOnHiddenCellResolvesToAnchor(t *testing.T) {
	a, _ := newApp(t)

	drag(a, 1, 1, pointer.ModNone, pointer.Position{Row: 2, Col: 2})
	if err := a.MergeSelection(); err != nil {
		t.Fatal(err)
	}
	a.ClearSelection()

	click(a, 2, 2, pointer.ModNone) // hidden member of the group
	sel := a.Selection().Selected()
	if len(sel) != 1 || sel[0] != (grid.CellID{Row: 1, Col: 1}) {
		t.Errorf("selection = %v, want group anchor (1,1)", sel)
	}
}

func TestAddRowAndColumnPublish(t *testing.T) {
	a, primary := newApp(t, WithDimensions(3, 3))
	before := primary.Writes()

	if err := a.AddRow(); err != nil {
		t.Fatal(err)
	}
	if err := a.AddColumn(); err != nil {
		t.Fatal(err)
	}
	tbl := a.Table()
	if tbl.Rows() != 4 || tbl.Cols() != 4 {
		t.Errorf("size = %dx%d, want 4x4", tbl.Rows(), tbl.Cols())
	}
	if primary.Writes() != before+2 {
		t.Errorf("publishes = %d, want %d", primary.Writes(), before+2)
	}
}

func TestRegenerateReplacesTableAndClearsSelection(t *testing.T) {
	a, _ := newApp(t)

	if err := a.SetValue(1, 1, "7"); err != nil {
		t.Fatal(err)
	}
	click(a, 1, 1, pointer.ModNone)

	if err := a.Regenerate(5, 5); err != nil {
		t.Fatalf("Regenerate: %v", err)
	}
	tbl := a.Table()
	if tbl.Rows() != 5 || tbl.Cols() != 5 {
		t.Errorf("size = %dx%d, want 5x5", tbl.Rows(), tbl.Cols())
	}
	cell, _ := tbl.Cell(1, 1)
	if cell.Value != grid.EmptyValue {
		t.Error("regenerated table kept old content")
	}
	if a.Selection().Count() != 0 {
		t.Error("regenerate kept the selection")
	}
}

func TestSetRowCountGrowsOnly(t *testing.T) {
	a, _ := newApp(t, WithDimensions(5, 5))

	if err := a.SetRowCount(8); err != nil {
		t.Fatal(err)
	}
	if got := a.Table().Rows(); got != 8 {
		t.Fatalf("rows = %d, want 8", got)
	}

	// Shrinking is not supported; smaller inbound counts are ignored.
	if err := a.SetRowCount(3); err != nil {
		t.Fatal(err)
	}
	if got := a.Table().Rows(); got != 8 {
		t.Errorf("rows = %d, want unchanged 8", got)
	}
}

func TestSetRowCountSuppressesWriteEcho(t *testing.T) {
	primary := bridge.NewMemorySink("primary")
	b := bridge.New(bridge.WithPrimary(primary), bridge.WithEchoWindow(time.Hour))
	a, err := New(WithBridge(b), WithDimensions(5, 5))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(a.Close)

	// The construction publish opened the echo window with 5x5; an
	// inbound 5 is the app's own write coming back.
	if err := a.SetRowCount(5); err != nil {
		t.Fatal(err)
	}
	if got := a.Table().Rows(); got != 5 {
		t.Errorf("rows = %d, want 5", got)
	}

	// A genuinely different count applies even inside the window.
	if err := a.SetColCount(9); err != nil {
		t.Fatal(err)
	}
	if got := a.Table().Cols(); got != 9 {
		t.Errorf("cols = %d, want 9", got)
	}
}

func TestLoadExternalReplacesTable(t *testing.T) {
	a, _ := newApp(t)

	click(a, 1, 1, pointer.ModNone)

	foreign, err := grid.New(2, 2)
	if err != nil {
		t.Fatal(err)
	}
	if err := foreign.SetValue(1, 2, "9"); err != nil {
		t.Fatal(err)
	}
	text, err := bridge.Serialize(foreign)
	if err != nil {
		t.Fatal(err)
	}

	a.LoadExternal(text)

	tbl := a.Table()
	if tbl.Rows() != 2 || tbl.Cols() != 2 {
		t.Fatalf("size = %dx%d, want 2x2", tbl.Rows(), tbl.Cols())
	}
	if a.Selection().Count() != 0 {
		t.Error("external replace kept the selection")
	}
}

func TestLoadExternalIgnoresOwnEcho(t *testing.T) {
	a, primary := newApp(t)

	if err := a.SetValue(1, 1, "7"); err != nil {
		t.Fatal(err)
	}
	published := primary.Text()

	a.LoadExternal(published)
	cell, _ := a.Table().Cell(1, 1)
	if cell.Value != "7" {
		t.Error("echo load disturbed the table")
	}
}

func TestLoadExternalMalformedNotices(t *testing.T) {
	var notices []string
	a, _ := newApp(t, WithNotice(func(msg string) { notices = append(notices, msg) }))

	a.LoadExternal(`{"broken`)
	if len(notices) != 1 {
		t.Errorf("notices = %v, want exactly one", notices)
	}
	tbl := a.Table()
	if tbl.Rows() != DefaultRows || tbl.Cols() != DefaultCols {
		t.Error("malformed load disturbed the table")
	}
}

func TestNotificationsCarryKinds(t *testing.T) {
	n := notify.New()
	defer n.Close()

	var kinds []notify.Kind
	n.Subscribe(func(c notify.Change) { kinds = append(kinds, c.Kind) })

	primary := bridge.NewMemorySink("primary")
	b := bridge.New(bridge.WithPrimary(primary), bridge.WithNotifier(n))
	a, err := New(WithBridge(b), WithNotifier(n))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(a.Close)

	kinds = nil // drop the construction publish
	if err := a.SetValue(1, 1, "7"); err != nil {
		t.Fatal(err)
	}

	want := []notify.Kind{notify.KindCellChanged, notify.KindPublished}
	if len(kinds) != len(want) {
		t.Fatalf("kinds = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("kinds = %v, want %v", kinds, want)
		}
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	a, _ := newApp(t)
	a.Close()
	a.Close()
}
