package renderer

import "github.com/dshills/gridstorm/internal/input/pointer"

// Default cell footprint on screen.
const (
	DefaultCellWidth  = 8
	DefaultCellHeight = 2
)

// Layout maps between 1-based grid coordinates and 0-based screen
// coordinates. Every grid cell occupies a fixed rectangle; merged
// anchors cover the union of their members' rectangles.
type Layout struct {
	OriginX    int
	OriginY    int
	CellWidth  int
	CellHeight int
}

// DefaultLayout returns the standard grid placement.
func DefaultLayout() Layout {
	return Layout{
		OriginX:    1,
		OriginY:    1,
		CellWidth:  DefaultCellWidth,
		CellHeight: DefaultCellHeight,
	}
}

// CellAt resolves a screen coordinate to the grid position under it.
// Coordinates left of or above the grid origin report false; positions
// beyond the table's extent are the caller's concern.
func (l Layout) CellAt(x, y int) (pointer.Position, bool) {
	if x < l.OriginX || y < l.OriginY {
		return pointer.Position{}, false
	}
	return pointer.Position{
		Row: (y-l.OriginY)/l.CellHeight + 1,
		Col: (x-l.OriginX)/l.CellWidth + 1,
	}, true
}

// CellRect returns the screen rectangle covered by a cell with the
// given spans. Width and height are always at least one footprint.
func (l Layout) CellRect(row, col, rowSpan, colSpan int) (x, y, w, h int) {
	if rowSpan < 1 {
		rowSpan = 1
	}
	if colSpan < 1 {
		colSpan = 1
	}
	x = l.OriginX + (col-1)*l.CellWidth
	y = l.OriginY + (row-1)*l.CellHeight
	return x, y, colSpan * l.CellWidth, rowSpan * l.CellHeight
}
