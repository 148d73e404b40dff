package grid

import "strings"

// EmptyValue is the sentinel value that marks a cell as empty/unblocked.
const EmptyValue = "-"

// CellID identifies a cell by its 1-based (row, column) coordinates.
type CellID struct {
	Row int
	Col int
}

// Less orders ids by row, then column.
func (id CellID) Less(other CellID) bool {
	if id.Row != other.Row {
		return id.Row < other.Row
	}
	return id.Col < other.Col
}

// Cell is a single entry in the table.
//
// The identity is immutable once assigned; all other fields are mutable
// through Table operations and the merge manager.
type Cell struct {
	id CellID

	// Value is the cell's text code. EmptyValue means empty/unblocked.
	Value string

	// Blocked is derived from Value unless explicitly overridden on load.
	Blocked bool

	// Checked is an independent toggle shared across a merge group.
	Checked bool

	// MergeID is the group key, empty when the cell is unmerged.
	MergeID string

	// Anchor marks the single visible cell of a merge group.
	Anchor bool

	// Hidden marks merged-away cells covered by their group's anchor.
	Hidden bool

	// RowSpan and ColSpan are >= 1 and exceed 1 only on an anchor.
	RowSpan int
	ColSpan int
}

// newCell creates a default unmerged, unblocked cell at the given position.
func newCell(row, col int) *Cell {
	return &Cell{
		id:      CellID{Row: row, Col: col},
		Value:   EmptyValue,
		RowSpan: 1,
		ColSpan: 1,
	}
}

// ID returns the cell's immutable identity.
func (c *Cell) ID() CellID { return c.id }

// RowIndex returns the cell's 1-based row index.
func (c *Cell) RowIndex() int { return c.id.Row }

// ColIndex returns the cell's 1-based column index.
func (c *Cell) ColIndex() int { return c.id.Col }

// IsMerged returns true if the cell belongs to a merge group.
func (c *Cell) IsMerged() bool { return c.MergeID != "" }

// Reset restores the cell to unmerged state, keeping value and toggles.
func (c *Cell) Reset() {
	c.MergeID = ""
	c.Anchor = false
	c.Hidden = false
	c.RowSpan = 1
	c.ColSpan = 1
}

// clone returns a copy of the cell, preserving identity.
func (c *Cell) clone() *Cell {
	dup := *c
	return &dup
}

// IsBlockedValue reports whether a value marks its cell as blocked.
// A cell is blocked iff the trimmed value is neither empty nor the
// EmptyValue sentinel.
func IsBlockedValue(s string) bool {
	t := strings.TrimSpace(s)
	return t != "" && t != EmptyValue
}
