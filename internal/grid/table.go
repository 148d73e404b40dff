package grid

import (
	"fmt"
	"time"
)

// Dimension bounds for rows and columns.
const (
	MinDimension = 1
	MaxDimension = 100
)

// Table is a rectangular matrix of cells with 1-based addressing.
type Table struct {
	cells [][]*Cell

	// CreatedAt and UpdatedAt track table lifecycle timestamps.
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidDimension reports whether n is a legal row or column count.
func ValidDimension(n int) bool {
	return n >= MinDimension && n <= MaxDimension
}

// New creates a table of the given size with all cells default and
// unblocked. Returns ErrDimensionOutOfRange outside [1,100].
func New(rows, cols int) (*Table, error) {
	if !ValidDimension(rows) || !ValidDimension(cols) {
		return nil, fmt.Errorf("%w: %dx%d", ErrDimensionOutOfRange, rows, cols)
	}

	now := time.Now()
	t := &Table{
		cells:     make([][]*Cell, rows),
		CreatedAt: now,
		UpdatedAt: now,
	}
	for r := 0; r < rows; r++ {
		t.cells[r] = make([]*Cell, cols)
		for c := 0; c < cols; c++ {
			t.cells[r][c] = newCell(r+1, c+1)
		}
	}
	return t, nil
}

// Rows returns the row count.
func (t *Table) Rows() int { return len(t.cells) }

// Cols returns the column count.
func (t *Table) Cols() int {
	if len(t.cells) == 0 {
		return 0
	}
	return len(t.cells[0])
}

// InRange reports whether the 1-based address lies within the table.
func (t *Table) InRange(row, col int) bool {
	return row >= 1 && row <= t.Rows() && col >= 1 && col <= t.Cols()
}

// Cell returns the cell at the 1-based address.
func (t *Table) Cell(row, col int) (*Cell, error) {
	if !t.InRange(row, col) {
		return nil, fmt.Errorf("%w: (%d,%d)", ErrCellOutOfRange, row, col)
	}
	return t.cells[row-1][col-1], nil
}

// AddRow appends one row of default cells, preserving every existing
// cell. Returns ErrDimensionOutOfRange past the size ceiling.
func (t *Table) AddRow() error {
	rows := t.Rows()
	if rows+1 > MaxDimension {
		return fmt.Errorf("%w: %d rows", ErrDimensionOutOfRange, rows+1)
	}

	row := make([]*Cell, t.Cols())
	for c := 0; c < t.Cols(); c++ {
		row[c] = newCell(rows+1, c+1)
	}
	t.cells = append(t.cells, row)
	t.touch()
	return nil
}

// AddColumn appends one column of default cells, preserving every
// existing cell. Returns ErrDimensionOutOfRange past the size ceiling.
func (t *Table) AddColumn() error {
	cols := t.Cols()
	if cols+1 > MaxDimension {
		return fmt.Errorf("%w: %d columns", ErrDimensionOutOfRange, cols+1)
	}

	for r := range t.cells {
		t.cells[r] = append(t.cells[r], newCell(r+1, cols+1))
	}
	t.touch()
	return nil
}

// SetValue sets the cell's value and recomputes its blocked flag. If
// the cell belongs to a merge group, value and blocked propagate to
// every member of the group.
func (t *Table) SetValue(row, col int, text string) error {
	cell, err := t.Cell(row, col)
	if err != nil {
		return err
	}

	blocked := IsBlockedValue(text)
	for _, member := range t.groupOf(cell) {
		member.Value = text
		member.Blocked = blocked
	}
	t.touch()
	return nil
}

// ToggleChecked flips the cell's checked toggle, propagated across its
// merge group.
func (t *Table) ToggleChecked(row, col int) error {
	cell, err := t.Cell(row, col)
	if err != nil {
		return err
	}

	checked := !cell.Checked
	for _, member := range t.groupOf(cell) {
		member.Checked = checked
	}
	t.touch()
	return nil
}

// Group returns every cell sharing the given merge group key, in
// row-major order. Returns nil for an empty key.
func (t *Table) Group(mergeID string) []*Cell {
	if mergeID == "" {
		return nil
	}
	var members []*Cell
	for _, row := range t.cells {
		for _, cell := range row {
			if cell.MergeID == mergeID {
				members = append(members, cell)
			}
		}
	}
	return members
}

// IsVisible reports whether the cell at the address exists and is not
// hidden behind a merge anchor.
func (t *Table) IsVisible(row, col int) bool {
	if !t.InRange(row, col) {
		return false
	}
	return !t.cells[row-1][col-1].Hidden
}

// VisibleCells returns the identities of all non-hidden cells in
// row-major order.
func (t *Table) VisibleCells() []CellID {
	ids := make([]CellID, 0, t.Rows()*t.Cols())
	for _, row := range t.cells {
		for _, cell := range row {
			if !cell.Hidden {
				ids = append(ids, cell.id)
			}
		}
	}
	return ids
}

// AnchorFor resolves an address to the visible cell covering it: the
// cell itself when unmerged or an anchor, otherwise its group's anchor.
func (t *Table) AnchorFor(row, col int) (*Cell, error) {
	cell, err := t.Cell(row, col)
	if err != nil {
		return nil, err
	}
	if !cell.Hidden {
		return cell, nil
	}
	for _, member := range t.Group(cell.MergeID) {
		if member.Anchor {
			return member, nil
		}
	}
	// A hidden cell without an anchor violates the group invariant;
	// fall back to the cell itself rather than fail the caller.
	return cell, nil
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	dup := &Table{
		cells:     make([][]*Cell, len(t.cells)),
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
	for r, row := range t.cells {
		dup.cells[r] = make([]*Cell, len(row))
		for c, cell := range row {
			dup.cells[r][c] = cell.clone()
		}
	}
	return dup
}

// groupOf returns the cells an edit to cell must touch: the whole merge
// group when merged, otherwise just the cell.
func (t *Table) groupOf(cell *Cell) []*Cell {
	if !cell.IsMerged() {
		return []*Cell{cell}
	}
	return t.Group(cell.MergeID)
}

func (t *Table) touch() {
	t.UpdatedAt = time.Now()
}
