// Package merge implements rectangular cell merging on top of the grid
// model.
//
// A merge group is a contiguous rectangular block of cells sharing one
// group key. Exactly one cell per group, at the rectangle's minimum
// (row, column), is the visible anchor carrying the group's span; the
// remaining members are hidden with span (1,1). Groups never overlap.
//
// Merge and Unmerge are all-or-nothing: every precondition is checked
// before the first cell is touched, so a rejected operation leaves the
// table byte-identical to before the call.
package merge

import (
	"fmt"

	"github.com/dshills/gridstorm/internal/grid"
)

// Manager enforces the merge group invariants over a table.
type Manager struct {
	table *grid.Table
}

// NewManager creates a merge manager bound to the given table.
func NewManager(table *grid.Table) *Manager {
	return &Manager{table: table}
}

// SetTable rebinds the manager after a wholesale table replacement.
func (m *Manager) SetTable(table *grid.Table) {
	m.table = table
}

// Merge merges the selected cells into one group.
//
// The selection must contain at least two distinct in-range identities
// and must exactly fill its bounding box (cardinality equals area - the
// rectangularity check). Existing groups intersecting the target
// rectangle are dissolved first. The top-left cell's pre-merge value,
// checked and blocked state become the group's shared state. Returns
// the new anchor's identity.
func (m *Manager) Merge(sel []grid.CellID) (grid.CellID, error) {
	seen := make(map[grid.CellID]struct{}, len(sel))
	for _, id := range sel {
		if !m.table.InRange(id.Row, id.Col) {
			return grid.CellID{}, fmt.Errorf("%w: (%d,%d)", grid.ErrCellOutOfRange, id.Row, id.Col)
		}
		seen[id] = struct{}{}
	}
	if len(seen) < 2 {
		return grid.CellID{}, ErrSelectionTooSmall
	}

	r1, c1, r2, c2 := boundingBox(sel)
	area := (r2 - r1 + 1) * (c2 - c1 + 1)
	if len(seen) != area {
		return grid.CellID{}, fmt.Errorf("%w: %d cells in a %dx%d box",
			ErrInvalidSelectionShape, len(seen), r2-r1+1, c2-c1+1)
	}

	// Dissolve any group intersecting the target rectangle so the new
	// group cannot overlap an existing one.
	for _, key := range m.intersectingGroups(r1, c1, r2, c2) {
		for _, member := range m.table.Group(key) {
			member.Reset()
		}
	}

	anchor, err := m.table.Cell(r1, c1)
	if err != nil {
		return grid.CellID{}, err
	}
	value := anchor.Value
	checked := anchor.Checked
	blocked := anchor.Blocked

	key := GroupKey(r1, c1, r2, c2)
	for r := r1; r <= r2; r++ {
		for c := c1; c <= c2; c++ {
			cell, err := m.table.Cell(r, c)
			if err != nil {
				return grid.CellID{}, err
			}
			cell.MergeID = key
			cell.Value = value
			cell.Checked = checked
			cell.Blocked = blocked
			if r == r1 && c == c1 {
				cell.Anchor = true
				cell.Hidden = false
				cell.RowSpan = r2 - r1 + 1
				cell.ColSpan = c2 - c1 + 1
			} else {
				cell.Anchor = false
				cell.Hidden = true
				cell.RowSpan = 1
				cell.ColSpan = 1
			}
		}
	}

	return anchor.ID(), nil
}

// Unmerge dissolves the group containing the given cell, restoring
// every member to unmerged state. Unmerging a cell that belongs to no
// group is a silent no-op.
func (m *Manager) Unmerge(id grid.CellID) error {
	cell, err := m.table.Cell(id.Row, id.Col)
	if err != nil {
		return err
	}
	if !cell.IsMerged() {
		return nil
	}

	for _, member := range m.table.Group(cell.MergeID) {
		member.Reset()
	}
	return nil
}

// intersectingGroups returns the distinct group keys of merged cells
// inside the rectangle, in first-seen order.
func (m *Manager) intersectingGroups(r1, c1, r2, c2 int) []string {
	var keys []string
	seen := make(map[string]struct{})
	for r := r1; r <= r2; r++ {
		for c := c1; c <= c2; c++ {
			cell, err := m.table.Cell(r, c)
			if err != nil {
				continue
			}
			if cell.IsMerged() {
				if _, ok := seen[cell.MergeID]; !ok {
					seen[cell.MergeID] = struct{}{}
					keys = append(keys, cell.MergeID)
				}
			}
		}
	}
	return keys
}

// boundingBox returns the inclusive bounds of the selected positions.
func boundingBox(sel []grid.CellID) (r1, c1, r2, c2 int) {
	r1, c1 = sel[0].Row, sel[0].Col
	r2, c2 = r1, c1
	for _, id := range sel[1:] {
		if id.Row < r1 {
			r1 = id.Row
		}
		if id.Row > r2 {
			r2 = id.Row
		}
		if id.Col < c1 {
			c1 = id.Col
		}
		if id.Col > c2 {
			c2 = id.Col
		}
	}
	return r1, c1, r2, c2
}
