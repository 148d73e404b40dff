package grid

// Statistics holds counters derived from a table in a single pass.
type Statistics struct {
	// TotalCells is rows * columns.
	TotalCells int

	// BlockedCells counts cells whose blocked flag is set.
	BlockedCells int

	// MergedVisible counts merge anchors, the visible cells of groups.
	MergedVisible int
}

// Statistics computes the derived counters. O(total cells).
func (t *Table) Statistics() Statistics {
	s := Statistics{TotalCells: t.Rows() * t.Cols()}
	for _, row := range t.cells {
		for _, cell := range row {
			if cell.Blocked {
				s.BlockedCells++
			}
			if cell.Anchor {
				s.MergedVisible++
			}
		}
	}
	return s
}
