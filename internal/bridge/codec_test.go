package bridge

import (
	"errors"
	"testing"

	"github.com/dshills/gridstorm/internal/grid"
	"github.com/dshills/gridstorm/internal/grid/merge"
)

// buildTable creates a 4x4 table with values, a checked cell and a 2x2
// merge group anchored at (2,2).
func buildTable(t *testing.T) *grid.Table {
	t.Helper()

	tbl, err := grid.New(4, 4)
	if err != nil {
		t.Fatal(err)
	}
	if err := tbl.SetValue(1, 1, "7"); err != nil {
		t.Fatal(err)
	}
	if err := tbl.SetValue(2, 2, "A3"); err != nil {
		t.Fatal(err)
	}
	if err := tbl.ToggleChecked(4, 4); err != nil {
		t.Fatal(err)
	}

	mgr := merge.NewManager(tbl)
	sel := []grid.CellID{{Row: 2, Col: 2}, {Row: 2, Col: 3}, {Row: 3, Col: 2}, {Row: 3, Col: 3}}
	if _, err := mgr.Merge(sel); err != nil {
		t.Fatal(err)
	}
	return tbl
}

func TestSerializeParseRoundTrip(t *testing.T) {
	tbl := buildTable(t)

	text, err := Serialize(tbl)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	got, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if got.Rows() != tbl.Rows() || got.Cols() != tbl.Cols() {
		t.Fatalf("size = %dx%d, want %dx%d", got.Rows(), got.Cols(), tbl.Rows(), tbl.Cols())
	}

	for r := 1; r <= tbl.Rows(); r++ {
		for c := 1; c <= tbl.Cols(); c++ {
			want, _ := tbl.Cell(r, c)
			cell, _ := got.Cell(r, c)
			if cell.Value != want.Value {
				t.Errorf("(%d,%d) value = %q, want %q", r, c, cell.Value, want.Value)
			}
			if cell.Blocked != want.Blocked {
				t.Errorf("(%d,%d) blocked = %v, want %v", r, c, cell.Blocked, want.Blocked)
			}
			if cell.Checked != want.Checked {
				t.Errorf("(%d,%d) checked = %v, want %v", r, c, cell.Checked, want.Checked)
			}
			if cell.MergeID != want.MergeID {
				t.Errorf("(%d,%d) mergeId = %q, want %q", r, c, cell.MergeID, want.MergeID)
			}
			if cell.Hidden != want.Hidden || cell.Anchor != want.Anchor {
				t.Errorf("(%d,%d) hidden/anchor = %v/%v, want %v/%v",
					r, c, cell.Hidden, cell.Anchor, want.Hidden, want.Anchor)
			}
			if cell.RowSpan != want.RowSpan || cell.ColSpan != want.ColSpan {
				t.Errorf("(%d,%d) span = (%d,%d), want (%d,%d)",
					r, c, cell.RowSpan, cell.ColSpan, want.RowSpan, want.ColSpan)
			}
			// Identities are regenerated from position, never parsed.
			if cell.RowIndex() != r || cell.ColIndex() != c {
				t.Errorf("(%d,%d) identity = (%d,%d)", r, c, cell.RowIndex(), cell.ColIndex())
			}
		}
	}
}

func TestSerializeDeterministic(t *testing.T) {
	tbl := buildTable(t)

	a, err := Serialize(tbl)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Serialize(tbl)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("two serializations of the same table differ")
	}
}

func TestParseDefaultsOptionalFields(t *testing.T) {
	raw := `{
		"rows": 2, "columns": 2,
		"tableRows": [
			{"cells": [{"sequenceNumber": "5"}, {}]},
			{"cells": [{"sequenceNumber": "-"}]}
		]
	}`

	tbl, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	cell, _ := tbl.Cell(1, 1)
	if cell.Value != "5" || !cell.Blocked {
		t.Errorf("(1,1) = %+v, want value 5 blocked", cell)
	}
	// Missing sequenceNumber defaults to the empty sentinel.
	cell, _ = tbl.Cell(1, 2)
	if cell.Value != grid.EmptyValue || cell.Blocked || cell.Checked {
		t.Errorf("(1,2) = %+v, want default", cell)
	}
	// Missing whole cell entry stays default.
	cell, _ = tbl.Cell(2, 2)
	if cell.Value != grid.EmptyValue || cell.IsMerged() || cell.RowSpan != 1 {
		t.Errorf("(2,2) = %+v, want default", cell)
	}
}

func TestParseExplicitBlockedOverride(t *testing.T) {
	raw := `{
		"rows": 1, "columns": 2,
		"tableRows": [
			{"cells": [
				{"sequenceNumber": "-", "isBlocked": true},
				{"sequenceNumber": "9", "isBlocked": false}
			]}
		]
	}`

	tbl, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	cell, _ := tbl.Cell(1, 1)
	if !cell.Blocked {
		t.Error("explicit isBlocked=true override lost")
	}
	cell, _ = tbl.Cell(1, 2)
	if cell.Blocked {
		t.Error("explicit isBlocked=false override lost")
	}

	// The override must survive a serialize/parse cycle.
	text, err := Serialize(tbl)
	if err != nil {
		t.Fatal(err)
	}
	again, err := Parse(text)
	if err != nil {
		t.Fatal(err)
	}
	cell, _ = again.Cell(1, 1)
	if !cell.Blocked {
		t.Error("override lost in round trip")
	}
}

func TestParseNormalizesMergeFlags(t *testing.T) {
	// Hidden cells claiming spans, and spans below one, are normalized.
	raw := `{
		"rows": 1, "columns": 3,
		"tableRows": [
			{"cells": [
				{"sequenceNumber": "x", "isMerged": true, "mergeId": "1:1:1:2", "rowSpan": 1, "colSpan": 2},
				{"sequenceNumber": "x", "isMerged": true, "mergeId": "1:1:1:2", "isHidden": true, "rowSpan": 4, "colSpan": 4},
				{"sequenceNumber": "-", "rowSpan": 0, "colSpan": -2}
			]}
		]
	}`

	tbl, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	anchor, _ := tbl.Cell(1, 1)
	if !anchor.Anchor || anchor.Hidden || anchor.ColSpan != 2 {
		t.Errorf("anchor = %+v", anchor)
	}
	hidden, _ := tbl.Cell(1, 2)
	if hidden.Anchor || !hidden.Hidden || hidden.RowSpan != 1 || hidden.ColSpan != 1 {
		t.Errorf("hidden member = %+v", hidden)
	}
	plain, _ := tbl.Cell(1, 3)
	if plain.RowSpan != 1 || plain.ColSpan != 1 {
		t.Errorf("plain cell span = (%d,%d), want (1,1)", plain.RowSpan, plain.ColSpan)
	}
}

func TestParseIgnoresExtraRowsAndCells(t *testing.T) {
	raw := `{
		"rows": 1, "columns": 1,
		"tableRows": [
			{"cells": [{"sequenceNumber": "1"}, {"sequenceNumber": "extra"}]},
			{"cells": [{"sequenceNumber": "extra"}]}
		]
	}`

	tbl, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if tbl.Rows() != 1 || tbl.Cols() != 1 {
		t.Errorf("size = %dx%d, want 1x1", tbl.Rows(), tbl.Cols())
	}
	cell, _ := tbl.Cell(1, 1)
	if cell.Value != "1" {
		t.Errorf("value = %q, want 1", cell.Value)
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"not JSON", "{nope"},
		{"zero rows", `{"rows":0,"columns":3,"tableRows":[]}`},
		{"zero columns", `{"rows":3,"columns":0,"tableRows":[]}`},
		{"rows too large", `{"rows":101,"columns":3,"tableRows":[]}`},
		{"missing tableRows", `{"rows":2,"columns":2}`},
		{"tableRows not array", `{"rows":2,"columns":2,"tableRows":{}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.raw); !errors.Is(err, ErrMalformedPayload) {
				t.Errorf("Parse(%q) error = %v, want ErrMalformedPayload", tt.raw, err)
			}
		})
	}
}
