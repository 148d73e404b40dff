package bridge

import (
	"fmt"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dshills/gridstorm/internal/grid"
)

// Payload field names. Indices are never embedded: row and column
// positions are always recomputed from array position on load.
//
//	{ rows, columns,
//	  tableRows: [ { cells: [ { sequenceNumber, isBlocked?, isMerged?,
//	                            mergeId?, checked?, rowSpan?, colSpan?,
//	                            isHidden? } ] } ],
//	  metadata: { updatedAt } }

// Serialize encodes the table as the external payload text. Optional
// cell fields are emitted only when they differ from their defaults, so
// identical tables always produce byte-identical text.
func Serialize(t *grid.Table) (string, error) {
	raw := `{}`
	var err error

	if raw, err = sjson.Set(raw, "rows", t.Rows()); err != nil {
		return "", fmt.Errorf("serialize rows: %w", err)
	}
	if raw, err = sjson.Set(raw, "columns", t.Cols()); err != nil {
		return "", fmt.Errorf("serialize columns: %w", err)
	}
	if raw, err = sjson.SetRaw(raw, "tableRows", "[]"); err != nil {
		return "", fmt.Errorf("serialize tableRows: %w", err)
	}

	for r := 1; r <= t.Rows(); r++ {
		rowJSON := `{"cells":[]}`
		for c := 1; c <= t.Cols(); c++ {
			cell, cellErr := t.Cell(r, c)
			if cellErr != nil {
				return "", cellErr
			}
			cellJSON, cellErr := serializeCell(cell)
			if cellErr != nil {
				return "", cellErr
			}
			if rowJSON, err = sjson.SetRaw(rowJSON, "cells.-1", cellJSON); err != nil {
				return "", fmt.Errorf("serialize cell (%d,%d): %w", r, c, err)
			}
		}
		if raw, err = sjson.SetRaw(raw, "tableRows.-1", rowJSON); err != nil {
			return "", fmt.Errorf("serialize row %d: %w", r, err)
		}
	}

	if raw, err = sjson.Set(raw, "metadata.updatedAt", t.UpdatedAt.UTC().Format(time.RFC3339Nano)); err != nil {
		return "", fmt.Errorf("serialize metadata: %w", err)
	}
	return raw, nil
}

// serializeCell encodes one cell, omitting fields at their defaults.
// The blocked flag is written only when it differs from what the value
// derives, which is exactly the explicit-override case.
func serializeCell(cell *grid.Cell) (string, error) {
	raw := `{}`
	var err error

	if raw, err = sjson.Set(raw, "sequenceNumber", cell.Value); err != nil {
		return "", err
	}
	if cell.Blocked != grid.IsBlockedValue(cell.Value) {
		if raw, err = sjson.Set(raw, "isBlocked", cell.Blocked); err != nil {
			return "", err
		}
	}
	if cell.Checked {
		if raw, err = sjson.Set(raw, "checked", true); err != nil {
			return "", err
		}
	}
	if cell.IsMerged() {
		if raw, err = sjson.Set(raw, "isMerged", true); err != nil {
			return "", err
		}
		if raw, err = sjson.Set(raw, "mergeId", cell.MergeID); err != nil {
			return "", err
		}
	}
	if cell.Hidden {
		if raw, err = sjson.Set(raw, "isHidden", true); err != nil {
			return "", err
		}
	}
	if cell.RowSpan > 1 {
		if raw, err = sjson.Set(raw, "rowSpan", cell.RowSpan); err != nil {
			return "", err
		}
	}
	if cell.ColSpan > 1 {
		if raw, err = sjson.Set(raw, "colSpan", cell.ColSpan); err != nil {
			return "", err
		}
	}
	return raw, nil
}

// Parse rebuilds a table from payload text.
//
// Structural requirements: valid JSON, rows and columns within [1,100],
// and a tableRows list present. Everything else is defaulted: cells are
// rebuilt by array position, blocked is derived from the value unless
// explicitly present, and missing optional fields take their unmerged,
// unchecked, unblocked values. Rows or cells beyond the declared
// dimensions are ignored.
func Parse(raw string) (*grid.Table, error) {
	if !gjson.Valid(raw) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrMalformedPayload)
	}

	doc := gjson.Parse(raw)
	rows := int(doc.Get("rows").Int())
	cols := int(doc.Get("columns").Int())
	if !grid.ValidDimension(rows) || !grid.ValidDimension(cols) {
		return nil, fmt.Errorf("%w: dimensions %dx%d", ErrMalformedPayload, rows, cols)
	}

	tableRows := doc.Get("tableRows")
	if !tableRows.Exists() || !tableRows.IsArray() {
		return nil, fmt.Errorf("%w: missing tableRows", ErrMalformedPayload)
	}

	t, err := grid.New(rows, cols)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	for r, rowVal := range tableRows.Array() {
		if r >= rows {
			break
		}
		for c, cellVal := range rowVal.Get("cells").Array() {
			if c >= cols {
				break
			}
			cell, cellErr := t.Cell(r+1, c+1)
			if cellErr != nil {
				return nil, cellErr
			}
			applyCell(cell, cellVal)
		}
	}

	if updated := doc.Get("metadata.updatedAt"); updated.Exists() {
		if ts, tsErr := time.Parse(time.RFC3339Nano, updated.String()); tsErr == nil {
			t.UpdatedAt = ts
		}
	}
	return t, nil
}

// applyCell fills one cell from its payload entry, normalizing the
// merge flags so the group invariants hold: spans floor at 1, hidden
// cells carry span (1,1), and only a merged visible cell is an anchor.
func applyCell(cell *grid.Cell, val gjson.Result) {
	value := grid.EmptyValue
	if seq := val.Get("sequenceNumber"); seq.Exists() {
		value = seq.String()
	}
	cell.Value = value

	if blocked := val.Get("isBlocked"); blocked.Exists() {
		cell.Blocked = blocked.Bool()
	} else {
		cell.Blocked = grid.IsBlockedValue(value)
	}

	cell.Checked = val.Get("checked").Bool()
	cell.Hidden = val.Get("isHidden").Bool()
	cell.MergeID = val.Get("mergeId").String()

	cell.RowSpan = spanOrDefault(val.Get("rowSpan"))
	cell.ColSpan = spanOrDefault(val.Get("colSpan"))
	if cell.Hidden || !cell.IsMerged() {
		cell.RowSpan = 1
		cell.ColSpan = 1
	}
	cell.Anchor = cell.IsMerged() && !cell.Hidden
}

func spanOrDefault(val gjson.Result) int {
	if n := int(val.Int()); n > 1 {
		return n
	}
	return 1
}
