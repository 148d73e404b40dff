// Package grid implements the table data model for Gridstorm.
//
// A Table is a rectangular matrix of cells addressed by 1-based
// (row, column) coordinates. Cells hold short text codes, a checked
// toggle, and merge-group membership. The model supports creation,
// incremental growth by one row or column at a time, and value edits
// that propagate shared state across merge groups.
//
// The model assumes single-writer dispatch: every public operation runs
// to completion before the next event is processed, so no locking is
// performed here. Merge and unmerge transactions are implemented by
// package grid/merge on top of this model.
package grid
