package grid

import "errors"

// Errors returned by grid operations.
var (
	// ErrDimensionOutOfRange indicates a row or column count outside [1,100].
	ErrDimensionOutOfRange = errors.New("dimension out of range")

	// ErrCellOutOfRange indicates a cell address outside the table bounds.
	ErrCellOutOfRange = errors.New("cell out of range")
)
