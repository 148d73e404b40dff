package merge

import "errors"

// Errors returned by merge operations.
var (
	// ErrSelectionTooSmall indicates a merge attempt on fewer than two cells.
	ErrSelectionTooSmall = errors.New("merge requires at least two cells")

	// ErrInvalidSelectionShape indicates the selection is not a filled rectangle.
	ErrInvalidSelectionShape = errors.New("selection is not rectangular")

	// ErrBadGroupKey indicates a group key that does not parse as four bounds.
	ErrBadGroupKey = errors.New("malformed merge group key")
)
