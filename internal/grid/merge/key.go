package merge

import (
	"fmt"
	"strconv"
	"strings"
)

// keySeparator delimits the four bounds inside a group key. A delimited
// encoding keeps keys unambiguous: plain decimal concatenation would
// collide for bounds like (1,12,1,3) and (1,1,2,13).
const keySeparator = ":"

// GroupKey encodes a rectangle's bounds as a merge group key.
// Bounds are inclusive, 1-based, min corner first.
func GroupKey(r1, c1, r2, c2 int) string {
	return fmt.Sprintf("%d%s%d%s%d%s%d", r1, keySeparator, c1, keySeparator, r2, keySeparator, c2)
}

// ParseGroupKey decodes a group key back into rectangle bounds.
func ParseGroupKey(key string) (r1, c1, r2, c2 int, err error) {
	parts := strings.Split(key, keySeparator)
	if len(parts) != 4 {
		return 0, 0, 0, 0, fmt.Errorf("%w: %q", ErrBadGroupKey, key)
	}

	bounds := make([]int, 4)
	for i, p := range parts {
		n, convErr := strconv.Atoi(p)
		if convErr != nil || n < 1 {
			return 0, 0, 0, 0, fmt.Errorf("%w: %q", ErrBadGroupKey, key)
		}
		bounds[i] = n
	}
	if bounds[2] < bounds[0] || bounds[3] < bounds[1] {
		return 0, 0, 0, 0, fmt.Errorf("%w: %q", ErrBadGroupKey, key)
	}
	return bounds[0], bounds[1], bounds[2], bounds[3], nil
}
