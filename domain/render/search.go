package render

import "sort"

// latestAtOrBefore returns the index of the last element whose timestamp is
// <= ts, or -1. Timestamps must be non-decreasing.
func latestAtOrBefore(n int, at func(int) uint64, ts uint64) int {
	return sort.Search(n, func(i int) bool { return at(i) > ts }) - 1
}
