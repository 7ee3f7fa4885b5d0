// Package shard provides the path and sizing conventions for the tsumo
// and metrics DPs' per-shard completion markers.
package shard

import (
	"fmt"
	"path/filepath"
)

// Size is the number of hand ids per shard.
const Size = 1 << 21

// Count returns the number of shards needed to cover n ids.
func Count(n int64) int {
	return int((n + Size - 1) / Size)
}

// Bounds returns the [lo, hi) id range covered by shard index s out of a
// table of n total ids.
func Bounds(s int, n int64) (lo, hi int64) {
	lo = int64(s) * Size
	hi = lo + Size
	if hi > n {
		hi = n
	}
	return lo, hi
}

// Path returns the completion-marker path for category (tsumo or
// metrics), round, shard s under root.
func Path(root string, category, round, s int) string {
	return filepath.Join(root, fmt.Sprintf("%02d", category), fmt.Sprintf("%02d", round), fmt.Sprintf("%03d.dat", s))
}

// TsumoPath returns the temp-file path for tsumo round r under root.
func TsumoPath(root string, r int) string {
	return filepath.Join(root, fmt.Sprintf("%02d.dat", r))
}
