// Package safeconv provides integer conversions that never wrap silently.
package safeconv

import "math"

// Uint64ToInt64 converts v, reporting false when it exceeds math.MaxInt64.
func Uint64ToInt64(v uint64) (int64, bool) {
	if v > math.MaxInt64 {
		return 0, false
	}

	return int64(v), true
}

// ClampToUint64 converts v, mapping negative values to zero.
func ClampToUint64(v int64) uint64 {
	if v < 0 {
		return 0
	}

	return uint64(v)
}
