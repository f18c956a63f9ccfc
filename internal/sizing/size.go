// Package sizing provides safe size arithmetic and conversions to prevent overflow.
package sizing

import (
	"errors"
	"math"
)

// ErrNegative is returned when a size that must be non-negative is negative.
var ErrNegative = errors.New("negative size")

// ToInt converts an int64 byte count to int, returning overflowErr if it doesn't fit.
func ToInt(size int64, overflowErr error) (int, error) {
	if size < 0 {
		return 0, ErrNegative
	}
	if uint64(size) > uint64(math.MaxInt) {
		return 0, overflowErr
	}
	return int(size), nil
}

// AddInt64 adds a non-negative a and any b, returning (result, false) on overflow.
func AddInt64(a, b int64) (int64, bool) {
	if b > math.MaxInt64-a {
		return 0, false
	}
	return a + b, true
}

// Chunk returns the number of bytes to move in one step: the smallest of limit,
// room and remaining. A non-positive room means the destination is unbounded.
func Chunk(limit int, room, remaining int64) int64 {
	n := remaining
	if room > 0 && room < n {
		n = room
	}
	if int64(limit) < n {
		n = int64(limit)
	}
	return n
}
