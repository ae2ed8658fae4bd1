package types

import (
	"math"
	"time"
)

const maxSecondsDuration = int64(math.MaxInt64 / int64(time.Second))

// SaturateUint64ToInt64 bounds a uint64 before casting to int64 to avoid overflow.
func SaturateUint64ToInt64(v uint64) int64 {
	if v > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(v)
}

// SaturateInt64ToUint64 bounds an int64 before casting to uint64, treating negatives as zero.
func SaturateInt64ToUint64(v int64) uint64 {
	if v < 0 {
		return 0
	}
	return uint64(v)
}

// SaturateIntToUint64 bounds an int before casting to uint64, treating negatives as zero.
func SaturateIntToUint64(v int) uint64 {
	if v < 0 {
		return 0
	}
	return uint64(v)
}

// SecondsToDuration converts seconds into a time.Duration, clamping to the maximum representable duration.
func SecondsToDuration(seconds uint64) time.Duration {
	sec := SaturateUint64ToInt64(seconds)
	if sec > maxSecondsDuration {
		sec = maxSecondsDuration
	}
	return time.Duration(sec) * time.Second
}

// ElapsedSeconds returns whole seconds between from and to, zero when to precedes from.
func ElapsedSeconds(from, to time.Time) uint64 {
	return SaturateInt64ToUint64(to.Unix() - from.Unix())
}
