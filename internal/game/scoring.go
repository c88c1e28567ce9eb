package game

import (
	"math"
	"math/bits"
	"time"
)

// OpenEndedHalfLife is the score half-life for rounds without a timeout.
const OpenEndedHalfLife = 300 * time.Second

// ComputeRoundScore returns the points a won round is worth after elapsed.
// With a finite timeout the score falls linearly to the floor of 1 at the
// deadline; with timeout <= 0 it halves every OpenEndedHalfLife.
func ComputeRoundScore(maxScore int64, timeout, elapsed time.Duration) int64 {
	if maxScore < 1 {
		return 1
	}
	if elapsed < 0 {
		elapsed = 0
	}

	var raw int64
	if timeout > 0 {
		raw = linearScore(maxScore, timeout, min(elapsed, timeout))
	} else {
		factor := math.Exp2(-elapsed.Seconds() / OpenEndedHalfLife.Seconds())
		raw = int64(math.Ceil(float64(maxScore) * factor))
	}

	if raw < 1 {
		return 1
	}
	if raw > maxScore {
		return maxScore
	}
	return raw
}

// linearScore is ceil(maxScore*(timeout-elapsed)/timeout) in exact integer
// arithmetic. Requires 0 <= elapsed <= timeout.
func linearScore(maxScore int64, timeout, elapsed time.Duration) int64 {
	d := uint64(timeout)
	hi, lo := bits.Mul64(uint64(maxScore), uint64(timeout-elapsed))
	lo, carry := bits.Add64(lo, d-1, 0)
	q, _ := bits.Div64(hi+carry, lo, d)
	return int64(q)
}

// PerPlayerScore splits a round score across n participants, rounding up
// and never going below 1.
func PerPlayerScore(raw int64, n int) int64 {
	if n < 1 {
		n = 1
	}
	share := (raw + int64(n) - 1) / int64(n)
	if share < 1 {
		return 1
	}
	return share
}
