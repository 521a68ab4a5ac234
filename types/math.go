package types

import (
	"math"
	"math/bits"
)

// MulDiv computes floor(a * b / den) with a 128-bit intermediate product,
// so that proportional allocations (token purchases, vesting releases,
// fee basis points) never overflow or drift even when a*b exceeds int64.
// Inputs must be non-negative and den must be positive; violations are
// programming errors and panic.
func MulDiv(a, b, den int64) int64 {
	if a < 0 || b < 0 {
		panic("types: MulDiv requires non-negative operands")
	}
	if den <= 0 {
		panic("types: MulDiv requires a positive denominator")
	}

	hi, lo := bits.Mul64(uint64(a), uint64(b))
	if hi >= uint64(den) {
		panic("types: MulDiv quotient overflows int64")
	}

	quo, _ := bits.Div64(hi, lo, uint64(den))
	if quo > math.MaxInt64 {
		panic("types: MulDiv quotient overflows int64")
	}
	return int64(quo)
}
