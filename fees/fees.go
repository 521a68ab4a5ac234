// Package fees implements the platform fee policy: creation-fee
// validation and basis-point platform fees. Everything here is a pure
// calculation — the package holds no state.
package fees

import (
	"errors"

	"github.com/xraph/crowdfund/types"
)

// MaxPlatformFeeBps caps the platform fee at 10%.
const MaxPlatformFeeBps int64 = 1000

var (
	// ErrInsufficientFee is returned when the paid creation fee does not
	// cover the required amount.
	ErrInsufficientFee = errors.New("fees: insufficient creation fee")

	// ErrFeeTooHigh is returned when a fee rate exceeds MaxPlatformFeeBps.
	ErrFeeTooHigh = errors.New("fees: platform fee above cap")
)

// ValidateCreationFee verifies that paid covers required and returns the
// exact excess owed back to the caller. The refund is never rounded.
func ValidateCreationFee(paid, required types.Money) (types.Money, error) {
	if paid.LessThan(required) {
		return types.Zero(paid.Currency), ErrInsufficientFee
	}
	return paid.Subtract(required), nil
}

// ValidateFeeBps rejects fee rates outside [0, MaxPlatformFeeBps].
func ValidateFeeBps(bps int64) error {
	if bps < 0 || bps > MaxPlatformFeeBps {
		return ErrFeeTooHigh
	}
	return nil
}

// PlatformFee returns floor(amount * bps / 10000). The platform absorbs
// the rounding dust, so the fee never exceeds the exact proportion.
func PlatformFee(amount types.Money, bps int64) types.Money {
	return amount.Bps(bps)
}

// NetAmount returns amount minus the platform fee. Because PlatformFee
// floors and bps is capped below 10000, the result is never negative.
func NetAmount(amount types.Money, bps int64) types.Money {
	return amount.Subtract(PlatformFee(amount, bps))
}
