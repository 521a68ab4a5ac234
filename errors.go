package crowdfund

import (
	"errors"
	"fmt"

	"github.com/xraph/crowdfund/fees"
)

// Sentinel errors for common failure scenarios. Every failure is local
// and recoverable: the caller gets a typed error and may retry with
// corrected input. Nothing here is fatal to the engine.
var (
	// General errors
	ErrNotFound      = errors.New("crowdfund: not found")
	ErrAlreadyExists = errors.New("crowdfund: already exists")
	ErrInvalidInput  = errors.New("crowdfund: invalid input")
	ErrUnauthorized  = errors.New("crowdfund: unauthorized")

	// Project errors
	ErrProjectNotFound  = errors.New("crowdfund: project not found")
	ErrInvalidName      = errors.New("crowdfund: project name and symbol must be non-empty")
	ErrInvalidSupply    = errors.New("crowdfund: total supply must be positive")
	ErrInvalidPrice     = errors.New("crowdfund: token price must be positive")
	ErrInvalidTarget    = errors.New("crowdfund: target amount must be positive")
	ErrDurationTooShort = errors.New("crowdfund: project duration below minimum")

	// Investment errors
	ErrProjectNotActive     = errors.New("crowdfund: project is not active")
	ErrProjectEnded         = errors.New("crowdfund: project deadline has passed")
	ErrInvestmentOutOfRange = errors.New("crowdfund: investment outside allowed range")
	ErrTargetExceeded       = errors.New("crowdfund: contribution would exceed target")

	// Finalization errors
	ErrStillActive      = errors.New("crowdfund: project is still active")
	ErrAlreadyFinalized = errors.New("crowdfund: project already finalized")

	// Payout errors
	ErrNotSuccessful         = errors.New("crowdfund: project is not successful")
	ErrFundsAlreadyWithdrawn = errors.New("crowdfund: funds already withdrawn")
	ErrRefundNotAvailable    = errors.New("crowdfund: refunds are not available")
	ErrRefundAlreadyClaimed  = errors.New("crowdfund: refund already claimed")
	ErrNothingToRefund       = errors.New("crowdfund: nothing to refund")

	// Vesting errors
	ErrScheduleNotFound  = errors.New("crowdfund: vesting schedule not found")
	ErrDuplicateSchedule = errors.New("crowdfund: active vesting schedule already exists")
	ErrNoActiveSchedule  = errors.New("crowdfund: no active vesting schedule")
	ErrNothingToClaim    = errors.New("crowdfund: nothing to claim")
	ErrEmptyBatch        = errors.New("crowdfund: empty schedule batch")
	ErrBatchMismatch     = errors.New("crowdfund: beneficiaries and amounts length mismatch")
	ErrZeroAmount        = errors.New("crowdfund: amount must be positive")
	ErrGracePeriodActive = errors.New("crowdfund: vesting grace period has not elapsed")

	// Registry errors
	ErrInsufficientFee   = fees.ErrInsufficientFee
	ErrFeeTooHigh        = fees.ErrFeeTooHigh
	ErrInvalidRecipient  = errors.New("crowdfund: recipient must be a non-empty identity")
	ErrAlreadyVerified   = errors.New("crowdfund: project already verified")
	ErrNothingToWithdraw = errors.New("crowdfund: no accrued fees to withdraw")
	ErrOffsetOutOfBounds = errors.New("crowdfund: pagination offset out of bounds")

	// Store errors
	ErrStoreClosed       = errors.New("crowdfund: store is closed")
	ErrTransactionFailed = errors.New("crowdfund: transaction failed")
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("crowdfund: validation failed for %s: %s", e.Field, e.Message)
}

// IsNotFound returns true if the error is a resource lookup failure.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrProjectNotFound) ||
		errors.Is(err, ErrScheduleNotFound)
}

// IsValidation returns true for bad-input errors, rejected before any
// state mutation.
func IsValidation(err error) bool {
	var ve ValidationError
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidName) ||
		errors.Is(err, ErrInvalidSupply) ||
		errors.Is(err, ErrInvalidPrice) ||
		errors.Is(err, ErrInvalidTarget) ||
		errors.Is(err, ErrDurationTooShort) ||
		errors.Is(err, ErrInvestmentOutOfRange) ||
		errors.Is(err, ErrInsufficientFee) ||
		errors.Is(err, ErrFeeTooHigh) ||
		errors.Is(err, ErrInvalidRecipient) ||
		errors.Is(err, ErrEmptyBatch) ||
		errors.Is(err, ErrBatchMismatch) ||
		errors.Is(err, ErrZeroAmount) ||
		errors.As(err, &ve)
}

// IsStateConflict returns true for wrong-lifecycle-phase errors. The
// entity's state is intact; the operation is simply not legal right now.
func IsStateConflict(err error) bool {
	return errors.Is(err, ErrProjectNotActive) ||
		errors.Is(err, ErrProjectEnded) ||
		errors.Is(err, ErrTargetExceeded) ||
		errors.Is(err, ErrStillActive) ||
		errors.Is(err, ErrAlreadyFinalized) ||
		errors.Is(err, ErrNotSuccessful) ||
		errors.Is(err, ErrFundsAlreadyWithdrawn) ||
		errors.Is(err, ErrRefundNotAvailable) ||
		errors.Is(err, ErrRefundAlreadyClaimed) ||
		errors.Is(err, ErrDuplicateSchedule) ||
		errors.Is(err, ErrNoActiveSchedule) ||
		errors.Is(err, ErrAlreadyVerified) ||
		errors.Is(err, ErrGracePeriodActive)
}

// IsUnauthorized returns true when the acting identity is not allowed to
// perform the operation.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}
