package campaign

import (
	"time"

	"github.com/xraph/crowdfund/id"
	"github.com/xraph/crowdfund/types"
)

// Status is the campaign lifecycle state. Active is the only state from
// which transitions are allowed; the other three are terminal.
type Status string

const (
	StatusActive     Status = "active"
	StatusSuccessful Status = "successful"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// MinSuccessThresholdBps is the fraction of the target (in basis points)
// a campaign must have raised at its deadline to finalize as successful.
const MinSuccessThresholdBps int64 = 3000

// TokenScale is the number of token base units per whole token. All
// TokensPurchased and vesting amounts are carried in base units.
const TokenScale int64 = 1_000_000

// Campaign is one funding round for a creator's project.
type Campaign struct {
	types.Entity
	ID          id.ProjectID `json:"id"`
	Creator     string       `json:"creator"`
	Name        string       `json:"name"`
	Symbol      string       `json:"symbol"`
	Description string       `json:"description"`

	// Token economics
	TotalSupply int64       `json:"total_supply"` // whole tokens
	TokenPrice  types.Money `json:"token_price"`  // per whole token

	// Funding terms
	TargetAmount types.Money `json:"target_amount"`
	StartTime    time.Time   `json:"start_time"`
	EndTime      time.Time   `json:"end_time"`

	// Accounting state
	Status          Status      `json:"status"`
	TotalRaised     types.Money `json:"total_raised"`
	TotalTokensSold int64       `json:"total_tokens_sold"` // base units
	InvestorCount   int64       `json:"investor_count"`
	FundsWithdrawn  bool        `json:"funds_withdrawn"`

	// Vesting terms, applied when the campaign succeeds
	VestingCliff       time.Duration `json:"vesting_cliff"`
	VestingDuration    time.Duration `json:"vesting_duration"`
	VestingInitialized bool          `json:"vesting_initialized"`

	FinalizedAt *time.Time `json:"finalized_at,omitempty"`
}

// Investment is one investor's position in a campaign. Contributions
// accumulate; the refund flag flips at most once.
type Investment struct {
	types.Entity
	ID                id.InvestmentID `json:"id"`
	ProjectID         id.ProjectID    `json:"project_id"`
	Investor          string          `json:"investor"`
	AmountContributed types.Money     `json:"amount_contributed"`
	TokensPurchased   int64           `json:"tokens_purchased"` // base units
	ClaimedRefund     bool            `json:"claimed_refund"`
}

// IsTerminal reports whether the campaign has left the Active state.
// Terminal states are never reversed.
func (c *Campaign) IsTerminal() bool {
	return c.Status != StatusActive
}

// TargetReached reports whether the raised amount has hit the target.
func (c *Campaign) TargetReached() bool {
	return !c.TotalRaised.LessThan(c.TargetAmount)
}

// ThresholdReached reports whether the raised amount meets the deadline
// success threshold (MinSuccessThresholdBps of the target).
func (c *Campaign) ThresholdReached() bool {
	return !c.TotalRaised.LessThan(c.TargetAmount.Bps(MinSuccessThresholdBps))
}

// Ended reports whether the campaign deadline has passed.
func (c *Campaign) Ended(now time.Time) bool {
	return !now.Before(c.EndTime)
}

// RefundEligible reports whether investors may claim refunds. Cancelled
// campaigns never disbursed funds, so they refund exactly like failed ones.
func (c *Campaign) RefundEligible() bool {
	return c.Status == StatusFailed || c.Status == StatusCancelled
}

// ProgressBps returns how much of the target has been raised, in basis
// points (10000 = 100%). Not clamped: an exactly-full campaign reads 10000.
func (c *Campaign) ProgressBps() int64 {
	if !c.TargetAmount.IsPositive() {
		return 0
	}
	return types.MulDiv(c.TotalRaised.Amount, 10000, c.TargetAmount.Amount)
}

// TimeRemaining returns the duration until the deadline, or zero once it
// has passed or the campaign is terminal.
func (c *Campaign) TimeRemaining(now time.Time) time.Duration {
	if c.IsTerminal() || c.Ended(now) {
		return 0
	}
	return c.EndTime.Sub(now)
}

// TokensFor converts a contribution into token base units at the given
// price per whole token, rounding down. The platform, not the investor,
// absorbs the rounding dust.
func TokensFor(amount, price types.Money) int64 {
	return types.MulDiv(amount.Amount, TokenScale, price.Amount)
}
