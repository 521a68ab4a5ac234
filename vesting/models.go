// Package vesting implements cliff-plus-linear token release schedules.
// Release math is pure; mutation (claims, revocation, sweeps) happens in
// the engine under the owning campaign's lock.
package vesting

import (
	"time"

	"github.com/xraph/crowdfund/id"
	"github.com/xraph/crowdfund/types"
)

// GracePeriod is how long after a schedule fully vests before the
// undistributed remainder may be swept by emergency withdrawal.
const GracePeriod = 30 * 24 * time.Hour

// Schedule is one beneficiary's token release schedule. Amounts are in
// token base units (campaign.TokenScale per whole token).
type Schedule struct {
	types.Entity
	ID          id.VestingID `json:"id"`
	ProjectID   id.ProjectID `json:"project_id"`
	Beneficiary string       `json:"beneficiary"`

	TotalAmount   int64 `json:"total_amount"`
	ClaimedAmount int64 `json:"claimed_amount"`

	CliffTime time.Time     `json:"cliff_time"`
	Duration  time.Duration `json:"duration"` // linear release window after the cliff

	IsActive  bool       `json:"is_active"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
}

// EndTime is when the schedule is fully vested.
func (s *Schedule) EndTime() time.Time {
	return s.CliffTime.Add(s.Duration)
}

// SweepTime is when emergency withdrawal of the remainder becomes legal.
func (s *Schedule) SweepTime() time.Time {
	return s.EndTime().Add(GracePeriod)
}

// VestedAt returns how many base units have vested by now: zero before
// the cliff, everything at or after EndTime, linear interpolation in
// between (floored — the dust vests at the end, never early).
func (s *Schedule) VestedAt(now time.Time) int64 {
	if now.Before(s.CliffTime) {
		return 0
	}
	if !now.Before(s.EndTime()) {
		return s.TotalAmount
	}

	elapsed := now.Sub(s.CliffTime)
	return types.MulDiv(s.TotalAmount, int64(elapsed), int64(s.Duration))
}

// ClaimableAt returns the vested amount not yet claimed. Always within
// [0, TotalAmount-ClaimedAmount].
func (s *Schedule) ClaimableAt(now time.Time) int64 {
	claimable := s.VestedAt(now) - s.ClaimedAmount
	if claimable < 0 {
		return 0
	}
	return claimable
}

// Remaining returns the unclaimed portion of the schedule, vested or not.
func (s *Schedule) Remaining() int64 {
	return s.TotalAmount - s.ClaimedAmount
}
